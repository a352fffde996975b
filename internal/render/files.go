package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavelanni/easymark/internal/model"
)

// Format selects how grade sheets are written.
type Format string

const (
	FormatLaTeX Format = "latex"
	FormatHTML  Format = "html"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatLaTeX, FormatHTML, FormatText, FormatJSON:
		return f, nil
	case "tex":
		return FormatLaTeX, nil
	case "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q (latex, html, text, json)", s)
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatLaTeX:
		return "tex"
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Sheet writes one grade sheet in format f.
func Sheet(ctx context.Context, w io.Writer, sheet model.GradeSheet, f Format) error {
	switch f {
	case FormatLaTeX:
		_, err := io.WriteString(w, LaTeX(ctx, sheet))
		return err
	case FormatHTML:
		return HTML(sheet).Render(ctx, w)
	case FormatJSON:
		data, err := json.MarshalIndent(model.ExportSheet(sheet), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		_, err := io.WriteString(w, Text(ctx, sheet, PlainStyles()))
		return err
	}
}

// SheetFileName returns "<student>_<total>.<ext>" with spaces and the
// decimal point replaced by underscores.
func SheetFileName(sheet model.GradeSheet, f Format) string {
	name := strings.ReplaceAll(sheet.Student, " ", "_")
	total := strings.ReplaceAll(Num(sheet.Total), ".", "_")
	return name + "_" + total + "." + f.Ext()
}

// SheetsDir returns the directory name used for a whole assignment:
// "<course>_<title>_<format>" with spaces replaced by underscores.
func SheetsDir(a *model.Assignment, f Format) string {
	return strings.ReplaceAll(a.Course+"_"+a.Title+"_"+string(f), " ", "_")
}

// WriteSheet writes one grade sheet into dir and returns the file path.
func WriteSheet(ctx context.Context, dir string, sheet model.GradeSheet, f Format) (string, error) {
	var buf bytes.Buffer
	if err := Sheet(ctx, &buf, sheet, f); err != nil {
		return "", fmt.Errorf("render %s: %w", sheet.Student, err)
	}
	path := filepath.Join(dir, SheetFileName(sheet, f))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteAll writes every student's grade sheet into
// <base>/<course>_<title>_<format>/ and returns that directory and the
// number of files written.
func WriteAll(ctx context.Context, a *model.Assignment, base string, f Format) (string, int, error) {
	dir := filepath.Join(base, SheetsDir(a, f))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create directory %s: %w", dir, err)
	}
	n := 0
	for _, student := range a.Students() {
		sheet, err := a.SheetFor(student)
		if err != nil {
			return dir, n, err
		}
		path, err := WriteSheet(ctx, dir, sheet, f)
		if err != nil {
			return dir, n, err
		}
		slog.Debug("wrote grade sheet", "student", student, "path", path)
		n++
	}
	slog.Info("wrote grade sheets", "dir", dir, "count", n, "format", f)
	return dir, n, nil
}
