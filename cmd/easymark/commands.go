package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pavelanni/easymark/internal/model"
	"github.com/pavelanni/easymark/internal/render"
	"github.com/pavelanni/easymark/internal/store"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create and save a new assignment",
		Example: `  easymark new --title "Assignment 5" --course "CS 1000" \
    --question 1.1=5 --question 1.2=5 --question 2.1=10`,
		RunE: runNew,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.StringP("title", "t", "", "Assignment title (required)")
	f.StringP("course", "c", "", "Course name (required)")
	f.StringSliceP("question", "q", nil, "Question part and marks as n.p=marks (repeatable, required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func addStudentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-student NAME...",
		Short: "Add students to a saved assignment",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAddStudent,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int64P("assignment", "a", 0, "Assignment id (required)")
	_ = cmd.MarkFlagRequired("assignment")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved assignments",
		RunE:  runList,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a saved assignment",
		RunE:  runDelete,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int64P("assignment", "a", 0, "Assignment id (required)")
	_ = cmd.MarkFlagRequired("assignment")
	return cmd
}

func sheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Print one student's grade sheet",
		RunE:  runSheet,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int64P("assignment", "a", 0, "Assignment id (required)")
	f.StringP("student", "s", "", "Student name (required)")
	f.StringP("format", "f", "text", "Output format (text, latex, html, json)")
	f.Bool("plain", false, "Disable colors")
	_ = cmd.MarkFlagRequired("assignment")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write grade sheets, JSON results or an .emark file",
		Long: `Write grade sheets for an assignment.

With --format latex, html or text one file per student is written to
<out-dir>/<course>_<title>_<format>/ (or a single file with --student).
With --format emark the assignment is written to <out-dir>/<course>_<title>.emark.
With --format json the results are written to --output; without
--assignment every saved assignment is included.`,
		RunE: runExport,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int64P("assignment", "a", 0, "Assignment id (0 = all, json only)")
	f.StringP("format", "f", "latex", "Export format (latex, html, text, json, emark)")
	f.StringP("student", "s", "", "Only this student")
	f.String("out-dir", ".", "Output directory for grade sheets and .emark files")
	f.StringP("output", "o", "-", "Output file path for json (- for stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE.emark...",
		Short: "Load .emark files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	commonFlags(cmd.Flags())
	return cmd
}

// parseQuestion parses "n.p=marks".
func parseQuestion(s string) (num, part int, outOf float64, err error) {
	label, marks, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, 0, fmt.Errorf("question %q: want n.p=marks", s)
	}
	n, p, ok := strings.Cut(strings.TrimSpace(label), ".")
	if !ok {
		return 0, 0, 0, fmt.Errorf("question %q: want n.p=marks", s)
	}
	if num, err = strconv.Atoi(n); err != nil {
		return 0, 0, 0, fmt.Errorf("question %q: bad number: %w", s, err)
	}
	if part, err = strconv.Atoi(p); err != nil {
		return 0, 0, 0, fmt.Errorf("question %q: bad part: %w", s, err)
	}
	if outOf, err = strconv.ParseFloat(strings.TrimSpace(marks), 64); err != nil {
		return 0, 0, 0, fmt.Errorf("question %q: bad marks: %w", s, err)
	}
	if math.IsNaN(outOf) || math.IsInf(outOf, 0) {
		return 0, 0, 0, fmt.Errorf("question %q: marks must be a finite number", s)
	}
	return num, part, outOf, nil
}

func runNew(cmd *cobra.Command, _ []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	a := model.NewAssignment(v.GetString("title"), v.GetString("course"))
	for _, q := range v.GetStringSlice("question") {
		num, part, outOf, err := parseQuestion(q)
		if err != nil {
			return err
		}
		if err := a.AddQuestion(num, part, outOf); err != nil {
			return err
		}
	}
	if _, err := db.FindID(ctx, a.Course, a.Title); err == nil {
		return fmt.Errorf("assignment %s %s already exists", a.Course, a.Title)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	id, err := db.Save(ctx, a)
	if err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	if err := db.SetLastAssignment(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s %s\t%s marks\n", id, a.Course, a.Title, render.Num(a.OutOf()))
	return nil
}

func runAddStudent(cmd *cobra.Command, args []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	id := v.GetInt64("assignment")
	a, err := db.Load(ctx, id)
	if err != nil {
		return err
	}
	for _, name := range args {
		if err := a.AddStudent(strings.TrimSpace(name)); err != nil {
			return err
		}
	}
	if _, err := db.Save(ctx, a); err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	slog.Info("added students", "assignment", id, "count", len(args))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	_, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := db.List(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "ID\tCOURSE\tTITLE\tSTUDENTS\tQUESTIONS\tOUT OF")
	for _, s := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", s.ID, s.Course, s.Title, s.Students, s.Questions, render.Num(s.OutOf))
	}
	return nil
}

func runDelete(cmd *cobra.Command, _ []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Delete(ctx, v.GetInt64("assignment")); err != nil {
		return err
	}
	n, err := db.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d assignments left\n", n)
	return nil
}

func runSheet(cmd *cobra.Command, _ []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := render.ParseFormat(v.GetString("format"))
	if err != nil {
		return err
	}
	a, err := db.Load(ctx, v.GetInt64("assignment"))
	if err != nil {
		return err
	}
	sheet, err := a.SheetFor(v.GetString("student"))
	if err != nil {
		return err
	}
	if f == render.FormatText {
		styles := render.DefaultStyles()
		if v.GetBool("plain") {
			styles = render.PlainStyles()
		}
		_, err = io.WriteString(cmd.OutOrStdout(), render.Text(ctx, sheet, styles))
		return err
	}
	return render.Sheet(ctx, cmd.OutOrStdout(), sheet, f)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	format := strings.ToLower(v.GetString("format"))
	id := v.GetInt64("assignment")

	if format == "json" {
		var export any
		if id == 0 {
			all, err := db.ExportAll(ctx)
			if err != nil {
				return fmt.Errorf("export assignments: %w", err)
			}
			export = all
		} else {
			a, err := db.Load(ctx, id)
			if err != nil {
				return err
			}
			export = model.ExportAssignment(a)
		}
		return writeJSON(cmd, v.GetString("output"), export)
	}

	if id == 0 {
		return fmt.Errorf("--assignment is required for format %s", format)
	}
	a, err := db.Load(ctx, id)
	if err != nil {
		return err
	}
	outDir := v.GetString("out-dir")
	w := cmd.OutOrStdout()

	if format == "emark" {
		path := filepath.Join(outDir, store.FileName(a))
		if err := store.WriteFile(path, a); err != nil {
			return err
		}
		fmt.Fprintln(w, path)
		return nil
	}

	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	if student := v.GetString("student"); student != "" {
		sheet, err := a.SheetFor(student)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", outDir, err)
		}
		path, err := render.WriteSheet(ctx, outDir, sheet, f)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)
		return nil
	}
	dir, n, err := render.WriteAll(ctx, a, outDir, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%d\n", dir, n)
	return nil
}

func writeJSON(cmd *cobra.Command, outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	_, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, path := range args {
		a, err := store.ReadFile(path)
		if err != nil {
			return err
		}
		id, err := db.Save(ctx, a)
		if err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		slog.Info("imported assignment", "path", path, "id", id)
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s %s\n", id, a.Course, a.Title)
	}
	return nil
}
