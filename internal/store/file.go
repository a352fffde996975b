package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pavelanni/easymark/internal/model"
)

// FileExt is the extension of portable assignment files.
const FileExt = ".emark"

// FileName returns the portable file name of an assignment:
// "<course>_<title>.emark" with spaces replaced by underscores.
func FileName(a *model.Assignment) string {
	return strings.ReplaceAll(a.Course+"_"+a.Title+FileExt, " ", "_")
}

// WriteFile saves an assignment as JSON to path.
func WriteFile(path string, a *model.Assignment) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads an assignment written by WriteFile.
func ReadFile(path string) (*model.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var a model.Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &a, nil
}

// FindFiles lists the assignment files in dir, sorted by name.
func FindFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FileExt {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
