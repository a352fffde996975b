package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/easymark/internal/model"
	"github.com/pavelanni/easymark/internal/store"
)

func run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	root := rootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(stdin, args...)
	require.NoError(t, err, "easymark %v\n%s", args, out)
	return out
}

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		in      string
		num     int
		part    int
		outOf   float64
		wantErr bool
	}{
		{"1.1=5", 1, 1, 5, false},
		{"2.3=7.5", 2, 3, 7.5, false},
		{" 3.1 = 10 ", 3, 1, 10, false},
		{"1.1", 0, 0, 0, true},
		{"1=5", 0, 0, 0, true},
		{"a.1=5", 0, 0, 0, true},
		{"1.1=five", 0, 0, 0, true},
		{"1.1=inf", 0, 0, 0, true},
		{"1.1=-Inf", 0, 0, 0, true},
		{"1.1=NaN", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			num, part, outOf, err := parseQuestion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.num, num)
			assert.Equal(t, tt.part, part)
			assert.Equal(t, tt.outOf, outOf)
		})
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "easymark.db")

	out := execute(t, "", "new", "--db", db, "--title", "Assignment 5", "--course", "CS 1000",
		"-q", "1.1=5", "-q", "1.2=5", "-q", "2.1=10")
	require.Equal(t, "1\tCS 1000 Assignment 5\t20 marks\n", out)

	execute(t, "", "add-student", "--db", db, "-a", "1", "Newton", "Einstein")

	out = execute(t, "", "list", "--db", db)
	assert.Contains(t, out, "1\tCS 1000\tAssignment 5\t2\t3\t20\n")

	// Grade Einstein directly through the store.
	st, err := store.New(db)
	require.NoError(t, err)
	ctx := context.Background()
	a, err := st.Load(ctx, 1)
	require.NoError(t, err)
	q11, _ := a.Question(1, 1)
	_, err = a.AddComment("Einstein", q11, 3, "Amateurish work")
	require.NoError(t, err)
	_, err = st.Save(ctx, a)
	require.NoError(t, err)
	st.Close()

	out = execute(t, "", "sheet", "--db", db, "-a", "1", "-s", "Einstein", "-f", "latex")
	assert.Contains(t, out, `\textbf{Score: 17/20}`)
	out = execute(t, "", "sheet", "--db", db, "-a", "1", "-s", "Newton", "--plain")
	assert.Contains(t, out, "Total: 20/20")

	out = execute(t, "", "export", "--db", db, "-a", "1", "-f", "json")
	var export model.AssignmentExport
	require.NoError(t, json.Unmarshal([]byte(out), &export), out)
	assert.Equal(t, 20.0, export.OutOf)
	require.Len(t, export.Results, 2)
	assert.Equal(t, 17.0, export.Results[1].Total)

	out = execute(t, "", "export", "--db", db, "-f", "json")
	var all []model.AssignmentExport
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all, 1)

	sheets := filepath.Join(dir, "sheets")
	execute(t, "", "export", "--db", db, "-a", "1", "-f", "html", "--out-dir", sheets)
	assert.FileExists(t, filepath.Join(sheets, "CS_1000_Assignment_5_html", "Einstein_17.html"))
	execute(t, "", "export", "--db", db, "-a", "1", "-f", "latex", "-s", "Newton", "--out-dir", sheets)
	assert.FileExists(t, filepath.Join(sheets, "Newton_20.tex"))

	out = execute(t, "", "export", "--db", db, "-a", "1", "-f", "emark", "--out-dir", dir)
	emark := filepath.Join(dir, "CS_1000_Assignment_5.emark")
	assert.Equal(t, emark, strings.TrimSpace(out))

	other := filepath.Join(dir, "other.db")
	out = execute(t, "", "import", "--db", other, emark)
	assert.Equal(t, "1\tCS 1000 Assignment 5\n", out)
	out = execute(t, "", "sheet", "--db", other, "-a", "1", "-s", "Einstein", "-f", "json")
	var res model.StudentResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 17.0, res.Total)
}

func TestGradeDefaultCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "easymark.db")
	execute(t, "", "new", "--db", db, "--title", "Quiz", "--course", "MATH 1", "-q", "1.1=4")

	// Open the assignment, add a student and quit on end of input.
	out := execute(t, "2\nAda\n", "--db", db, "--plain", "-a", "1")
	assert.Contains(t, out, "MATH 1 Quiz Grading")

	st, err := store.New(db)
	require.NoError(t, err)
	defer st.Close()
	a, err := st.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, a.StudentExists("Ada"))
}

func TestNewRejectsDuplicate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "easymark.db")
	execute(t, "", "new", "--db", db, "--title", "Quiz", "--course", "MATH 1", "-q", "1.1=4")

	_, err := run("", "new", "--db", db, "--title", "Quiz", "--course", "MATH 1", "-q", "1.1=4")
	assert.ErrorContains(t, err, "already exists")
}

func TestNewRejectsInfiniteMarks(t *testing.T) {
	db := filepath.Join(t.TempDir(), "easymark.db")
	_, err := run("", "new", "--db", db, "--title", "Quiz", "--course", "MATH 1", "-q", "1.1=inf")
	assert.ErrorContains(t, err, "finite")

	out := execute(t, "", "list", "--db", db)
	assert.Equal(t, "ID\tCOURSE\tTITLE\tSTUDENTS\tQUESTIONS\tOUT OF\n", out)
}

func TestDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "easymark.db")
	execute(t, "", "new", "--db", db, "--title", "Quiz", "--course", "MATH 1", "-q", "1.1=4")
	execute(t, "", "new", "--db", db, "--title", "Test", "--course", "MATH 1", "-q", "1.1=6")

	out := execute(t, "", "delete", "--db", db, "-a", "1")
	assert.Equal(t, "1 assignments left\n", out)

	out = execute(t, "", "list", "--db", db)
	assert.NotContains(t, out, "Quiz")
	assert.Contains(t, out, "2\tMATH 1\tTest")

	_, err := run("", "delete", "--db", db, "-a", "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnsupportedLanguage(t *testing.T) {
	db := filepath.Join(t.TempDir(), "easymark.db")
	_, err := run("", "list", "--db", db, "--lang", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported language "fr"`)
	assert.Contains(t, err.Error(), "en")
	assert.Contains(t, err.Error(), "ru")
}
