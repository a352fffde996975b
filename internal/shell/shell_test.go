package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/model"
	"github.com/pavelanni/easymark/internal/render"
	"github.com/pavelanni/easymark/internal/store"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func newShell(t *testing.T, repo Repository, in *strings.Reader, out *bytes.Buffer) *Shell {
	t.Helper()
	dir := t.TempDir()
	return New(in, out, repo, Config{OutDir: dir, FileDir: dir, Styles: render.PlainStyles()})
}

// seed saves an assignment with three questions, Newton and Einstein, and
// one comment for Einstein on 1.1.
func seed(t *testing.T, st *store.Store) int64 {
	t.Helper()
	a := model.NewAssignment("Assignment 5", "CS 1000")
	require.NoError(t, a.AddQuestion(1, 1, 5))
	require.NoError(t, a.AddQuestion(1, 2, 5))
	require.NoError(t, a.AddQuestion(2, 1, 10))
	require.NoError(t, a.AddStudent("Newton"))
	require.NoError(t, a.AddStudent("Einstein"))
	q11, _ := a.Question(1, 1)
	_, err := a.AddComment("Einstein", q11, 3, "Amateurish work")
	require.NoError(t, err)
	id, err := st.Save(context.Background(), a)
	require.NoError(t, err)
	return id
}

func TestNewAssignmentSession(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	var out bytes.Buffer
	in := script(
		"1",                              // new assignment
		"Assignment 5", "CS 1000", "2",   // name, course, questions
		"5", "5", "0",                    // question 1 parts
		"10", "0",                        // question 2 parts
		"2", "Newton",                    // add student
		"2", "Einstein",                  // add student
		"1", "2",                         // grade Einstein
		"1",                              // question 1.1
		"1", "3", "Amateurish work", "y", // add new comment
		"5", "6", "7",                    // back to main menu
		"4",                              // quit
	)
	require.NoError(t, newShell(t, st, in, &out).Run(ctx))

	a, err := st.LoadByName(ctx, "CS 1000", "Assignment 5")
	require.NoError(t, err)
	assert.Equal(t, []string{"Newton", "Einstein"}, a.Students())
	assert.Equal(t, 20.0, a.OutOf())
	q11, ok := a.Question(1, 1)
	require.True(t, ok)
	assert.Equal(t, 2.0, a.StudentsMarkFor("Einstein", q11))
	assert.Equal(t, 5.0, a.StudentsMarkFor("Newton", q11))
	assert.Equal(t, 17.0, a.StudentsTotal("Einstein"))

	comments := a.Comments(q11)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(0), comments[0].ID)
	assert.Contains(t, out.String(), "[-3]\n   Amateurish work")

	id, err := st.FindID(ctx, "CS 1000", "Assignment 5")
	require.NoError(t, err)
	last, ok, err := st.LastAssignment(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, last)
}

func TestAddExistingComment(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	var out bytes.Buffer
	in := script(
		"1", "1", // grade Newton
		"1",      // question 1.1
		"2", "1", // add existing comment
		"5", "6", "7",
	)
	require.NoError(t, newShell(t, st, in, &out).Open(ctx, id))

	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	q11, _ := a.Question(1, 1)
	assert.Equal(t, 2.0, a.StudentsMarkFor("Newton", q11))
	comments := a.Comments(q11)
	require.Len(t, comments, 1)
	assert.Equal(t, []string{"Einstein", "Newton"}, comments[0].Names())
}

func TestEditAndRemoveComment(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)

	// Share the comment with Newton first.
	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	q11, _ := a.Question(1, 1)
	require.NoError(t, a.AddToComment("Newton", q11, 0))
	_, err = st.Save(ctx, a)
	require.NoError(t, err)

	var out bytes.Buffer
	in := script(
		"1", "2",               // grade Einstein
		"1",                    // question 1.1
		"3", "1", "4", "", "y", // edit: new deduction, keep text
		"4", "1",               // remove from Einstein
		"5", "6", "7",
	)
	require.NoError(t, newShell(t, st, in, &out).Open(ctx, id))
	assert.Contains(t, out.String(), "Edit Comment *** For ALL Students ***")

	a, err = st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.StudentsMarkFor("Einstein", q11))
	assert.Equal(t, 1.0, a.StudentsMarkFor("Newton", q11))
	comments := a.Comments(q11)
	require.Len(t, comments, 1)
	assert.Equal(t, "Amateurish work", comments[0].Text)
	assert.Equal(t, []string{"Newton"}, comments[0].Names())
}

func TestRemoveLastStudentDeletesComment(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	var out bytes.Buffer
	in := script("1", "2", "1", "4", "1", "5", "6", "7")
	require.NoError(t, newShell(t, st, in, &out).Open(ctx, id))

	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	q11, _ := a.Question(1, 1)
	assert.Empty(t, a.Comments(q11))
	assert.Equal(t, int64(1), a.NextID())
}

func TestEndOfInput(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, newShell(t, testStore(t), strings.NewReader(""), &out).Run(context.Background()))
	assert.Contains(t, out.String(), "Easy Mark")
	assert.Contains(t, out.String(), "1. New Assignment")
}

func TestInputValidation(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	var out bytes.Buffer
	in := script(
		"9", "x",                   // bad menu choices
		"1", "Quiz", "", "MATH 1",  // empty course is rejected
		"0", "two", "1",            // number of questions
		"0", "-1", "abc", "4", "0", // at least one part
	)
	require.NoError(t, newShell(t, st, in, &out).Run(ctx))

	text := out.String()
	assert.Contains(t, text, "*** Choice must be from the menu ***")
	assert.Contains(t, text, "Input cannot be empty")
	assert.Contains(t, text, "Must have at least one question")
	assert.Contains(t, text, "Input must be a positive whole number")
	assert.Contains(t, text, "Must have at least 1 part")
	assert.Contains(t, text, "Marks must be 0 or greater")
	assert.Contains(t, text, "Must be a whole or decimal number")

	a, err := st.LoadByName(ctx, "MATH 1", "Quiz")
	require.NoError(t, err)
	assert.Equal(t, 4.0, a.OutOf())
	assert.Equal(t, 1, a.NumQuestions())
}

func TestDuplicateAssignmentAndStudent(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	var out bytes.Buffer
	in := script(
		"1", "Assignment 5", "CS 1000", // already saved
		"2", "1",                       // load it
		"2", "Newton",                  // duplicate student
		"7", "4",
	)
	require.NoError(t, newShell(t, st, in, &out).Run(ctx))
	assert.Contains(t, out.String(), "An assignment with that course and title already exists")
	assert.Contains(t, out.String(), "A student with that name has already been added")
	assert.Contains(t, out.String(), "1. CS 1000 Assignment 5 (2 students)")

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, a.NumStudents())
}

func TestNegativeDeductionReprompts(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	var out bytes.Buffer
	in := script("1", "1", "3", "1", "-2", "7", "Late", "y", "5", "6", "7")
	require.NoError(t, newShell(t, st, in, &out).Open(ctx, id))
	assert.Contains(t, out.String(), "Deductions must be 0 or greater")

	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	q21, _ := a.Question(2, 1)
	assert.Equal(t, 3.0, a.StudentsMarkFor("Newton", q21))
	// Marks never go below zero.
	_, err = a.AddComment("Newton", q21, 20, "Nothing correct")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.StudentsMarkFor("Newton", q21))
}

func TestNonFiniteDeductionReprompts(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	var out bytes.Buffer
	in := script("1", "1", "3", "1", "inf", "NaN", "-Inf", "7", "Late", "y", "5", "6", "7")
	require.NoError(t, newShell(t, st, in, &out).Open(ctx, id))
	assert.Equal(t, 3, strings.Count(out.String(), "Must be a whole or decimal number"))

	a, err := st.Load(ctx, id)
	require.NoError(t, err)
	q21, _ := a.Question(2, 1)
	assert.Equal(t, 3.0, a.StudentsMarkFor("Newton", q21))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Inf")
}

func TestNonFiniteMarksReprompt(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	var out bytes.Buffer
	in := script("1", "Quiz", "MATH 1", "1", "+Inf", "4", "0", "7", "4")
	require.NoError(t, newShell(t, st, in, &out).Run(ctx))
	assert.Contains(t, out.String(), "Must be a whole or decimal number")

	a, err := st.LoadByName(ctx, "MATH 1", "Quiz")
	require.NoError(t, err)
	assert.Equal(t, 4.0, a.OutOf())
}

func TestSaveAndImportFile(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	dir := t.TempDir()
	cfg := Config{OutDir: dir, FileDir: dir, Styles: render.PlainStyles()}

	var out bytes.Buffer
	require.NoError(t, New(script("6", "7"), &out, st, cfg).Open(ctx, id))
	path := filepath.Join(dir, "CS_1000_Assignment_5.emark")
	assert.FileExists(t, path)

	other := testStore(t)
	out.Reset()
	require.NoError(t, New(script("3", "1", "7", "4"), &out, other, cfg).Run(ctx))
	assert.Contains(t, out.String(), "Imported CS 1000 Assignment 5")

	a, err := other.LoadByName(ctx, "CS 1000", "Assignment 5")
	require.NoError(t, err)
	assert.Equal(t, 17.0, a.StudentsTotal("Einstein"))
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	id := seed(t, st)
	dir := t.TempDir()
	var out bytes.Buffer
	cfg := Config{OutDir: dir, Styles: render.PlainStyles()}
	require.NoError(t, New(script("4", "5", "3", "7"), &out, st, cfg).Open(ctx, id))

	assert.Contains(t, out.String(), "Wrote 2 grade sheets to")
	assert.FileExists(t, filepath.Join(dir, "CS_1000_Assignment_5_latex", "Einstein_17.tex"))
	assert.FileExists(t, filepath.Join(dir, "CS_1000_Assignment_5_html", "Newton_20.html"))
	assert.Contains(t, out.String(), "Total: 17/20")
}
