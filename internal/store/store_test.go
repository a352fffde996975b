package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/easymark/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestAssignment(t *testing.T) *model.Assignment {
	t.Helper()
	a := model.NewAssignment("Assignment 5", "CS 1000")
	for _, q := range []model.Question{{Num: 1, Part: 1, OutOf: 5}, {Num: 1, Part: 2, OutOf: 5}, {Num: 2, Part: 1, OutOf: 10}} {
		require.NoError(t, a.AddQuestion(q.Num, q.Part, q.OutOf))
	}
	for _, s := range []string{"Newton", "Einstein", "Curie"} {
		require.NoError(t, a.AddStudent(s))
	}
	q11, _ := a.Question(1, 1)
	q21, _ := a.Question(2, 1)
	mustAdd := func(student string, q model.Question, d float64, text string) int64 {
		id, err := a.AddComment(student, q, d, text)
		require.NoError(t, err)
		return id
	}
	first := mustAdd("Einstein", q11, 3, "Amateurish work")
	mustAdd("Curie", q11, 1, "On the right track")
	require.NoError(t, a.AddToComment("Newton", q11, first))
	gone := mustAdd("Newton", q21, 2, "Sign error")
	require.NoError(t, a.RemoveFromComment("Newton", q21, gone))
	mustAdd("Curie", q21, 0, "Lovely diagram")
	return a
}

// assertSameAssignment compares everything a round trip must preserve.
func assertSameAssignment(t *testing.T, want, got *model.Assignment) {
	t.Helper()
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Course, got.Course)
	assert.Equal(t, want.Students(), got.Students())
	assert.Equal(t, want.Questions(), got.Questions())
	assert.Equal(t, want.NextID(), got.NextID())
	for _, q := range want.Questions() {
		wc, gc := want.Comments(q), got.Comments(q)
		if !assert.Len(t, gc, len(wc), q.Label()) {
			continue
		}
		for i := range wc {
			assert.Equal(t, wc[i].ID, gc[i].ID)
			assert.Equal(t, wc[i].Deduction, gc[i].Deduction)
			assert.Equal(t, wc[i].Text, gc[i].Text)
			assert.Equal(t, wc[i].Names(), gc[i].Names(), "comment %d", wc[i].ID)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newTestAssignment(t)

	id, err := s.Save(ctx, a)
	require.NoError(t, err)

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assertSameAssignment(t, a, got)
	assert.Equal(t, a.StudentsTotal("Newton"), got.StudentsTotal("Newton"))
}

func TestSaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newTestAssignment(t)

	id, err := s.Save(ctx, a)
	require.NoError(t, err)

	require.NoError(t, a.AddStudent("Bohr"))
	q12, _ := a.Question(1, 2)
	_, err = a.AddComment("Bohr", q12, 1.5, "Missing units")
	require.NoError(t, err)

	id2, err := s.Save(ctx, a)
	require.NoError(t, err)
	require.Equal(t, id, id2)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.LoadByName(ctx, "CS 1000", "Assignment 5")
	require.NoError(t, err)
	assertSameAssignment(t, a, got)
}

func TestLoadNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LoadByName(ctx, "CS 1000", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindID(ctx, "CS 1000", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 42), ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	id, err := s.Save(ctx, newTestAssignment(t))
	require.NoError(t, err)
	other := model.NewAssignment("Lab 1", "PHYS 2000")
	require.NoError(t, other.AddQuestion(1, 1, 4))
	otherID, err := s.Save(ctx, other)
	require.NoError(t, err)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := map[int64]Summary{}
	for _, sum := range list {
		byID[sum.ID] = sum
	}
	sum := byID[id]
	assert.Equal(t, 3, sum.Students)
	assert.Equal(t, 3, sum.Questions)
	assert.Equal(t, 20.0, sum.OutOf)
	sum = byID[otherID]
	assert.Equal(t, "PHYS 2000", sum.Course)
	assert.Equal(t, 0, sum.Students)
	assert.Equal(t, 4.0, sum.OutOf)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Saving again after delete starts from a clean slate.
	_, err = s.Save(ctx, newTestAssignment(t))
	assert.NoError(t, err)
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetMetadata(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata(ctx, "k", "one"))
	require.NoError(t, s.SetMetadata(ctx, "k", "two"))
	v, err = s.GetMetadata(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	_, ok, err := s.LastAssignment(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLastAssignment(ctx, 7))
	id, ok, err := s.LastAssignment(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestExportAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Save(ctx, newTestAssignment(t))
	require.NoError(t, err)

	exports, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	exp := exports[0]
	assert.Equal(t, 20.0, exp.OutOf)
	require.Len(t, exp.Results, 3)
	// Newton: 5-3 on 1.1, full marks elsewhere.
	assert.Equal(t, "Newton", exp.Results[0].Student)
	assert.Equal(t, 17.0, exp.Results[0].Total)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := newTestAssignment(t)

	name := FileName(a)
	assert.Equal(t, "CS_1000_Assignment_5.emark", name)
	path := filepath.Join(dir, name)
	require.NoError(t, WriteFile(path, a))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assertSameAssignment(t, a, got)
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.emark")
	data := `{"title":"T","course":"C","students":["A","A"],"questions":[],"next_id":0}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, model.ErrCorruptAssignment)
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.emark", "a.emark", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.emark"), 0o755))

	files, err := FindFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.emark"), filepath.Join(dir, "b.emark")}, files)
}
