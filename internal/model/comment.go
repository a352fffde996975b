package model

import (
	"fmt"
	"sort"
)

// Comment is a deduction shared by every student in its name set.
type Comment struct {
	ID        int64
	Deduction float64
	Text      string
	names     map[string]struct{}
}

// NewComment creates a comment applied to a single student.
func NewComment(id int64, deduction float64, text, student string) *Comment {
	return &Comment{
		ID:        id,
		Deduction: deduction,
		Text:      text,
		names:     map[string]struct{}{student: {}},
	}
}

// HasStudent reports whether the comment applies to the student.
func (c *Comment) HasStudent(name string) bool {
	_, ok := c.names[name]
	return ok
}

// AddStudent attaches a student to the comment.
func (c *Comment) AddStudent(name string) error {
	if c.HasStudent(name) {
		return fmt.Errorf("%w: %q on comment %d", ErrStudentAttached, name, c.ID)
	}
	if c.names == nil {
		c.names = make(map[string]struct{})
	}
	c.names[name] = struct{}{}
	return nil
}

// RemoveStudent detaches a student. Removing an absent student does nothing.
func (c *Comment) RemoveStudent(name string) {
	delete(c.names, name)
}

// Empty reports whether no student is attached.
func (c *Comment) Empty() bool {
	return len(c.names) == 0
}

// NumStudents returns how many students the comment applies to.
func (c *Comment) NumStudents() int {
	return len(c.names)
}

// Names returns the attached students in sorted order.
func (c *Comment) Names() []string {
	names := make([]string, 0, len(c.names))
	for n := range c.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that shares no state with c.
func (c *Comment) Clone() Comment {
	cp := Comment{
		ID:        c.ID,
		Deduction: c.Deduction,
		Text:      c.Text,
		names:     make(map[string]struct{}, len(c.names)),
	}
	for n := range c.names {
		cp.names[n] = struct{}{}
	}
	return cp
}
