package model

import (
	"encoding/json"
	"fmt"
)

type assignmentJSON struct {
	Title     string         `json:"title"`
	Course    string         `json:"course"`
	Students  []string       `json:"students"`
	Questions []questionJSON `json:"questions"`
	NextID    int64          `json:"next_id"`
}

type questionJSON struct {
	Question Question      `json:"question"`
	Comments []commentJSON `json:"comments"`
}

type commentJSON struct {
	ID        int64    `json:"id"`
	Deduction float64  `json:"deduction"`
	Text      string   `json:"text"`
	Names     []string `json:"names"`
}

// MarshalJSON encodes the full assignment state, including the comment id
// counter.
func (a *Assignment) MarshalJSON() ([]byte, error) {
	out := assignmentJSON{
		Title:     a.Title,
		Course:    a.Course,
		Students:  a.Students(),
		Questions: make([]questionJSON, 0, len(a.questions)),
		NextID:    a.nextID,
	}
	if out.Students == nil {
		out.Students = []string{}
	}
	for _, qc := range a.questions {
		qj := questionJSON{Question: qc.question, Comments: make([]commentJSON, 0, len(qc.comments))}
		for _, c := range qc.comments {
			qj.Comments = append(qj.Comments, commentJSON{
				ID:        c.ID,
				Deduction: c.Deduction,
				Text:      c.Text,
				Names:     c.Names(),
			})
		}
		out.Questions = append(out.Questions, qj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an assignment written by MarshalJSON and checks
// every invariant before replacing the receiver's state.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var in assignmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	restored, err := in.build()
	if err != nil {
		return err
	}
	*a = *restored
	return nil
}

func (in assignmentJSON) build() (*Assignment, error) {
	b := NewRestorer(in.Title, in.Course, in.NextID)
	for _, s := range in.Students {
		b.Student(s)
	}
	for _, qj := range in.Questions {
		b.Question(qj.Question)
		for _, cj := range qj.Comments {
			b.Comment(qj.Question, cj.ID, cj.Deduction, cj.Text, cj.Names)
		}
	}
	return b.Build()
}

// Restorer rebuilds an assignment from persisted parts, keeping comment ids
// and the id counter as stored. Errors are collected and reported by Build.
type Restorer struct {
	a   *Assignment
	ids map[int64]bool
	err error
}

// NewRestorer starts rebuilding an assignment whose next comment id is nextID.
func NewRestorer(title, course string, nextID int64) *Restorer {
	a := NewAssignment(title, course)
	a.nextID = nextID
	return &Restorer{a: a, ids: make(map[int64]bool)}
}

func (r *Restorer) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]any{ErrCorruptAssignment}, args...)...)
	}
}

// Student restores a student.
func (r *Restorer) Student(name string) {
	if r.err != nil {
		return
	}
	if err := r.a.AddStudent(name); err != nil {
		r.fail("%v", err)
	}
}

// Question restores a question part.
func (r *Restorer) Question(q Question) {
	if r.err != nil {
		return
	}
	if err := r.a.AddQuestion(q.Num, q.Part, q.OutOf); err != nil {
		r.fail("%v", err)
	}
}

// Comment restores a comment with its stored id under q.
func (r *Restorer) Comment(q Question, id int64, deduction float64, text string, names []string) {
	if r.err != nil {
		return
	}
	qc := r.a.find(q)
	switch {
	case qc == nil:
		r.fail("comment %d on unknown question %s", id, q.Label())
		return
	case r.ids[id]:
		r.fail("duplicate comment id %d", id)
		return
	case id < 0 || id >= r.a.nextID:
		r.fail("comment id %d outside counter %d", id, r.a.nextID)
		return
	case len(names) == 0:
		r.fail("comment %d has no students", id)
		return
	}
	if err := checkDeduction(deduction); err != nil {
		r.fail("comment %d: %v", id, err)
		return
	}
	c := &Comment{ID: id, Deduction: deduction, Text: text, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if !r.a.StudentExists(n) {
			r.fail("comment %d names unknown student %q", id, n)
			return
		}
		if err := c.AddStudent(n); err != nil {
			r.fail("%v", err)
			return
		}
	}
	r.ids[id] = true
	qc.comments = append(qc.comments, c)
}

// Build returns the restored assignment or the first error encountered.
func (r *Restorer) Build() (*Assignment, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.a, nil
}
