package model

import (
	"fmt"
	"math"
)

// Assignment holds the students, question parts and shared comments of one
// grading exercise, and computes marks from them.
type Assignment struct {
	Title  string
	Course string

	students  []string
	questions []questionComments
	nextID    int64
}

type questionComments struct {
	question Question
	comments []*Comment
}

// NewAssignment returns an empty assignment.
func NewAssignment(title, course string) *Assignment {
	return &Assignment{Title: title, Course: course}
}

// NextID returns the id the next created comment will receive.
func (a *Assignment) NextID() int64 {
	return a.nextID
}

// NumStudents returns the number of students.
func (a *Assignment) NumStudents() int {
	return len(a.students)
}

// StudentExists reports whether a student with the name was added.
func (a *Assignment) StudentExists(name string) bool {
	for _, s := range a.students {
		if s == name {
			return true
		}
	}
	return false
}

// StudentAt returns the student at index i in insertion order.
func (a *Assignment) StudentAt(i int) (string, error) {
	if i < 0 || i >= len(a.students) {
		return "", fmt.Errorf("%w: student %d of %d", ErrIndexOutOfRange, i, len(a.students))
	}
	return a.students[i], nil
}

// Students returns a copy of the student list.
func (a *Assignment) Students() []string {
	return append([]string(nil), a.students...)
}

// AddStudent appends a student.
func (a *Assignment) AddStudent(name string) error {
	if a.StudentExists(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateStudent, name)
	}
	a.students = append(a.students, name)
	return nil
}

// NumQuestions returns the number of question parts.
func (a *Assignment) NumQuestions() int {
	return len(a.questions)
}

// QuestionExists reports whether a question with the same number and part
// was added.
func (a *Assignment) QuestionExists(q Question) bool {
	return a.find(q) != nil
}

// Question returns the stored question for num.part.
func (a *Assignment) Question(num, part int) (Question, bool) {
	qc := a.find(Question{Num: num, Part: part})
	if qc == nil {
		return Question{}, false
	}
	return qc.question, true
}

// QuestionAt returns the question at index i in insertion order.
func (a *Assignment) QuestionAt(i int) (Question, error) {
	if i < 0 || i >= len(a.questions) {
		return Question{}, fmt.Errorf("%w: question %d of %d", ErrIndexOutOfRange, i, len(a.questions))
	}
	return a.questions[i].question, nil
}

// Questions returns the questions in insertion order.
func (a *Assignment) Questions() []Question {
	qs := make([]Question, 0, len(a.questions))
	for _, qc := range a.questions {
		qs = append(qs, qc.question)
	}
	return qs
}

// AddQuestion appends a question part. The list is not re-sorted, so
// callers add parts in display order.
func (a *Assignment) AddQuestion(num, part int, outOf float64) error {
	q := Question{Num: num, Part: part, OutOf: outOf}
	if err := q.validate(); err != nil {
		return err
	}
	if a.QuestionExists(q) {
		return fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.Label())
	}
	a.questions = append(a.questions, questionComments{question: q})
	return nil
}

func (a *Assignment) find(q Question) *questionComments {
	for i := range a.questions {
		if a.questions[i].question.Same(q) {
			return &a.questions[i]
		}
	}
	return nil
}

func (a *Assignment) mustFind(q Question) (*questionComments, error) {
	qc := a.find(q)
	if qc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, q.Label())
	}
	return qc, nil
}

func (qc *questionComments) comment(id int64) (int, *Comment, error) {
	for i, c := range qc.comments {
		if c.ID == id {
			return i, c, nil
		}
	}
	return -1, nil, fmt.Errorf("%w: %d on question %s", ErrUnknownComment, id, qc.question.Label())
}

// AddComment creates a new comment on q for the student and returns its id.
// Identical existing comments are not reused; see AddToComment.
func (a *Assignment) AddComment(student string, q Question, deduction float64, text string) (int64, error) {
	qc, err := a.mustFind(q)
	if err != nil {
		return 0, err
	}
	if !a.StudentExists(student) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStudent, student)
	}
	if err := checkDeduction(deduction); err != nil {
		return 0, err
	}
	id := a.nextID
	a.nextID++
	qc.comments = append(qc.comments, NewComment(id, deduction, text, student))
	return id, nil
}

// AddToComment attaches the student to an existing comment on q.
func (a *Assignment) AddToComment(student string, q Question, id int64) error {
	qc, err := a.mustFind(q)
	if err != nil {
		return err
	}
	_, c, err := qc.comment(id)
	if err != nil {
		return err
	}
	if !a.StudentExists(student) {
		return fmt.Errorf("%w: %q", ErrUnknownStudent, student)
	}
	return c.AddStudent(student)
}

// RemoveFromComment detaches the student from a comment on q. A comment
// left without students is deleted; its id is never handed out again.
func (a *Assignment) RemoveFromComment(student string, q Question, id int64) error {
	qc, err := a.mustFind(q)
	if err != nil {
		return err
	}
	i, c, err := qc.comment(id)
	if err != nil {
		return err
	}
	c.RemoveStudent(student)
	if c.Empty() {
		qc.comments = append(qc.comments[:i], qc.comments[i+1:]...)
	}
	return nil
}

// EditComment changes the deduction and text of a comment for every
// student attached to it.
func (a *Assignment) EditComment(q Question, id int64, deduction float64, text string) error {
	qc, err := a.mustFind(q)
	if err != nil {
		return err
	}
	_, c, err := qc.comment(id)
	if err != nil {
		return err
	}
	if err := checkDeduction(deduction); err != nil {
		return err
	}
	c.Deduction = deduction
	c.Text = text
	return nil
}

// Comments returns snapshots of every comment on q in list order.
func (a *Assignment) Comments(q Question) []Comment {
	return a.filterComments(q, func(*Comment) bool { return true })
}

// StudentsCommentsFor returns snapshots of the comments on q that apply to
// the student, in list order.
func (a *Assignment) StudentsCommentsFor(student string, q Question) []Comment {
	return a.filterComments(q, func(c *Comment) bool { return c.HasStudent(student) })
}

// UnusedCommentsFor returns snapshots of the comments on q that do not
// apply to the student.
func (a *Assignment) UnusedCommentsFor(student string, q Question) []Comment {
	return a.filterComments(q, func(c *Comment) bool { return !c.HasStudent(student) })
}

func (a *Assignment) filterComments(q Question, keep func(*Comment) bool) []Comment {
	qc := a.find(q)
	if qc == nil {
		return nil
	}
	var out []Comment
	for _, c := range qc.comments {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func checkDeduction(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDeduction, d)
	}
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDeduction, d)
	}
	return nil
}

// StudentsMarkFor returns the question's maximum minus the student's
// deductions on it, floored at zero. An unknown question scores zero.
func (a *Assignment) StudentsMarkFor(student string, q Question) float64 {
	qc := a.find(q)
	if qc == nil {
		return 0
	}
	return markFor(student, qc)
}

func markFor(student string, qc *questionComments) float64 {
	mark := qc.question.OutOf
	for _, c := range qc.comments {
		if c.HasStudent(student) {
			mark -= c.Deduction
		}
	}
	if mark < 0 {
		return 0
	}
	return mark
}

// StudentsTotal returns the sum of the student's marks over all questions.
func (a *Assignment) StudentsTotal(student string) float64 {
	var total float64
	for i := range a.questions {
		total += markFor(student, &a.questions[i])
	}
	return total
}

// OutOf returns the maximum total mark.
func (a *Assignment) OutOf() float64 {
	var total float64
	for _, qc := range a.questions {
		total += qc.question.OutOf
	}
	return total
}
