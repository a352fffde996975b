package model

import "fmt"

// GradeSheet is one student's marks and comments, in question order.
type GradeSheet struct {
	Course    string
	Title     string
	Student   string
	Total     float64
	OutOf     float64
	Questions []QuestionSheet
}

// QuestionSheet holds a student's mark and comments for one question.
type QuestionSheet struct {
	Question Question
	Mark     float64
	Comments []Comment
}

// WellDone reports whether the student lost nothing on the question.
func (qs QuestionSheet) WellDone() bool {
	return len(qs.Comments) == 0
}

// SheetFor builds the grade sheet of a student.
func (a *Assignment) SheetFor(student string) (GradeSheet, error) {
	if !a.StudentExists(student) {
		return GradeSheet{}, fmt.Errorf("%w: %q", ErrUnknownStudent, student)
	}
	return a.sheetFor(student), nil
}

func (a *Assignment) sheetFor(student string) GradeSheet {
	sheet := GradeSheet{
		Course:  a.Course,
		Title:   a.Title,
		Student: student,
		Total:   a.StudentsTotal(student),
		OutOf:   a.OutOf(),
	}
	for _, q := range a.Questions() {
		sheet.Questions = append(sheet.Questions, a.QuestionSheetFor(student, q))
	}
	return sheet
}

// QuestionSheetFor returns the student's mark and comments for q.
func (a *Assignment) QuestionSheetFor(student string, q Question) QuestionSheet {
	if stored, ok := a.Question(q.Num, q.Part); ok {
		q = stored
	}
	return QuestionSheet{
		Question: q,
		Mark:     a.StudentsMarkFor(student, q),
		Comments: a.StudentsCommentsFor(student, q),
	}
}
