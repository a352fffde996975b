package model

// AssignmentExport is the top-level JSON structure for grade export.
type AssignmentExport struct {
	Course    string          `json:"course"`
	Title     string          `json:"title"`
	OutOf     float64         `json:"out_of"`
	Questions []Question      `json:"questions"`
	Results   []StudentResult `json:"results"`
}

// StudentResult holds one student's marks for export.
type StudentResult struct {
	Student   string           `json:"student"`
	Total     float64          `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question data for export.
type QuestionResult struct {
	Question string          `json:"question"`
	Mark     float64         `json:"mark"`
	OutOf    float64         `json:"out_of"`
	Comments []CommentResult `json:"comments"`
}

// CommentResult is a single applied comment in an export.
type CommentResult struct {
	ID        int64   `json:"id"`
	Deduction float64 `json:"deduction"`
	Text      string  `json:"text"`
}

// ExportAssignment builds export-ready results for every student.
func ExportAssignment(a *Assignment) AssignmentExport {
	out := AssignmentExport{
		Course:    a.Course,
		Title:     a.Title,
		OutOf:     a.OutOf(),
		Questions: a.Questions(),
		Results:   make([]StudentResult, 0, a.NumStudents()),
	}
	for _, s := range a.Students() {
		out.Results = append(out.Results, ExportSheet(a.sheetFor(s)))
	}
	return out
}

// ExportSheet converts a grade sheet into its export form.
func ExportSheet(sheet GradeSheet) StudentResult {
	res := StudentResult{
		Student:   sheet.Student,
		Total:     sheet.Total,
		Questions: make([]QuestionResult, 0, len(sheet.Questions)),
	}
	for _, qs := range sheet.Questions {
		qr := QuestionResult{
			Question: qs.Question.Label(),
			Mark:     qs.Mark,
			OutOf:    qs.Question.OutOf,
			Comments: make([]CommentResult, 0, len(qs.Comments)),
		}
		for _, c := range qs.Comments {
			qr.Comments = append(qr.Comments, CommentResult{ID: c.ID, Deduction: c.Deduction, Text: c.Text})
		}
		res.Questions = append(res.Questions, qr)
	}
	return res
}
