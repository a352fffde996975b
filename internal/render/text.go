package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/model"
)

const (
	sheetRule    = "================================================================"
	questionRule = "--------------------------------------"
)

// CommentLine formats a comment for menus and terminal sheets.
func CommentLine(c model.Comment) string {
	return fmt.Sprintf("[-%s]\n   %s", Num(c.Deduction), c.Text)
}

// Text renders a grade sheet for the terminal.
func Text(ctx context.Context, sheet model.GradeSheet, st Styles) string {
	var b strings.Builder
	b.WriteString(st.Apply(st.Rule, sheetRule) + "\n")
	b.WriteString(st.Apply(st.Header, sheet.Course+" - "+sheet.Title) + "\n")
	b.WriteString(st.Apply(st.Heading, sheet.Student) + "\n")
	total := i18n.Td(ctx, "SheetTotal", map[string]any{"Total": Num(sheet.Total), "OutOf": Num(sheet.OutOf)})
	b.WriteString(st.Apply(st.Mark, total) + "\n\n")
	for _, qs := range sheet.Questions {
		b.WriteString(QuestionText(ctx, qs, st))
	}
	b.WriteString(st.Apply(st.Rule, sheetRule) + "\n\n")
	return b.String()
}

// QuestionText renders one question of a grade sheet: heading, grade and
// either the comments or the well-done banner.
func QuestionText(ctx context.Context, qs model.QuestionSheet, st Styles) string {
	var b strings.Builder
	b.WriteString(st.Apply(st.Rule, questionRule) + "\n")
	b.WriteString(st.Apply(st.Heading, i18n.Td(ctx, "QuestionHeading", map[string]any{"Label": qs.Question.Label()})) + "\n")
	grade := i18n.Td(ctx, "QuestionGrade", map[string]any{"Mark": Num(qs.Mark), "OutOf": Num(qs.Question.OutOf)})
	b.WriteString(st.Apply(st.Mark, grade) + "\n\n")
	if qs.WellDone() {
		b.WriteString(st.Apply(st.WellDone, "** "+i18n.T(ctx, "WellDone")+" **") + "\n")
	} else {
		for _, c := range qs.Comments {
			label := st.Deduction
			if c.Deduction == 0 {
				label = st.Note
			}
			b.WriteString(st.Apply(label, "[-"+Num(c.Deduction)+"]") + "\n   " + c.Text + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
