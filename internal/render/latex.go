package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/model"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeLaTeX escapes the characters LaTeX treats specially.
func EscapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

func sheetTitle(ctx context.Context, sheet model.GradeSheet) string {
	return i18n.Td(ctx, "SheetTitle", map[string]any{"Course": sheet.Course, "Title": sheet.Title})
}

// LaTeX renders a grade sheet as a standalone LaTeX article.
func LaTeX(ctx context.Context, sheet model.GradeSheet) string {
	title := i18n.Td(ctx, "SheetTitle", map[string]any{
		"Course": EscapeLaTeX(sheet.Course),
		"Title":  EscapeLaTeX(sheet.Title),
	})
	return strings.Join([]string{
		`\documentclass{article}`,
		`\usepackage[utf8]{inputenc}`,
		`\usepackage{fullpage}`,
		`\usepackage{xcolor}`,
		fmt.Sprintf(`\title{%s}`, title),
		fmt.Sprintf(`\author{%s \\ \textbf{%s: %s/%s} }`,
			EscapeLaTeX(sheet.Student), i18n.T(ctx, "SheetScore"), Num(sheet.Total), Num(sheet.OutOf)),
		`\date{\today}`,
		`\begin{document}`,
		`\maketitle`,
		latexQuestions(ctx, sheet.Questions),
		`\end{document}`,
	}, "\n") + "\n"
}

func latexQuestions(ctx context.Context, questions []model.QuestionSheet) string {
	var b strings.Builder
	for _, qs := range questions {
		fmt.Fprintf(&b, "\n\\section*{%s -- %s/%s}\n", qs.Question.Label(), Num(qs.Mark), Num(qs.Question.OutOf))
		if qs.WellDone() {
			b.WriteString(i18n.T(ctx, "WellDone"))
			continue
		}
		b.WriteString(`\begin{description}`)
		for _, c := range qs.Comments {
			b.WriteString("\n")
			b.WriteString(LaTeXComment(ctx, c))
		}
		b.WriteString("\n" + `\end{description}`)
	}
	return b.String()
}

// LaTeXComment renders a comment as a description item. Deductions are
// shown in red; zero deductions are notes.
func LaTeXComment(ctx context.Context, c model.Comment) string {
	if c.Deduction > 0 {
		return fmt.Sprintf(`\item[\color{red}-%s] %s`, Num(c.Deduction), EscapeLaTeX(c.Text))
	}
	return fmt.Sprintf(`\item[%s] %s`, i18n.T(ctx, "Note"), EscapeLaTeX(c.Text))
}
