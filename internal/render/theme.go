package render

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
)

// Styles used by the terminal views. Only single lines are styled.
type Styles struct {
	Header    lipgloss.Style
	Rule      lipgloss.Style
	Heading   lipgloss.Style
	Mark      lipgloss.Style
	Deduction lipgloss.Style
	Note      lipgloss.Style
	WellDone  lipgloss.Style
	Error     lipgloss.Style
	Menu      lipgloss.Style

	plain bool
}

// DefaultStyles returns the colored theme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Rule:      lipgloss.NewStyle().Foreground(colorDim),
		Heading:   lipgloss.NewStyle().Bold(true),
		Mark:      lipgloss.NewStyle().Foreground(colorPrimary),
		Deduction: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Note:      lipgloss.NewStyle().Foreground(colorDim).Italic(true),
		WellDone:  lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(colorError),
		Menu:      lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	return Styles{plain: true}
}

// Apply renders a single line with st, or returns it unchanged for plain
// styles.
func (s Styles) Apply(st lipgloss.Style, line string) string {
	if s.plain {
		return line
	}
	return st.Render(line)
}
