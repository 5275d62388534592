package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StylishFormatter renders results grouped by file, one indented line per
// finding, followed by a summary. Colors follow the writer's terminal profile.
type StylishFormatter struct {
	file    lipgloss.Style
	pos     lipgloss.Style
	errStr  lipgloss.Style
	warnStr lipgloss.Style
	rule    lipgloss.Style
}

// NewStylishFormatter creates a formatter for w.
func NewStylishFormatter(w io.Writer) *StylishFormatter {
	r := lipgloss.NewRenderer(w)
	return &StylishFormatter{
		file:    r.NewStyle().Underline(true),
		pos:     r.NewStyle().Faint(true),
		errStr:  r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		warnStr: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		rule:    r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
	}
}

// Format writes result to w. Nothing is written for a clean result.
func (f *StylishFormatter) Format(w io.Writer, result *Result) error {
	issues := result.Issues()
	if len(issues) == 0 {
		return nil
	}

	var b strings.Builder
	current := ""
	for _, issue := range issues {
		if issue.File != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = issue.File
			b.WriteString(f.file.Render(issue.File) + "\n")
		}
		pos := fmt.Sprintf("line %d  col %d", issue.Line, issue.Column)
		sev := f.warnStr.Render("warning")
		if issue.Severity == SeverityError {
			sev = f.errStr.Render("error")
		}
		line := fmt.Sprintf("  %s  %s  %s", f.pos.Render(pos), sev, issue.Message)
		if issue.Rule != "" {
			line += "  " + f.rule.Render(issue.Rule)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if n := result.ErrorCount(); n > 0 {
		b.WriteString(f.errStr.Render(fmt.Sprintf("✖  %d error%s", n, pluralize(n))) + "\n")
	}
	if n := result.WarningCount(); n > 0 {
		b.WriteString(f.warnStr.Render(fmt.Sprintf("⚠  %d warning%s", n, pluralize(n))) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
