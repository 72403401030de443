// Package report renders check outcomes: one violation per line followed by
// a count-and-verdict line.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/roadmap-gate/internal/readiness"
)

// Report is the outcome of one named check run.
type Report struct {
	// Name prefixes the verdict line, e.g. "milestone dependency checks".
	Name string
	// Detail is appended to the success line when set.
	Detail     string
	Violations []error
}

// IsValid reports whether no violation was found.
func (r *Report) IsValid() bool {
	return len(r.Violations) == 0
}

// Summary is the final count-and-verdict line.
func (r *Report) Summary() string {
	if !r.IsValid() {
		return fmt.Sprintf("%s failed with %d error(s)", r.Name, len(r.Violations))
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s passed (%s)", r.Name, r.Detail)
	}
	return r.Name + " passed"
}

// Lines returns the violation lines followed by the summary.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Violations)+1)
	for _, violation := range r.Violations {
		lines = append(lines, violation.Error())
	}
	return append(lines, r.Summary())
}

var (
	colorPass    = lipgloss.Color("#2CD7C7")
	colorFail    = lipgloss.Color("#E74C3C")
	colorWarning = lipgloss.Color("#F4D03F")
)

type styles struct {
	pass    lipgloss.Style
	fail    lipgloss.Style
	warning lipgloss.Style
}

// Printer writes reports to w. Styling only applies when color is enabled
// and w is a terminal, so piped output is plain text.
type Printer struct {
	w      io.Writer
	color  bool
	styles styles
}

// NewPrinter builds a printer for w.
func NewPrinter(w io.Writer, color bool) *Printer {
	renderer := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		color: color,
		styles: styles{
			pass:    renderer.NewStyle().Bold(true).Foreground(colorPass),
			fail:    renderer.NewStyle().Bold(true).Foreground(colorFail),
			warning: renderer.NewStyle().Foreground(colorWarning),
		},
	}
}

// Print writes one report.
func (p *Printer) Print(r *Report) error {
	for _, violation := range r.Violations {
		if _, err := fmt.Fprintln(p.w, violation.Error()); err != nil {
			return err
		}
	}
	style := p.styles.pass
	if !r.IsValid() {
		style = p.styles.fail
	}
	_, err := fmt.Fprintln(p.w, p.render(style, r.Summary()))
	return err
}

// PrintProgram writes one line per dimension row, the blocking reasons and
// the program verdict.
func (p *Printer) PrintProgram(program readiness.Program) error {
	for _, row := range program.Rows {
		line := fmt.Sprintf("%s: %s", row.ID, row.Status)
		style := p.styles.warning
		if row.Status == readiness.Ready {
			style = p.styles.pass
		}
		if _, err := fmt.Fprintln(p.w, p.render(style, line)); err != nil {
			return err
		}
	}
	for _, reason := range program.BlockingReasons {
		if _, err := fmt.Fprintln(p.w, reason); err != nil {
			return err
		}
	}
	style := p.styles.pass
	if !program.Passed() {
		style = p.styles.fail
	}
	_, err := fmt.Fprintln(p.w, p.render(style, ProgramSummary(program)))
	return err
}

// ProgramSummary is the verdict line of a readiness run.
func ProgramSummary(program readiness.Program) string {
	return fmt.Sprintf("program readiness: %s (%d/%d mandatory dimensions ready)",
		program.Result, program.ReadyDimensions, program.TargetDimensions)
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}
