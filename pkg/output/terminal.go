package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/kiln/pkg/output/styles"
	"github.com/arthur-debert/kiln/pkg/types"
)

// terminalRenderer writes reports styled for a color terminal
type terminalRenderer struct {
	w      io.Writer
	styles styles.Registry
}

func newTerminalRenderer(w io.Writer) *terminalRenderer {
	return &terminalRenderer{w: w, styles: styles.Build(lipgloss.NewRenderer(w))}
}

func (t *terminalRenderer) severityStyle(s types.Severity) lipgloss.Style {
	switch s {
	case types.SeverityFatal:
		return t.styles.Get("Fatal")
	case types.SeverityError:
		return t.styles.Get("Error")
	case types.SeverityWarning:
		return t.styles.Get("Warning")
	default:
		return t.styles.Get("Info")
	}
}

func (t *terminalRenderer) Render(r *Report) error {
	var b strings.Builder
	indent := t.styles.Get("Indent")

	if len(r.Diagnostics) > 0 {
		b.WriteString(t.styles.Get("Header").Render("Diagnostics") + "\n")
		for _, f := range r.Diagnostics {
			line := t.severityStyle(f.diag.Severity).Render(f.Severity) + " " + f.Message
			if f.diag.Location.Path != "" {
				line = t.styles.Get("Path").Render(f.diag.Location.String()) + " " + line
			}
			if f.Source != "" {
				line += " " + t.styles.Get("Muted").Render("["+f.Source+"]")
			}
			b.WriteString(indent.Render(line) + "\n")
		}
	}

	if len(r.Artifacts) > 0 {
		b.WriteString(t.styles.Get("Header").Render("Artifacts") + "\n")
		for _, a := range r.Artifacts {
			b.WriteString(indent.Render(t.styles.Get("Size").Render(humanSize(a.Size))+"  "+a.Path) + "\n")
		}
	}

	if r.Error != "" {
		b.WriteString(t.styles.Get("Failure").Render("Error:") + " " + r.Error + "\n")
	}

	status := t.styles.Get("Success")
	if r.Failed {
		status = t.styles.Get("Failure")
	}
	b.WriteString("\n" + status.Render(summary(r)) + "\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *terminalRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(t.w, t.styles.Get("Failure").Render("Error:")+" "+err.Error())
	return werr
}

func (t *terminalRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(t.w, t.styles.Get("Info").Render(msg))
	return err
}
