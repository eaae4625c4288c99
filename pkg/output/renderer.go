package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Renderer writes reports in one format
type Renderer interface {
	// Render writes a build or check report
	Render(r *Report) error
	// RenderError writes an error that aborted a command
	RenderError(err error) error
	// RenderMessage writes a one-line message
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto inspects w when
// it is a file and falls back to text otherwise.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if f, ok := w.(*os.File); ok {
			return NewRenderer(DetectFormat(f), w)
		}
		return NewRenderer(FormatText, w)
	case FormatTerminal:
		return newTerminalRenderer(w), nil
	case FormatText:
		return &textRenderer{w: w}, nil
	case FormatJSON:
		return newJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}

// humanSize formats a byte count
func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func summary(r *Report) string {
	errs, warnings := r.counts()
	verb := "succeeded"
	if r.Failed {
		verb = "failed"
	}
	s := fmt.Sprintf("%s %s in %s", r.Command, verb, r.Duration.Round(time.Millisecond))
	if r.DryRun {
		s += " (dry run)"
	}
	return fmt.Sprintf("%s: %d modules, %d errors, %d warnings", s, r.Stats.Modules, errs, warnings)
}

func findingLine(f Finding) string {
	if f.diag.Location.Path != "" {
		return f.diag.String()
	}
	line := fmt.Sprintf("%s: %s", f.Severity, f.Message)
	if f.Source != "" {
		line += " [" + f.Source + "]"
	}
	return line
}
