package output

import (
	"fmt"
	"io"
)

// textRenderer writes plain lines
type textRenderer struct {
	w io.Writer
}

func (t *textRenderer) Render(r *Report) error {
	for _, f := range r.Diagnostics {
		if _, err := fmt.Fprintln(t.w, findingLine(f)); err != nil {
			return err
		}
	}
	for _, a := range r.Artifacts {
		if _, err := fmt.Fprintf(t.w, "%s\t%s\n", a.Path, humanSize(a.Size)); err != nil {
			return err
		}
	}
	if r.Error != "" {
		if _, err := fmt.Fprintf(t.w, "error: %s\n", r.Error); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(t.w, summary(r))
	return err
}

func (t *textRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(t.w, "error: %v\n", err)
	return werr
}

func (t *textRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(t.w, msg)
	return err
}
