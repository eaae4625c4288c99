package topics

import (
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer formats raw topic content for display. ext is the topic
// file's extension, including the dot.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer shows topics unformatted
type PlainRenderer struct{}

// Render returns content unchanged
func (r *PlainRenderer) Render(content string, ext string) string {
	return content
}

// GlamourRenderer renders markdown topics with glamour. Other topics are
// shown unformatted.
type GlamourRenderer struct {
	// Style is a glamour style name or path. Empty selects the style from
	// the terminal background, or "notty" when NO_COLOR is set.
	Style string
	// Width wraps rendered text; 0 keeps glamour's default
	Width int

	once sync.Once
	term *glamour.TermRenderer
}

// NewGlamourRenderer creates a markdown renderer with automatic styling
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{}
}

func (r *GlamourRenderer) init() {
	var opts []glamour.TermRendererOption
	switch {
	case r.Style != "":
		opts = append(opts, glamour.WithStylePath(r.Style))
	case os.Getenv("NO_COLOR") != "":
		opts = append(opts, glamour.WithStandardStyle("notty"))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	if r.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(r.Width))
	}

	term, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return
	}
	r.term = term
}

// Render formats markdown content. Content is returned as-is when it is
// not markdown or glamour cannot render it.
func (r *GlamourRenderer) Render(content string, ext string) string {
	if ext != ".md" {
		return content
	}
	r.once.Do(r.init)
	if r.term == nil {
		return content
	}
	out, err := r.term.Render(content)
	if err != nil {
		return content
	}
	return out
}
