package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	cssImportRe = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]?([^'")\s;]+)['"]?`)
	cssURLRe    = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

	preprocessImportRe = regexp.MustCompile(`@(?:import|use|forward)\s+['"]([^'"\n]+)['"]`)
	lineCommentRe      = regexp.MustCompile(`(?m)^[ \t]*//.*$\n?`)
)

// cssStage discovers @import and url() references. Content passes through.
type cssStage struct{}

func (s *cssStage) Name() string { return "css" }

func (s *cssStage) Transform(_ context.Context, in Input) (Output, error) {
	if _, err := intOption(in.Options, "import_loaders", 0); err != nil {
		return Output{}, err
	}

	refs := findReferences(in.Content, []*regexp.Regexp{cssImportRe, cssURLRe}, 1, nil)
	deps := make([]string, 0, len(refs))
	for _, spec := range specifiers(refs) {
		if external(spec) {
			continue
		}
		deps = append(deps, styleSpecifier(spec))
	}
	return Output{Content: in.Content, Dependencies: deps}, nil
}

// preprocessStage stands in for a style preprocessor. It strips full-line
// `//` comments, which are not valid CSS, and discovers imports.
type preprocessStage struct {
	name string
	// flag is a boolean option the stage accepts and validates
	flag string
}

func (s *preprocessStage) Name() string { return s.name }

func (s *preprocessStage) Transform(_ context.Context, in Input) (Output, error) {
	if _, err := boolOption(in.Options, s.flag, false); err != nil {
		return Output{}, err
	}

	content := lineCommentRe.ReplaceAll(in.Content, nil)
	refs := findReferences(content, []*regexp.Regexp{preprocessImportRe}, 1, nil)
	deps := make([]string, 0, len(refs))
	for _, spec := range specifiers(refs) {
		if external(spec) || strings.HasPrefix(spec, "sass:") {
			continue
		}
		deps = append(deps, styleSpecifier(spec))
	}
	return Output{Content: content, Dependencies: deps}, nil
}

// styleInjectStage wraps CSS into a script that appends a <style> element
// to the document head when the bundle runs.
type styleInjectStage struct{}

func (s *styleInjectStage) Name() string { return "style-inject" }

func (s *styleInjectStage) Transform(_ context.Context, in Input) (Output, error) {
	css, err := json.Marshal(string(in.Content))
	if err != nil {
		return Output{}, err
	}
	script := fmt.Sprintf(`(function(){var s=document.createElement("style");s.setAttribute("data-kiln",%q);s.textContent=%s;document.head.appendChild(s);})();`,
		in.Path, css)
	return Output{Content: []byte(script)}, nil
}

// extractStage marks the module for the chunk's extracted stylesheet
type extractStage struct{}

func (s *extractStage) Name() string { return "extract-css" }

func (s *extractStage) Transform(_ context.Context, in Input) (Output, error) {
	return Output{Content: in.Content, Extract: true}, nil
}

// external reports references the bundler leaves alone
func external(spec string) bool {
	lower := strings.ToLower(spec)
	return strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "http:") ||
		strings.HasPrefix(lower, "https:") ||
		strings.HasPrefix(spec, "//") ||
		strings.HasPrefix(spec, "/") ||
		strings.HasPrefix(spec, "#")
}

// styleSpecifier maps a stylesheet reference to a module specifier. Plain
// names are relative to the stylesheet; a leading ~ names a package.
func styleSpecifier(spec string) string {
	if i := strings.IndexAny(spec, "?#"); i > 0 {
		spec = spec[:i]
	}
	switch {
	case strings.HasPrefix(spec, "~"):
		return strings.TrimPrefix(spec, "~")
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		return spec
	default:
		return "./" + spec
	}
}
