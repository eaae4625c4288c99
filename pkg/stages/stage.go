package stages

import (
	"context"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/registry"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Input is what a stage receives
type Input struct {
	Path        string
	Content     []byte
	Options     map[string]interface{}
	ContentType types.ContentType
}

// Output is what a stage produces
type Output struct {
	Content []byte
	// Dependencies are raw import specifiers, unresolved
	Dependencies []string
	Diagnostics  []types.Diagnostic
	// Extract routes the module to the chunk's extracted stylesheet
	Extract bool
}

// Stage is a single content transform in a rule's chain
type Stage interface {
	Name() string
	Transform(ctx context.Context, in Input) (Output, error)
}

// Registry holds stages by name
type Registry = registry.Registry[Stage]

// NewRegistry returns an empty stage registry
func NewRegistry() Registry {
	return registry.NewWithCode[Stage](errors.ErrStageNotFound)
}

// Default returns a registry with every built-in stage
func Default() Registry {
	reg := NewRegistry()
	script := &scriptStage{}
	registry.MustRegister[Stage](reg, "script", script)
	registry.MustRegister[Stage](reg, "babel", script)
	registry.MustRegister[Stage](reg, "typescript", script)
	registry.MustRegister[Stage](reg, "css", &cssStage{})
	registry.MustRegister[Stage](reg, "less", &preprocessStage{name: "less", flag: "javascript_enabled"})
	registry.MustRegister[Stage](reg, "sass", &preprocessStage{name: "sass", flag: "indented"})
	registry.MustRegister[Stage](reg, "style-inject", &styleInjectStage{})
	registry.MustRegister[Stage](reg, "extract-css", &extractStage{})
	registry.MustRegister[Stage](reg, "csv", &csvStage{})
	registry.MustRegister[Stage](reg, "xml", &xmlStage{})
	registry.MustRegister[Stage](reg, "json", &jsonStage{})
	registry.MustRegister[Stage](reg, "raw", Func("raw", passThrough))
	return reg
}

// TransformFunc is the signature of a stage implemented as a function
type TransformFunc func(ctx context.Context, in Input) (Output, error)

type funcStage struct {
	name string
	fn   TransformFunc
}

// Func adapts a function into a Stage
func Func(name string, fn TransformFunc) Stage {
	return &funcStage{name: name, fn: fn}
}

func (f *funcStage) Name() string { return f.name }

func (f *funcStage) Transform(ctx context.Context, in Input) (Output, error) {
	return f.fn(ctx, in)
}

func passThrough(_ context.Context, in Input) (Output, error) {
	return Output{Content: in.Content}, nil
}
