package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/resolve"
	"github.com/arthur-debert/kiln/pkg/rules"
	"github.com/arthur-debert/kiln/pkg/transform"
	"github.com/arthur-debert/kiln/pkg/types"
)

// entrySpecifier is the importer name used when resolving entry paths
const entrySpecifier = "<entry>"

// Options configures a Builder
type Options struct {
	FS       types.FS
	Matcher  *rules.Matcher
	Executor *transform.Executor
	Resolver *resolve.Resolver
	// Workers bounds concurrent transforms; values below 1 mean 1
	Workers int
	// Include lists files transformed in addition to the entries. They
	// are part of the graph but only matter for output when reachable.
	Include []string
}

// slot is a memo table entry. done is closed once module or err is set.
type slot struct {
	done   chan struct{}
	module *types.Module
	err    error
}

// Builder constructs a ModuleGraph. A Builder is single use.
type Builder struct {
	opts   Options
	logger zerolog.Logger

	mu    sync.Mutex
	table map[string]*slot
	files []*types.SourceFile

	changed  chan struct{}
	finished chan struct{}
	once     sync.Once
}

// NewBuilder creates a builder
func NewBuilder(opts Options) *Builder {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Builder{
		opts:     opts,
		logger:   logging.GetLogger("graph"),
		table:    make(map[string]*slot),
		changed:  make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
}

// Build traverses the dependency graph from entries and returns it
// frozen, along with the diagnostics stages produced and failures of
// unreachable modules.
func (b *Builder) Build(ctx context.Context, entries []string) (*types.ModuleGraph, []types.Diagnostic, error) {
	defer b.once.Do(func() { close(b.finished) })

	b.logger.Debug().
		Strs("entries", entries).
		Int("workers", b.opts.Workers).
		Msg("Building module graph")

	roots, err := b.resolveRoots(entries)
	if err != nil {
		return nil, nil, err
	}
	extra, err := b.resolveRoots(b.opts.Include)
	if err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	seeds := append(roots, extra...)
	g.Go(func() error {
		for _, p := range seeds {
			if err := b.visit(gctx, g, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCanceled, "module graph construction canceled")
	}

	return b.assemble(roots)
}

func (b *Builder) resolveRoots(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		resolved, err := b.opts.Resolver.Resolve(entrySpecifier, "/"+p)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// visit claims p and schedules its processing. It never blocks on
// another claimant: an already claimed path is left to its owner. visit
// must be called from a pool goroutine.
func (b *Builder) visit(ctx context.Context, g *errgroup.Group, p string) error {
	b.mu.Lock()
	if _, claimed := b.table[p]; claimed {
		b.mu.Unlock()
		return nil
	}
	s := &slot{done: make(chan struct{})}
	b.table[p] = s
	b.mu.Unlock()

	work := func() error {
		defer close(s.done)
		m, err := b.process(ctx, g, p)
		s.module, s.err = m, err
		return err
	}
	// A full pool runs the work on the calling goroutine instead of
	// blocking it, so workers that discover dependencies cannot deadlock.
	if !g.TryGo(work) {
		return work()
	}
	return nil
}

func (b *Builder) process(ctx context.Context, g *errgroup.Group, p string) (*types.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := b.opts.FS.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "cannot read %s", p).
			WithDetail(errors.DetailPath, p)
	}
	file := types.NewSourceFile(p, content)
	b.mu.Lock()
	b.files = append(b.files, file)
	b.mu.Unlock()
	select {
	case b.changed <- struct{}{}:
	default:
	}

	match, err := b.opts.Matcher.Match(p)
	if err != nil {
		return nil, err
	}

	module, err := b.opts.Executor.Run(ctx, file, match)
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrTransformFailed) {
			return nil, err
		}
		b.logger.Debug().Err(err).Str("path", p).Msg("Module failed to transform")
		return &types.Module{
			Path:   p,
			Source: file,
			Rule:   match.RuleName(),
			Kind:   types.ModuleScript,
			Err:    err,
		}, nil
	}

	resolved := make([]string, 0, len(module.Dependencies))
	seen := make(map[string]bool, len(module.Dependencies))
	for _, specifier := range module.Dependencies {
		dep, err := b.opts.Resolver.Resolve(p, specifier)
		if err != nil {
			return nil, err
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		resolved = append(resolved, dep)
	}
	module.Dependencies = resolved

	for _, dep := range resolved {
		if err := b.visit(ctx, g, dep); err != nil {
			return nil, err
		}
	}
	return module, nil
}

// assemble copies the memo table into a frozen graph and applies failure
// propagation
func (b *Builder) assemble(roots []string) (*types.ModuleGraph, []types.Diagnostic, error) {
	b.mu.Lock()
	paths := make([]string, 0, len(b.table))
	for p := range b.table {
		paths = append(paths, p)
	}
	b.mu.Unlock()
	sort.Strings(paths)

	graph := types.NewModuleGraph()
	var diags []types.Diagnostic
	for _, p := range paths {
		s := b.table[p]
		<-s.done
		graph.Add(s.module)
		diags = append(diags, s.module.Diagnostics...)
	}
	for _, p := range paths {
		for _, dep := range b.table[p].module.Dependencies {
			graph.AddEdge(p, dep)
		}
	}
	graph.SetEntries(roots)

	if err := graph.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrInternal, "inconsistent module graph")
	}

	reachable := make(map[string]bool)
	for _, p := range graph.Reachable(roots...) {
		reachable[p] = true
	}
	for _, p := range paths {
		m := b.table[p].module
		if !m.Failed() {
			continue
		}
		if reachable[p] {
			return nil, nil, m.Err
		}
		b.logger.Info().Str("path", p).Msg("Ignoring failure of unreachable module")
		diags = append(diags, types.Diagnostic{
			Severity: types.SeverityWarning,
			Location: types.Location{Path: p},
			Message:  m.Err.Error(),
			Source:   "graph",
		})
	}

	graph.Freeze()
	b.logger.Info().
		Int("modules", graph.Len()).
		Int("edges", graph.EdgeCount()).
		Msg("Module graph complete")
	return graph, diags, nil
}

// Done is closed when Build returns
func (b *Builder) Done() <-chan struct{} {
	return b.finished
}

// Changed receives a value after new source files were read. Signals
// coalesce: one receive may stand for several files.
func (b *Builder) Changed() <-chan struct{} {
	return b.changed
}

// FilesSince returns the source files read after the first n, in read
// order
func (b *Builder) FilesSince(n int) []*types.SourceFile {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n >= len(b.files) {
		return nil
	}
	return append([]*types.SourceFile(nil), b.files[n:]...)
}
