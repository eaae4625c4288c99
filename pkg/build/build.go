package build

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/kiln/pkg/cache"
	"github.com/arthur-debert/kiln/pkg/checks"
	"github.com/arthur-debert/kiln/pkg/chunks"
	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/emit"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/filesystem"
	"github.com/arthur-debert/kiln/pkg/graph"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/resolve"
	"github.com/arthur-debert/kiln/pkg/rules"
	"github.com/arthur-debert/kiln/pkg/stages"
	"github.com/arthur-debert/kiln/pkg/transform"
	"github.com/arthur-debert/kiln/pkg/types"
)

// entryImporter names the importer of entry paths in resolution errors
const entryImporter = "<entry>"

// Options tunes a build invocation
type Options struct {
	// DryRun computes the artifact set without writing it
	DryRun bool
	// FS is the project filesystem; defaults to the OS filesystem at
	// the configured root
	FS types.FS
	// Stages replaces the default stage registry
	Stages stages.Registry
	// Include lists extra files, relative to the root, transformed
	// alongside the entries. Failures in those that no entry reaches
	// are reported as warnings.
	Include []string
}

// pipeline holds the components of one invocation
type pipeline struct {
	cfg      *config.Config
	opts     Options
	fs       types.FS
	matcher  *rules.Matcher
	executor *transform.Executor
	resolver *resolve.Resolver
	checks   *checks.Coordinator
	logger   zerolog.Logger
}

func newPipeline(cfg *config.Config, opts Options) (*pipeline, error) {
	logger := logging.GetLogger("build")

	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS(cfg.Root)
	}
	reg := opts.Stages
	if reg == nil {
		reg = stages.Default()
	}

	matcher, err := rules.New(cfg, reg)
	if err != nil {
		return nil, err
	}
	coordinator, err := checks.FromConfig(cfg.Checks)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:      cfg,
		opts:     opts,
		fs:       fsys,
		matcher:  matcher,
		executor: transform.NewExecutor(openCache(cfg.Cache, logger)),
		resolver: resolve.New(fsys, cfg.Resolve),
		checks:   coordinator,
		logger:   logger,
	}, nil
}

// openCache opens the transform cache. A cache that cannot be opened is
// skipped; the build runs uncached.
func openCache(cfg config.CacheConfig, logger zerolog.Logger) *cache.DiskCache {
	if !cfg.Enabled {
		return nil
	}
	dir := cfg.Dir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	c, err := cache.Open(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Transform cache unavailable, building uncached")
		return nil
	}
	return c
}

func (p *pipeline) resolveEntries(points []config.EntryPoint) ([]string, error) {
	roots := make([]string, 0, len(points))
	for _, ep := range points {
		resolved, err := p.resolver.Resolve(entryImporter, "/"+ep.Path)
		if err != nil {
			return nil, err
		}
		roots = append(roots, resolved)
	}
	return roots, nil
}

func (p *pipeline) newBuilder() *graph.Builder {
	return graph.NewBuilder(graph.Options{
		FS:       p.fs,
		Matcher:  p.matcher,
		Executor: p.executor,
		Resolver: p.resolver,
		Workers:  p.cfg.Workers,
		Include:  p.opts.Include,
	})
}

// Build runs one build invocation. The returned result is never nil. A
// fatal error fails the build with no artifacts and is also returned.
// Findings that checks.fatal promotes fail the result after emission but
// are not returned as an error.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*types.BuildResult, error) {
	start := time.Now()
	result := &types.BuildResult{}
	m := &machine{state: types.StateInit, logger: logging.GetLogger("build.state")}

	fail := func(err error) (*types.BuildResult, error) {
		m.fail(err)
		result.State = m.state
		result.Failed = true
		result.Err = err
		result.Artifacts = nil
		result.Duration = time.Since(start)
		return result, err
	}

	p, err := newPipeline(cfg, opts)
	if err != nil {
		return fail(err)
	}
	p.logger.Info().
		Str("mode", cfg.Mode).
		Str("root", cfg.Root).
		Bool("dryRun", opts.DryRun).
		Msg("Starting build")

	// 1. Entries
	if err := m.to(types.StateResolving); err != nil {
		return fail(err)
	}
	points := cfg.EntryPoints()
	roots, err := p.resolveEntries(points)
	if err != nil {
		return fail(err)
	}

	// 2. Module graph, with checks running alongside
	if err := m.to(types.StateTransforming); err != nil {
		return fail(err)
	}
	builder := p.newBuilder()
	checkCtx, cancelChecks := context.WithCancel(ctx)
	defer cancelChecks()
	run := p.checks.Start(checkCtx, builder)

	modules, diags, err := builder.Build(ctx, roots)
	if err != nil {
		cancelChecks()
		run.Wait()
		return fail(err)
	}
	result.Stats = graphStats(modules)

	// 3. Chunks
	if err := m.to(types.StateAssembling); err != nil {
		return fail(err)
	}
	assigned, err := chunks.NewAssembler(cfg.SplitChunks).Assemble(modules, chunks.EntriesFromConfig(points, roots))
	if err != nil {
		return fail(err)
	}
	result.Chunks = assigned

	// 4. Artifacts
	if err := m.to(types.StateEmitting); err != nil {
		return fail(err)
	}
	emitter := emit.New(emit.OptionsFromConfig(cfg), p.fs)
	artifacts, emitDiags, err := emitter.Assemble(assigned, modules)
	if err != nil {
		return fail(err)
	}
	diags = append(diags, emitDiags...)
	if ctx.Err() != nil {
		return fail(errors.Wrap(ctx.Err(), errors.ErrCanceled, "build canceled"))
	}
	if !opts.DryRun {
		if err := emitter.Write(ctx, artifacts); err != nil {
			return fail(err)
		}
	}
	if err := m.to(types.StateDone); err != nil {
		return fail(err)
	}
	result.Artifacts = artifacts

	// 5. Checks
	findings := run.Wait()
	result.Diagnostics = checks.Aggregate(append(diags, findings...))
	if cfg.Checks.Fatal && types.HasSeverity(findings, types.SeverityError) {
		result.Failed = true
		result.Err = errors.Newf(errors.ErrDiagnosticFinding,
			"checks reported %d error findings", countErrors(findings))
		p.logger.Warn().Err(result.Err).Msg("Build result failed by check findings")
	}

	result.State = m.state
	result.Duration = time.Since(start)
	p.logger.Info().
		Int("artifacts", len(result.Artifacts)).
		Int("chunks", len(result.Chunks)).
		Int("diagnostics", len(result.Diagnostics)).
		Dur("duration", result.Duration).
		Msg("Build finished")
	return result, nil
}

func graphStats(g *types.ModuleGraph) types.GraphStats {
	stats := types.GraphStats{Modules: g.Len(), Edges: g.EdgeCount()}
	for _, p := range g.Paths() {
		if m, ok := g.Module(p); ok && m.Failed() {
			stats.Failed++
		}
	}
	return stats
}

func countErrors(diags []types.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity >= types.SeverityError {
			n++
		}
	}
	return n
}
