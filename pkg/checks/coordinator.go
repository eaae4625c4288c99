package checks

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/registry"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Pass is an auxiliary verification pass
type Pass interface {
	Name() string
	Run(ctx context.Context, files []*types.SourceFile) ([]types.Diagnostic, error)
}

// FileSetSource publishes the files a build reads while it reads them.
// Changed signals new files, FilesSince returns the files read after the
// first n and Done is closed once no more files will be read.
type FileSetSource interface {
	Changed() <-chan struct{}
	FilesSince(n int) []*types.SourceFile
	Done() <-chan struct{}
}

// Factory creates a pass from the checks configuration
type Factory func(cfg config.ChecksConfig) (Pass, error)

var factories = func() registry.Registry[Factory] {
	reg := registry.NewWithCode[Factory](errors.ErrNotFound)
	registry.MustRegister(reg, LintPassName, Factory(newLintPass))
	registry.MustRegister(reg, TypeCheckPassName, Factory(newTypeCheckPass))
	return reg
}()

// Coordinator runs a fixed set of passes
type Coordinator struct {
	passes []Pass
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator over passes
func NewCoordinator(passes ...Pass) *Coordinator {
	return &Coordinator{
		passes: passes,
		logger: logging.GetLogger("checks"),
	}
}

// FromConfig creates a coordinator with the passes cfg enables
func FromConfig(cfg config.ChecksConfig) (*Coordinator, error) {
	var names []string
	if cfg.Lint.Enabled {
		names = append(names, LintPassName)
	}
	if cfg.TypeCheck {
		names = append(names, TypeCheckPassName)
	}

	fs, err := factories.Lookup(names...)
	if err != nil {
		return nil, err
	}
	passes := make([]Pass, 0, len(fs))
	for _, f := range fs {
		p, err := f(cfg)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	return NewCoordinator(passes...), nil
}

// Passes returns the names of the configured passes
func (c *Coordinator) Passes() []string {
	names := make([]string, len(c.passes))
	for i, p := range c.passes {
		names[i] = p.Name()
	}
	return names
}

// Run is a started set of passes
type Run struct {
	done  chan struct{}
	mu    sync.Mutex
	diags []types.Diagnostic
}

// Wait blocks until every pass finished and returns their merged,
// sorted diagnostics
func (r *Run) Wait() []types.Diagnostic {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.diags
}

// Start launches every pass. Files reach the passes in batches as src
// reads them, so the passes run alongside graph construction. A pass
// that errors contributes an error diagnostic instead of failing the
// others.
func (c *Coordinator) Start(ctx context.Context, src FileSetSource) *Run {
	run := &Run{done: make(chan struct{})}

	var collected []types.Diagnostic
	var mu sync.Mutex
	var g errgroup.Group

	feeds := make([]chan []*types.SourceFile, len(c.passes))
	for i, p := range c.passes {
		p := p
		feed := make(chan []*types.SourceFile, 1)
		feeds[i] = feed
		g.Go(func() error {
			for batch := range feed {
				diags := c.runPass(ctx, p, batch)
				mu.Lock()
				collected = append(collected, diags...)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Go(func() error {
		c.dispatch(ctx, src, feeds)
		return nil
	})

	go func() {
		_ = g.Wait()
		merged := Aggregate(collected)
		run.mu.Lock()
		run.diags = merged
		run.mu.Unlock()
		close(run.done)
		c.logger.Debug().Int("diagnostics", len(merged)).Msg("Passes complete")
	}()
	return run
}

// dispatch hands every new batch of files to each pass until src is
// done or ctx is canceled, then closes the feeds
func (c *Coordinator) dispatch(ctx context.Context, src FileSetSource, feeds []chan []*types.SourceFile) {
	defer func() {
		for _, feed := range feeds {
			close(feed)
		}
	}()

	read := 0
	publish := func() bool {
		batch := src.FilesSince(read)
		if len(batch) == 0 {
			return true
		}
		read += len(batch)
		for _, feed := range feeds {
			select {
			case feed <- batch:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-src.Changed():
			if !publish() {
				return
			}
		case <-src.Done():
			publish()
			c.logger.Debug().Int("files", read).Msg("File set complete")
			return
		case <-ctx.Done():
			return
		}
	}
}

// runPass runs p over one batch of files
func (c *Coordinator) runPass(ctx context.Context, p Pass, batch []*types.SourceFile) []types.Diagnostic {
	if ctx.Err() != nil {
		return nil
	}
	c.logger.Debug().Str("pass", p.Name()).Int("files", len(batch)).Msg("Running pass")
	diags, err := p.Run(ctx, batch)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn().Err(err).Str("pass", p.Name()).Msg("Pass failed")
		diags = append(diags, types.Diagnostic{
			Severity: types.SeverityError,
			Message:  err.Error(),
			Source:   p.Name(),
		})
	}
	return diags
}

type findingKey struct {
	path    string
	line    int
	column  int
	message string
}

// Aggregate collapses diagnostics with the same location and message into
// the most severe one and sorts the result. Among equally severe
// duplicates the one whose source sorts first is kept.
func Aggregate(diags []types.Diagnostic) []types.Diagnostic {
	best := make(map[findingKey]types.Diagnostic, len(diags))
	for _, d := range diags {
		k := findingKey{d.Location.Path, d.Location.Line, d.Location.Column, d.Message}
		cur, ok := best[k]
		if !ok || d.Severity > cur.Severity || (d.Severity == cur.Severity && d.Source < cur.Source) {
			best[k] = d
		}
	}

	out := make([]types.Diagnostic, 0, len(best))
	for _, d := range best {
		out = append(out, d)
	}
	types.SortDiagnostics(out)
	return out
}
