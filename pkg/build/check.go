package build

import (
	"context"
	"time"

	"github.com/arthur-debert/kiln/pkg/checks"
	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/types"
)

// CheckResult is the outcome of a check-only run
type CheckResult struct {
	Diagnostics []types.Diagnostic
	Stats       types.GraphStats
	Duration    time.Duration
}

// Failed reports whether any finding is an error
func (r *CheckResult) Failed() bool {
	return types.HasSeverity(r.Diagnostics, types.SeverityError)
}

// Check builds the module graph and runs the auxiliary checks over it
// without assembling or writing artifacts. Stage diagnostics are
// reported along with the check findings.
func Check(ctx context.Context, cfg *config.Config, opts Options) (*CheckResult, error) {
	start := time.Now()

	p, err := newPipeline(cfg, opts)
	if err != nil {
		return nil, err
	}
	roots, err := p.resolveEntries(cfg.EntryPoints())
	if err != nil {
		return nil, err
	}

	builder := p.newBuilder()
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	run := p.checks.Start(checkCtx, builder)

	modules, diags, err := builder.Build(ctx, roots)
	if err != nil {
		cancel()
		run.Wait()
		return nil, err
	}

	result := &CheckResult{
		Diagnostics: checks.Aggregate(append(diags, run.Wait()...)),
		Stats:       graphStats(modules),
		Duration:    time.Since(start),
	}
	p.logger.Info().
		Strs("passes", p.checks.Passes()).
		Int("diagnostics", len(result.Diagnostics)).
		Msg("Checks finished")
	return result, nil
}
