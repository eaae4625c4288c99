package output

import (
	"time"

	"github.com/arthur-debert/kiln/pkg/types"
)

// Report is the renderable summary of a build or check run
type Report struct {
	Command     string        `json:"command"`
	State       string        `json:"state"`
	Failed      bool          `json:"failed"`
	Error       string        `json:"error,omitempty"`
	DryRun      bool          `json:"dryRun,omitempty"`
	Duration    time.Duration `json:"durationNs"`
	Stats       StatsReport   `json:"stats"`
	Chunks      []ChunkReport `json:"chunks,omitempty"`
	Artifacts   []FileReport  `json:"artifacts,omitempty"`
	Diagnostics []Finding     `json:"diagnostics"`
}

// StatsReport summarizes the module graph
type StatsReport struct {
	Modules int `json:"modules"`
	Edges   int `json:"edges"`
	Failed  int `json:"failed"`
}

// ChunkReport describes one chunk
type ChunkReport struct {
	Name    string `json:"name"`
	Entry   bool   `json:"entry"`
	Modules int    `json:"modules"`
	Size    int    `json:"size"`
}

// FileReport is one emitted artifact
type FileReport struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// Finding is a diagnostic in report form
type Finding struct {
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`

	diag types.Diagnostic
}

// NewBuildReport summarizes a build result
func NewBuildReport(res *types.BuildResult, dryRun bool) *Report {
	r := &Report{
		Command:     "build",
		State:       res.State.String(),
		Failed:      res.Failed,
		DryRun:      dryRun,
		Duration:    res.Duration,
		Stats:       StatsReport(res.Stats),
		Diagnostics: findings(res.Diagnostics),
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	for _, c := range res.Chunks {
		r.Chunks = append(r.Chunks, ChunkReport{Name: c.Name, Entry: c.Entry, Modules: len(c.Modules), Size: c.Size})
	}
	for _, name := range res.ArtifactNames() {
		r.Artifacts = append(r.Artifacts, FileReport{Path: name, Size: len(res.Artifacts[name])})
	}
	return r
}

// NewCheckReport summarizes a check-only run. It fails when any finding
// is an error.
func NewCheckReport(diags []types.Diagnostic, stats types.GraphStats, d time.Duration) *Report {
	failed := types.HasSeverity(diags, types.SeverityError)
	state := "done"
	if failed {
		state = "failed"
	}
	return &Report{
		Command:     "check",
		State:       state,
		Failed:      failed,
		Duration:    d,
		Stats:       StatsReport(stats),
		Diagnostics: findings(diags),
	}
}

func findings(diags []types.Diagnostic) []Finding {
	out := make([]Finding, 0, len(diags))
	for _, d := range diags {
		out = append(out, Finding{
			Severity: d.Severity.String(),
			Path:     d.Location.Path,
			Line:     d.Location.Line,
			Column:   d.Location.Column,
			Message:  d.Message,
			Source:   d.Source,
			diag:     d,
		})
	}
	return out
}

// counts returns the number of error (or worse) and warning findings
func (r *Report) counts() (errs, warnings int) {
	for _, f := range r.Diagnostics {
		switch {
		case f.diag.Severity >= types.SeverityError:
			errs++
		case f.diag.Severity == types.SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
