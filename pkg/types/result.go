package types

import (
	"sort"
	"time"
)

// BuildState is a step of the per-invocation build state machine
type BuildState int

const (
	StateInit BuildState = iota
	StateResolving
	StateTransforming
	StateAssembling
	StateEmitting
	StateDone
	StateFailed
)

// String returns the state name
func (s BuildState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateResolving:
		return "resolving"
	case StateTransforming:
		return "transforming"
	case StateAssembling:
		return "assembling"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var stateTransitions = map[BuildState][]BuildState{
	StateInit:         {StateResolving, StateFailed},
	StateResolving:    {StateTransforming, StateFailed},
	StateTransforming: {StateAssembling, StateFailed},
	StateAssembling:   {StateEmitting, StateFailed},
	StateEmitting:     {StateDone, StateFailed},
}

// CanTransition reports whether the state machine allows s -> next
func (s BuildState) CanTransition(next BuildState) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible
func (s BuildState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// GraphStats summarizes the module graph of a build
type GraphStats struct {
	Modules int
	Edges   int
	Failed  int
}

// BuildResult is the outcome of one build invocation. It is immutable once
// returned to the caller.
type BuildResult struct {
	// Artifacts maps relative output paths to their bytes
	Artifacts   map[string][]byte
	Diagnostics []Diagnostic
	Chunks      []Chunk
	Stats       GraphStats
	// State is the last state reached by the build state machine
	State BuildState
	// Failed is true when the build failed, including when artifacts were
	// emitted but fatal findings flipped the result afterwards
	Failed   bool
	Err      error
	Duration time.Duration
}

// ArtifactNames returns the artifact paths in lexical order
func (r *BuildResult) ArtifactNames() []string {
	names := make([]string, 0, len(r.Artifacts))
	for name := range r.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExitCode maps the result to a process exit status
func (r *BuildResult) ExitCode() int {
	if r.Failed {
		return 1
	}
	return 0
}
