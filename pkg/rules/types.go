package rules

import (
	"regexp"

	"github.com/arthur-debert/kiln/pkg/stages"
)

// StageRef is a resolved stage with the options configured for it
type StageRef struct {
	Name    string
	Stage   stages.Stage
	Options map[string]interface{}
}

// Rule is a compiled transform rule. Rules are read-only once compiled.
type Rule struct {
	Name    string
	Test    *regexp.Regexp
	Exclude *regexp.Regexp
	Stages  []StageRef
	// Asset rules copy matches verbatim
	Asset bool
}

// Matches reports whether the rule applies to path
func (r *Rule) Matches(path string) bool {
	if !r.Test.MatchString(path) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(path)
}

// MatchKind tags a Match
type MatchKind int

const (
	// MatchKindRule routes the file through Rule.Stages
	MatchKindRule MatchKind = iota
	// MatchKindAsset copies the file through unchanged
	MatchKindAsset
)

func (k MatchKind) String() string {
	if k == MatchKindAsset {
		return "asset"
	}
	return "rule"
}

// Match is the result of classifying a path
type Match struct {
	Kind MatchKind
	Path string
	// Rule is nil for assets matched by extension only
	Rule *Rule
}

// RuleName returns the name of the matched rule, or "asset" for
// extension-only matches
func (m Match) RuleName() string {
	if m.Rule == nil {
		return "asset"
	}
	return m.Rule.Name
}
