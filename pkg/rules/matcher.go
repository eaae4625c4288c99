package rules

import (
	"path"
	"strings"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/stages"
	"github.com/rs/zerolog"
)

// Matcher classifies paths against an ordered rule list
type Matcher struct {
	rules     []Rule
	assetExts map[string]bool
	logger    zerolog.Logger
}

// NewMatcher creates a matcher over compiled rules. assetExtensions are
// the extensions copied through when no rule matches.
func NewMatcher(rules []Rule, assetExtensions []string) *Matcher {
	exts := make(map[string]bool, len(assetExtensions))
	for _, ext := range assetExtensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Matcher{
		rules:     rules,
		assetExts: exts,
		logger:    logging.GetLogger("rules.matcher"),
	}
}

// New compiles the configured rules against reg and returns a matcher
func New(cfg *config.Config, reg stages.Registry) (*Matcher, error) {
	compiled, err := Compile(cfg.Rules, reg)
	if err != nil {
		return nil, err
	}
	return NewMatcher(compiled, cfg.AssetExtensions), nil
}

// Rules returns the compiled rules in evaluation order
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Match classifies p. The first declared rule that matches wins.
func (m *Matcher) Match(p string) (Match, error) {
	p = config.NormalizePath(p)

	for i := range m.rules {
		rule := &m.rules[i]
		if !rule.Matches(p) {
			continue
		}

		kind := MatchKindRule
		if rule.Asset {
			kind = MatchKindAsset
		}
		m.logger.Trace().
			Str("path", p).
			Str("rule", rule.Name).
			Str("kind", kind.String()).
			Msg("Path matched rule")
		return Match{Kind: kind, Path: p, Rule: rule}, nil
	}

	if m.assetExts[strings.ToLower(path.Ext(p))] {
		m.logger.Trace().Str("path", p).Msg("Path matched asset extension")
		return Match{Kind: MatchKindAsset, Path: p}, nil
	}

	m.logger.Debug().Str("path", p).Msg("No rule matches path")
	return Match{}, errors.NoMatchingRule(p)
}
