// Test Type: Unit Test
// Description: Tests for rule compilation and first-match-wins classification

package rules_test

import (
	"testing"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/rules"
	"github.com/arthur-debert/kiln/pkg/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func use(names ...string) []config.StageConfig {
	out := make([]config.StageConfig, 0, len(names))
	for _, n := range names {
		out = append(out, config.StageConfig{Stage: n})
	}
	return out
}

func newMatcher(t *testing.T, cfgs []config.RuleConfig, assetExts ...string) *rules.Matcher {
	t.Helper()
	compiled, err := rules.Compile(cfgs, stages.Default())
	require.NoError(t, err)
	return rules.NewMatcher(compiled, assetExts)
}

func TestMatch_FirstDeclaredRuleWins(t *testing.T) {
	tests := []struct {
		name     string
		rules    []config.RuleConfig
		path     string
		wantRule string
	}{
		{
			name: "broad_rule_before_specific",
			rules: []config.RuleConfig{
				{Name: "any-script", Test: `\.(js|ts)$`, Use: use("raw")},
				{Name: "typescript", Test: `src/.*\.ts$`, Use: use("typescript")},
			},
			path:     "src/app.ts",
			wantRule: "any-script",
		},
		{
			name: "specific_rule_before_broad",
			rules: []config.RuleConfig{
				{Name: "typescript", Test: `src/.*\.ts$`, Use: use("typescript")},
				{Name: "any-script", Test: `\.(js|ts)$`, Use: use("raw")},
			},
			path:     "src/app.ts",
			wantRule: "typescript",
		},
		{
			name: "excluded_rule_falls_through",
			rules: []config.RuleConfig{
				{Name: "babel", Test: `\.js$`, Exclude: `node_modules`, Use: use("babel")},
				{Name: "vendor", Test: `\.js$`, Use: use("raw")},
			},
			path:     "node_modules/lib/index.js",
			wantRule: "vendor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(t, tt.rules)
			match, err := m.Match(tt.path)
			require.NoError(t, err)
			assert.Equal(t, rules.MatchKindRule, match.Kind)
			assert.Equal(t, tt.wantRule, match.RuleName())
		})
	}
}

func TestMatch_Assets(t *testing.T) {
	m := newMatcher(t, []config.RuleConfig{
		{Name: "images", Test: `\.png$`, Type: config.AssetResourceType},
		{Name: "ts", Test: `\.ts$`, Use: use("typescript")},
	}, ".woff2", ".SVG")

	t.Run("asset_rule", func(t *testing.T) {
		match, err := m.Match("./src/logo.png")
		require.NoError(t, err)
		assert.Equal(t, rules.MatchKindAsset, match.Kind)
		assert.Equal(t, "images", match.RuleName())
		assert.Equal(t, "src/logo.png", match.Path)
	})

	t.Run("declared_extension", func(t *testing.T) {
		match, err := m.Match("fonts/inter.woff2")
		require.NoError(t, err)
		assert.Equal(t, rules.MatchKindAsset, match.Kind)
		assert.Nil(t, match.Rule)

		match, err = m.Match("img/icon.svg")
		require.NoError(t, err)
		assert.Equal(t, rules.MatchKindAsset, match.Kind)
	})

	t.Run("no_match", func(t *testing.T) {
		_, err := m.Match("README.md")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
		assert.Equal(t, "README.md", errors.GetErrorDetails(err)[errors.DetailPath])
	})
}

func TestCompile(t *testing.T) {
	t.Run("stage_options_and_order", func(t *testing.T) {
		compiled, err := rules.Compile([]config.RuleConfig{{
			Test: `\.less$`,
			Use: []config.StageConfig{
				{Stage: "less", Options: map[string]interface{}{"javascript_enabled": true}},
				{Stage: "css"},
				{Stage: "style-inject"},
			},
		}}, stages.Default())
		require.NoError(t, err)
		require.Len(t, compiled, 1)

		r := compiled[0]
		assert.Equal(t, "rule-0", r.Name)
		require.Len(t, r.Stages, 3)
		assert.Equal(t, "less", r.Stages[0].Name)
		assert.Equal(t, true, r.Stages[0].Options["javascript_enabled"])
		assert.Equal(t, "style-inject", r.Stages[2].Stage.Name())
	})

	t.Run("unknown_stage", func(t *testing.T) {
		_, err := rules.Compile([]config.RuleConfig{{Name: "x", Test: `.`, Use: use("webpack")}}, stages.Default())
		assert.True(t, errors.IsErrorCode(err, errors.ErrStageNotFound))
	})

	t.Run("invalid_pattern", func(t *testing.T) {
		_, err := rules.Compile([]config.RuleConfig{{Name: "x", Test: `(`}}, stages.Default())
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))

		_, err = rules.Compile([]config.RuleConfig{{Name: "x", Test: `.`, Exclude: `[`}}, stages.Default())
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	})
}

func TestDefaultRules(t *testing.T) {
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)

	m, err := rules.New(cfg, stages.Default())
	require.NoError(t, err)

	tests := map[string]string{
		"src/index.tsx":     "typescript",
		"src/legacy.js":     "babel",
		"src/theme.less":    "less",
		"src/app.scss":      "sass",
		"src/plain.css":     "css",
		"src/img/logo.png":  "images",
		"src/fonts/a.woff2": "fonts",
		"data/rows.csv":     "csv",
		"data/feed.xml":     "xml",
		"package.json":      "json",
	}
	for path, want := range tests {
		match, err := m.Match(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, match.RuleName(), path)
	}

	// node_modules scripts skip the compile rules
	match, err := m.Match("node_modules/react/index.js")
	require.NoError(t, err)
	assert.Equal(t, "modules", match.RuleName())

	_, err = m.Match("docs/notes.md")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))

	// jpg has no rule but is a declared asset extension
	match, err = m.Match("src/img/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, rules.MatchKindAsset, match.Kind)
}
