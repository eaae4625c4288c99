package checks

import (
	"context"
	"fmt"
	"regexp"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Pass names
const (
	LintPassName      = "lint"
	TypeCheckPassName = "typecheck"
)

type lintRule struct {
	name     string
	pattern  *regexp.Regexp
	files    *regexp.Regexp
	message  string
	severity types.Severity
}

// lintPass reports every match of its rules' patterns
type lintPass struct {
	rules []lintRule
}

func newLintPass(cfg config.ChecksConfig) (Pass, error) {
	p := &lintPass{}
	for _, rc := range cfg.Lint.Rules {
		pattern, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "lint rule %s: invalid pattern", rc.Name)
		}
		var files *regexp.Regexp
		if rc.Files != "" {
			if files, err = regexp.Compile(rc.Files); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigValid, "lint rule %s: invalid files pattern", rc.Name)
			}
		}
		sev, err := types.ParseSeverity(rc.Severity)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "lint rule %s", rc.Name)
		}
		msg := rc.Message
		if msg == "" {
			msg = fmt.Sprintf("matches %s", rc.Pattern)
		}
		p.rules = append(p.rules, lintRule{
			name:     rc.Name,
			pattern:  pattern,
			files:    files,
			message:  msg,
			severity: sev,
		})
	}
	return p, nil
}

func (p *lintPass) Name() string { return LintPassName }

func (p *lintPass) Run(ctx context.Context, files []*types.SourceFile) ([]types.Diagnostic, error) {
	var diags []types.Diagnostic
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return diags, err
		}
		if f.ContentType == types.ContentAsset {
			continue
		}
		for _, r := range p.rules {
			if r.files != nil && !r.files.MatchString(f.Path) {
				continue
			}
			for _, m := range r.pattern.FindAllIndex(f.Content, -1) {
				msg := r.message
				if r.name != "" {
					msg = fmt.Sprintf("%s (%s)", msg, r.name)
				}
				diags = append(diags, types.Diagnostic{
					Severity: r.severity,
					Location: types.LocationAt(f.Path, f.Content, m[0]),
					Message:  msg,
					Source:   LintPassName,
				})
			}
		}
	}
	return diags, nil
}
