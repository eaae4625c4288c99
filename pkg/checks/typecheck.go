package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/types"
)

var suppressionRe = regexp.MustCompile(`//\s*@ts-(ignore|nocheck)\b`)

// typeCheckPass verifies TypeScript sources. It reports compiler
// suppressions and bracket structure that cannot parse.
type typeCheckPass struct{}

func newTypeCheckPass(config.ChecksConfig) (Pass, error) {
	return &typeCheckPass{}, nil
}

func (p *typeCheckPass) Name() string { return TypeCheckPassName }

func (p *typeCheckPass) Run(ctx context.Context, files []*types.SourceFile) ([]types.Diagnostic, error) {
	var diags []types.Diagnostic
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return diags, err
		}
		ext := strings.ToLower(f.Ext())
		if ext != ".ts" && ext != ".tsx" {
			continue
		}
		for _, m := range suppressionRe.FindAllSubmatchIndex(f.Content, -1) {
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityWarning,
				Location: types.LocationAt(f.Path, f.Content, m[0]),
				Message:  fmt.Sprintf("@ts-%s suppresses type checking", f.Content[m[2]:m[3]]),
				Source:   TypeCheckPassName,
			})
		}
		if d, ok := checkBrackets(f.Path, f.Content, ext == ".tsx"); ok {
			diags = append(diags, d)
		}
	}
	return diags, nil
}
