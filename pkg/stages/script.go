package stages

import (
	"context"
	"regexp"

	"github.com/arthur-debert/kiln/pkg/types"
)

var (
	// group 1 is the optional "type" keyword, group 2 the specifier
	importFromRe = regexp.MustCompile(`\bimport\s+(type\s+)?[^'"();]*?\bfrom\s*['"]([^'"\n]+)['"]`)
	exportFromRe = regexp.MustCompile(`\bexport\s+(type\s+)?[^'"();=]*?\bfrom\s*['"]([^'"\n]+)['"]`)
	importBareRe = regexp.MustCompile(`\bimport\s*()['"]([^'"\n]+)['"]`)
	requireRe    = regexp.MustCompile(`\brequire\s*\(\s*()['"]([^'"\n]+)['"]\s*\)`)
	dynImportRe  = regexp.MustCompile(`\bimport\s*\(\s*()['"]([^'"\n]+)['"]\s*\)`)

	dynRequireRe = regexp.MustCompile(`\brequire\s*\(\s*[^'"\s)]`)

	scriptPatterns = []*regexp.Regexp{importFromRe, exportFromRe, importBareRe, requireRe, dynImportRe}
)

// scriptStage discovers module references in JavaScript and TypeScript
// sources. Content passes through unchanged.
type scriptStage struct{}

func (s *scriptStage) Name() string { return "script" }

func (s *scriptStage) Transform(_ context.Context, in Input) (Output, error) {
	refs := findReferences(in.Content, scriptPatterns, 2, typeOnly)

	var diags []types.Diagnostic
	for _, m := range dynRequireRe.FindAllIndex(in.Content, -1) {
		diags = append(diags, types.Diagnostic{
			Severity: types.SeverityWarning,
			Location: types.LocationAt(in.Path, in.Content, m[0]),
			Message:  "require with a non-literal argument cannot be bundled",
			Source:   "script",
		})
	}

	return Output{
		Content:      in.Content,
		Dependencies: specifiers(refs),
		Diagnostics:  diags,
	}, nil
}

// typeOnly drops `import type` and `export type` statements, which are
// erased at compile time.
func typeOnly(_ []byte, m []int) bool {
	return m[2] >= 0 && m[3] > m[2]
}
