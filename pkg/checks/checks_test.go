// Test Type: Unit Test
// Description: Tests for the auxiliary pass coordinator and built-in passes

package checks_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/kiln/pkg/checks"
	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileSet is a FileSetSource fed by add and completed by calling finish
type fileSet struct {
	mu      sync.Mutex
	files   []*types.SourceFile
	changed chan struct{}
	done    chan struct{}
}

func newFileSet(files map[string]string) *fileSet {
	fs := &fileSet{changed: make(chan struct{}, 1), done: make(chan struct{})}
	for p, c := range files {
		fs.add(p, c)
	}
	return fs
}

func (f *fileSet) add(path, content string) {
	f.mu.Lock()
	f.files = append(f.files, types.NewSourceFile(path, []byte(content)))
	f.mu.Unlock()
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

func (f *fileSet) FilesSince(n int) []*types.SourceFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= len(f.files) {
		return nil
	}
	return append([]*types.SourceFile(nil), f.files[n:]...)
}

func (f *fileSet) Changed() <-chan struct{} { return f.changed }
func (f *fileSet) Done() <-chan struct{}    { return f.done }
func (f *fileSet) finish()                  { close(f.done) }

// recordingPass reports every batch it receives on seen
type recordingPass struct {
	seen chan []string
}

func (p *recordingPass) Name() string { return "recording" }
func (p *recordingPass) Run(_ context.Context, files []*types.SourceFile) ([]types.Diagnostic, error) {
	var paths []string
	var diags []types.Diagnostic
	for _, f := range files {
		paths = append(paths, f.Path)
		diags = append(diags, types.Diagnostic{Severity: types.SeverityInfo, Location: at(f.Path, 1, 1), Message: "seen", Source: "recording"})
	}
	p.seen <- paths
	return diags, nil
}

type staticPass struct {
	name  string
	diags []types.Diagnostic
	err   error
}

func (p *staticPass) Name() string { return p.name }
func (p *staticPass) Run(context.Context, []*types.SourceFile) ([]types.Diagnostic, error) {
	return p.diags, p.err
}

func at(path string, line, col int) types.Location {
	return types.Location{Path: path, Line: line, Column: col}
}

func TestAggregate_MaxSeverityWins(t *testing.T) {
	diags := []types.Diagnostic{
		{Severity: types.SeverityWarning, Location: at("b.ts", 1, 1), Message: "m", Source: "lint"},
		{Severity: types.SeverityError, Location: at("b.ts", 1, 1), Message: "m", Source: "typecheck"},
		{Severity: types.SeverityInfo, Location: at("a.ts", 2, 1), Message: "x", Source: "lint"},
		{Severity: types.SeverityWarning, Location: at("b.ts", 1, 1), Message: "other", Source: "lint"},
	}

	got := checks.Aggregate(diags)
	require.Len(t, got, 3)
	assert.Equal(t, "a.ts", got[0].Location.Path)
	assert.Equal(t, types.SeverityError, got[1].Severity)
	assert.Equal(t, "typecheck", got[1].Source)
	assert.Equal(t, "other", got[2].Message)

	// Input order does not matter
	reversed := []types.Diagnostic{diags[3], diags[2], diags[1], diags[0]}
	assert.Equal(t, got, checks.Aggregate(reversed))
}

func TestCoordinator_WaitsForFileSet(t *testing.T) {
	src := newFileSet(map[string]string{"a.ts": ""})
	c := checks.NewCoordinator(
		&staticPass{name: "one", diags: []types.Diagnostic{{Severity: types.SeverityWarning, Location: at("a.ts", 1, 1), Message: "m", Source: "one"}}},
		&staticPass{name: "two", diags: []types.Diagnostic{{Severity: types.SeverityError, Location: at("a.ts", 1, 1), Message: "m", Source: "two"}}},
		&staticPass{name: "broken", err: stderrors.New("boom")},
	)
	assert.Equal(t, []string{"one", "two", "broken"}, c.Passes())

	run := c.Start(context.Background(), src)

	waited := make(chan []types.Diagnostic)
	go func() { waited <- run.Wait() }()

	select {
	case <-waited:
		t.Fatal("passes must not finish before the file set is complete")
	case <-time.After(20 * time.Millisecond):
	}

	src.finish()
	diags := <-waited
	require.Len(t, diags, 2)
	assert.Equal(t, "boom", diags[0].Message)
	assert.Equal(t, "broken", diags[0].Source)
	assert.Equal(t, types.SeverityError, diags[1].Severity)
	assert.Equal(t, "two", diags[1].Source)
}

func TestCoordinator_RunsWhileFilesArrive(t *testing.T) {
	src := newFileSet(map[string]string{"src/a.ts": ""})
	pass := &recordingPass{seen: make(chan []string, 4)}
	run := checks.NewCoordinator(pass).Start(context.Background(), src)

	select {
	case paths := <-pass.seen:
		assert.Equal(t, []string{"src/a.ts"}, paths)
	case <-time.After(time.Second):
		t.Fatal("pass should run before the file set is complete")
	}

	src.add("src/b.ts", "")
	select {
	case paths := <-pass.seen:
		assert.Equal(t, []string{"src/b.ts"}, paths)
	case <-time.After(time.Second):
		t.Fatal("pass should receive files read later")
	}

	src.finish()
	diags := run.Wait()
	require.Len(t, diags, 2)
	assert.Equal(t, "src/a.ts", diags[0].Location.Path)
	assert.Equal(t, "src/b.ts", diags[1].Location.Path)
}

func TestCoordinator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	run := checks.NewCoordinator(&staticPass{name: "one"}).Start(ctx, newFileSet(nil))
	cancel()
	assert.Empty(t, run.Wait())
}

func TestFromConfig_Defaults(t *testing.T) {
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)

	c, err := checks.FromConfig(cfg.Checks)
	require.NoError(t, err)
	assert.Equal(t, []string{"lint", "typecheck"}, c.Passes())

	src := newFileSet(map[string]string{
		"src/index.tsx": "// @ts-ignore\nconst x = f(1;\nconsole.log(x);\n",
		"src/util.js":   "function f() {\n  debugger;\n}\n",
		"src/style.css": "a { }\n",
		"src/logo.png":  "debugger;",
	})
	src.finish()
	diags := c.Start(context.Background(), src).Wait()

	var got []string
	for _, d := range diags {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		"src/index.tsx:1:1: warning: @ts-ignore suppresses type checking [typecheck]",
		"src/index.tsx:2:12: error: unclosed '(' [typecheck]",
		"src/index.tsx:3:1: warning: unexpected console.log call (no-console) [lint]",
		"src/util.js:2:3: error: unexpected debugger statement (no-debugger) [lint]",
	}, got)
}

func TestFromConfig_InvalidLintRule(t *testing.T) {
	_, err := checks.FromConfig(config.ChecksConfig{Lint: config.LintConfig{
		Enabled: true,
		Rules:   []config.LintRuleConfig{{Name: "bad", Pattern: "("}},
	}})
	assert.Error(t, err)

	_, err = checks.FromConfig(config.ChecksConfig{Lint: config.LintConfig{
		Enabled: true,
		Rules:   []config.LintRuleConfig{{Name: "bad", Pattern: "x", Severity: "loud"}},
	}})
	assert.Error(t, err)
}

func TestTypeCheck_Brackets(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"balanced", "const a = [1, (2)];\nconst s = \"(\"; // )\n/* { */\nconst t = `}`;\n", ""},
		{"unclosed", "function f() {\n  return 1;\n", "a.ts:1:14: error: unclosed '{' [typecheck]"},
		{"mismatched", "const a = [1, 2);\n", "a.ts:1:16: error: unexpected ')' [typecheck]"},
		{"unterminated_string", "const s = 'abc\n", "a.ts:1:11: error: unterminated string literal [typecheck]"},
	}

	cfg := config.ChecksConfig{TypeCheck: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, err := checks.FromConfig(cfg)
			require.NoError(t, err)
			src := newFileSet(map[string]string{"a.ts": tt.src})
			src.finish()
			diags := coord.Start(context.Background(), src).Wait()
			if tt.want == "" {
				assert.Empty(t, diags)
				return
			}
			require.Len(t, diags, 1)
			assert.Equal(t, tt.want, diags[0].String())
		})
	}
}

func TestTypeCheck_JSXText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"apostrophe_in_text", "export const App = () => <p>Don't panic</p>;\n", ""},
		{"returned_element", "function App() {\n  return <div>Won't break</div>;\n}\n", ""},
		{
			"nested_expressions",
			"export const List = ({ items }: Props) => (\n  <ul className=\"list\">\n    {items.map((i) => <li key={i}>It's {i}</li>)}\n  </ul>\n);\n",
			"",
		},
		{"fragment", "const f = <>I'm here</>;\n", ""},
		{"comparisons_and_generics", "const xs: Array<string> = [];\nif (a < b) { f(); }\n", ""},
		{"unclosed_expression", "export const App = () => <p>{value</p>;\n", "a.tsx:1:29: error: unclosed '{' [typecheck]"},
		{"after_self_closing", "const a = <img src='x.png' />;\nconst b = (1;\n", "a.tsx:2:11: error: unclosed '(' [typecheck]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, err := checks.FromConfig(config.ChecksConfig{TypeCheck: true})
			require.NoError(t, err)
			src := newFileSet(map[string]string{"a.tsx": tt.src})
			src.finish()
			diags := coord.Start(context.Background(), src).Wait()
			if tt.want == "" {
				assert.Empty(t, diags)
				return
			}
			require.Len(t, diags, 1)
			assert.Equal(t, tt.want, diags[0].String())
		})
	}

	t.Run("quotes_still_checked_in_ts", func(t *testing.T) {
		coord, err := checks.FromConfig(config.ChecksConfig{TypeCheck: true})
		require.NoError(t, err)
		src := newFileSet(map[string]string{"a.ts": "const s = 'abc\n"})
		src.finish()
		diags := coord.Start(context.Background(), src).Wait()
		require.Len(t, diags, 1)
		assert.Equal(t, "unterminated string literal", diags[0].Message)
	})
}
