package kiln

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/kiln/pkg/output"
)

const testProject = `
entry = ["src/index.ts"]

[html]
enabled = false
`

// setupProject writes a kiln project into a temp dir and returns its root
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func defaultProject(t *testing.T) string {
	return setupProject(t, map[string]string{
		"kiln.toml":    testProject,
		"src/index.ts": "import { b } from './b';\nexport const a = b + 1;\n",
		"src/b.ts":     "export const b = 1;\n",
	})
}

// execute runs the root command with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeReport(t *testing.T, out string) output.Report {
	t.Helper()
	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	return report
}

func TestBuildCmd_DryRunJSON(t *testing.T) {
	root := defaultProject(t)

	out, err := execute(t, "build", "--root", root, "--format", "json", "--dry-run", "--no-minify")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, "build", report.Command)
	assert.Equal(t, "done", report.State)
	assert.False(t, report.Failed)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Stats.Modules)
	assert.Equal(t, 1, report.Stats.Edges)

	require.Len(t, report.Artifacts, 1)
	assert.Equal(t, "bundle.js", report.Artifacts[0].Path)

	_, statErr := os.Stat(filepath.Join(root, "dist"))
	assert.True(t, os.IsNotExist(statErr), "dry run must not write output")
}

func TestBuildCmd_WritesOutput(t *testing.T) {
	root := defaultProject(t)

	_, err := execute(t, "build", "--root", root, "--format", "text", "--no-minify", "--out", "public")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "public", "bundle.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "export const b = 1;")
}

func TestBuildCmd_EntriesFromArgs(t *testing.T) {
	root := setupProject(t, map[string]string{
		"kiln.toml":    testProject,
		"src/admin.ts": "export const admin = true;\n",
	})

	out, err := execute(t, "build", "src/admin.ts", "--root", root, "--format", "json", "--dry-run", "--no-minify")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, 1, report.Stats.Modules)
	require.Len(t, report.Chunks, 1)
	assert.Equal(t, "main", report.Chunks[0].Name)
}

func TestBuildCmd_FailureIsReported(t *testing.T) {
	root := setupProject(t, map[string]string{
		"kiln.toml":     testProject,
		"src/index.ts":  "import notes from './notes.txt';\n",
		"src/notes.txt": "hello",
	})

	out, err := execute(t, "build", "--root", root, "--format", "json")
	require.ErrorIs(t, err, ErrFailed)

	report := decodeReport(t, out)
	assert.True(t, report.Failed)
	assert.Equal(t, "failed", report.State)
	assert.Contains(t, report.Error, "NO_MATCHING_RULE")
	assert.Empty(t, report.Artifacts)
}

func TestCheckCmd(t *testing.T) {
	t.Run("clean_project", func(t *testing.T) {
		root := defaultProject(t)

		out, err := execute(t, "check", "--root", root, "--format", "json")
		require.NoError(t, err)

		report := decodeReport(t, out)
		assert.Equal(t, "check", report.Command)
		assert.False(t, report.Failed)
		assert.Equal(t, 2, report.Stats.Modules)
	})

	t.Run("error_finding_fails", func(t *testing.T) {
		root := setupProject(t, map[string]string{
			"kiln.toml":    testProject,
			"src/index.ts": "export const a = 1;\ndebugger;\n",
		})

		out, err := execute(t, "check", "--root", root, "--format", "json")
		require.ErrorIs(t, err, ErrFailed)

		report := decodeReport(t, out)
		assert.True(t, report.Failed)
		require.NotEmpty(t, report.Diagnostics)
		assert.Equal(t, "error", report.Diagnostics[0].Severity)
		assert.Equal(t, "src/index.ts", report.Diagnostics[0].Path)
	})
}

func TestConfigCmd(t *testing.T) {
	root := defaultProject(t)

	out, err := execute(t, "config", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "src/index.ts")
	assert.Contains(t, out, "[output]")
	assert.Contains(t, out, "bundle.js")
}

func TestConfigCmd_InvalidFile(t *testing.T) {
	root := setupProject(t, map[string]string{
		"kiln.toml": "entry = [\n",
	})

	_, err := execute(t, "config", "--root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln dev")
}

func TestTopicsCmd(t *testing.T) {
	out, err := execute(t, "topics")
	require.NoError(t, err)

	for _, name := range []string{"chunks", "rules", "stages", "--dry-run"} {
		assert.Contains(t, out, name)
	}
}

func TestCompletionCmd(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestRootCmd(t *testing.T) {
	t.Run("no_command", func(t *testing.T) {
		_, err := execute(t)
		require.Error(t, err)
		assert.Equal(t, MsgErrNoCommand, err.Error())
	})

	t.Run("bad_format", func(t *testing.T) {
		root := defaultProject(t)
		_, err := execute(t, "build", "--root", root, "--format", "xml")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrFailed)
	})
}
