package output_test

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/arthur-debert/kiln/pkg/output"
	"github.com/arthur-debert/kiln/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *types.BuildResult {
	return &types.BuildResult{
		Artifacts: map[string][]byte{
			"main.css":  bytes.Repeat([]byte("a"), 2048),
			"bundle.js": []byte("run();"),
		},
		Diagnostics: []types.Diagnostic{
			{Severity: types.SeverityError, Location: types.Location{Path: "src/a.ts", Line: 2, Column: 1}, Message: "unexpected debugger statement (no-debugger)", Source: "lint"},
			{Severity: types.SeverityWarning, Message: "cache unavailable"},
		},
		Chunks:   []types.Chunk{{Name: "main", Entry: true, Modules: []string{"src/a.ts"}, Size: 6}},
		Stats:    types.GraphStats{Modules: 1},
		State:    types.StateDone,
		Duration: 1500 * time.Millisecond,
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   output.Format
		expected string
	}{
		{output.FormatAuto, "auto"},
		{output.FormatTerminal, "term"},
		{output.FormatText, "text"},
		{output.FormatJSON, "json"},
		{output.Format(999), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    output.Format
		wantErr bool
	}{
		{"", output.FormatAuto, false},
		{"AUTO", output.FormatAuto, false},
		{"terminal", output.FormatTerminal, false},
		{"plain", output.FormatText, false},
		{"json", output.FormatJSON, false},
		{"yaml", output.FormatAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := output.ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRenderer_AutoOnBufferIsText(t *testing.T) {
	var buf bytes.Buffer
	r, err := output.NewRenderer(output.FormatAuto, &buf)
	require.NoError(t, err)

	require.NoError(t, r.RenderMessage("hello"))
	assert.Equal(t, "hello\n", buf.String())
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := output.NewRenderer(output.FormatText, &buf)
	require.NoError(t, err)

	require.NoError(t, r.Render(output.NewBuildReport(sampleResult(), false)))
	assert.Equal(t,
		"src/a.ts:2:1: error: unexpected debugger statement (no-debugger) [lint]\n"+
			"warning: cache unavailable\n"+
			"bundle.js\t6 B\n"+
			"main.css\t2.0 KiB\n"+
			"build succeeded in 1.5s: 1 modules, 1 errors, 1 warnings\n",
		buf.String())
}

func TestTextRenderer_Failed(t *testing.T) {
	res := &types.BuildResult{
		State:  types.StateFailed,
		Failed: true,
		Err:    stderrors.New("no rule matches notes.txt"),
	}

	var buf bytes.Buffer
	r, err := output.NewRenderer(output.FormatText, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(output.NewBuildReport(res, true)))

	assert.Equal(t,
		"error: no rule matches notes.txt\n"+
			"build failed in 0s (dry run): 0 modules, 0 errors, 0 warnings\n",
		buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := output.NewRenderer(output.FormatJSON, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(output.NewBuildReport(sampleResult(), false)))

	var decoded struct {
		Command   string `json:"command"`
		State     string `json:"state"`
		Failed    bool   `json:"failed"`
		Artifacts []struct {
			Path string `json:"path"`
			Size int    `json:"size"`
		} `json:"artifacts"`
		Diagnostics []struct {
			Severity string `json:"severity"`
			Path     string `json:"path"`
			Line     int    `json:"line"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "build", decoded.Command)
	assert.Equal(t, "done", decoded.State)
	assert.False(t, decoded.Failed)
	require.Len(t, decoded.Artifacts, 2)
	assert.Equal(t, "bundle.js", decoded.Artifacts[0].Path)
	require.Len(t, decoded.Diagnostics, 2)
	assert.Equal(t, "error", decoded.Diagnostics[0].Severity)
	assert.Equal(t, 2, decoded.Diagnostics[0].Line)
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := output.NewRenderer(output.FormatTerminal, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(output.NewBuildReport(sampleResult(), false)))

	out := buf.String()
	assert.Contains(t, out, "Diagnostics")
	assert.Contains(t, out, "Artifacts")
	assert.Contains(t, out, "src/a.ts:2:1")
	assert.Contains(t, out, "bundle.js")
	assert.Contains(t, out, "build succeeded")
}

func TestNewCheckReport(t *testing.T) {
	diags := []types.Diagnostic{{Severity: types.SeverityError, Location: types.Location{Path: "a.tsx"}, Message: "unclosed '('"}}

	report := output.NewCheckReport(diags, types.GraphStats{Modules: 3}, time.Second)
	assert.Equal(t, "check", report.Command)
	assert.True(t, report.Failed)
	assert.Equal(t, "failed", report.State)
	assert.Equal(t, 3, report.Stats.Modules)

	clean := output.NewCheckReport(nil, types.GraphStats{}, 0)
	assert.False(t, clean.Failed)
	assert.NotNil(t, clean.Diagnostics)
}
