// Test Type: Integration Test
// Description: Tests for writing artifact sets to the output directory

package emit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/emit"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writer(outDir string, clean bool) *emit.Emitter {
	return emit.New(emit.Options{
		Output:    config.OutputConfig{Clean: clean},
		OutputDir: outDir,
	}, filesystem.NewMemory(nil))
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		content, err := os.ReadFile(p)
		require.NoError(t, err)
		tree[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return tree
}

func seed(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build", "dist")

	err := writer(out, true).Write(context.Background(), emit.Artifacts{
		"main.js":           []byte("run();"),
		"assets/logo.png":   []byte("PNG"),
		"assets/font.woff2": []byte("WOFF"),
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"main.js":           "run();",
		"assets/logo.png":   "PNG",
		"assets/font.woff2": "WOFF",
	}, readTree(t, out))
}

func TestWrite_CleanReplacesPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	seed(t, out, map[string]string{"main.js": "old", "stale.js": "stale"})

	require.NoError(t, writer(out, true).Write(context.Background(), emit.Artifacts{"main.js": []byte("new")}))

	assert.Equal(t, map[string]string{"main.js": "new"}, readTree(t, out))
}

func TestWrite_MergeKeepsPreviousFiles(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	seed(t, out, map[string]string{
		"main.js":        "old",
		"robots.txt":     "keep",
		"img/logo.png":   "PNG",
		"vendors.js/old": "under a new file",
	})

	err := writer(out, false).Write(context.Background(), emit.Artifacts{
		"main.js":    []byte("new"),
		"vendors.js": []byte("v"),
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"main.js":      "new",
		"vendors.js":   "v",
		"robots.txt":   "keep",
		"img/logo.png": "PNG",
	}, readTree(t, out))
}

func TestWrite_FailureLeavesPreviousOutput(t *testing.T) {
	parent := t.TempDir()
	out := filepath.Join(parent, "dist")
	seed(t, out, map[string]string{"main.js": "old"})

	err := writer(out, true).Write(context.Background(), emit.Artifacts{
		"main.js":      []byte("new"),
		"../escape.js": []byte("x"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrEmissionFailed))

	assert.Equal(t, map[string]string{"main.js": "old"}, readTree(t, out))

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), "staging"), "staging dir %s left behind", e.Name())
	}
	_, err = os.Stat(filepath.Join(parent, "escape.js"))
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_Canceled(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	seed(t, out, map[string]string{"main.js": "old"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := writer(out, true).Write(ctx, emit.Artifacts{"main.js": []byte("new")})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"main.js": "old"}, readTree(t, out))
}
