// Test Type: Unit Test
// Description: Tests for import specifier resolution

package resolve_test

import (
	"testing"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/filesystem"
	"github.com/arthur-debert/kiln/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver() *resolve.Resolver {
	fsys := filesystem.NewMemory(map[string]string{
		"src/index.tsx":                    "",
		"src/app.ts":                       "",
		"src/util/index.ts":                "",
		"src/styles/main.less":             "",
		"src/lib/format.js":                "",
		"src/assets/logo.png":              "",
		"node_modules/react/package.json":  `{"main": "cjs/react.js"}`,
		"node_modules/react/cjs/react.js":  "",
		"node_modules/lodash/get.js":       "",
		"node_modules/tiny/index.js":       "",
		"node_modules/broken/package.json": `{not json`,
		"node_modules/broken/index.json":   "",
	})
	return resolve.New(fsys, config.ResolveConfig{
		Extensions: []string{".json", ".js", ".ts", ".tsx", ".less"},
		Modules:    []string{"node_modules", "src/lib"},
	})
}

func TestResolve(t *testing.T) {
	r := newResolver()

	tests := []struct {
		name      string
		from      string
		specifier string
		want      string
	}{
		{"relative_with_extension", "src/index.tsx", "./app.ts", "src/app.ts"},
		{"relative_extension_added", "src/index.tsx", "./app", "src/app.ts"},
		{"relative_directory_index", "src/index.tsx", "./util", "src/util/index.ts"},
		{"parent_directory", "src/util/index.ts", "../styles/main", "src/styles/main.less"},
		{"root_specifier", "src/util/index.ts", "/src/app", "src/app.ts"},
		{"package_main", "src/index.tsx", "react", "node_modules/react/cjs/react.js"},
		{"package_subpath", "src/app.ts", "lodash/get", "node_modules/lodash/get.js"},
		{"package_index", "src/app.ts", "tiny", "node_modules/tiny/index.js"},
		{"bad_manifest_falls_back_to_index", "src/app.ts", "broken", "node_modules/broken/index.json"},
		{"root_relative_module_dir", "src/app.ts", "format", "src/lib/format.js"},
		{"asset", "src/index.tsx", "./assets/logo.png", "src/assets/logo.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.from, tt.specifier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Unresolved(t *testing.T) {
	r := newResolver()

	for _, specifier := range []string{"./missing", "../../outside", "left-pad", ""} {
		_, err := r.Resolve("src/index.tsx", specifier)
		require.Error(t, err, specifier)
		assert.True(t, errors.IsErrorCode(err, errors.ErrUnresolvedDependency), specifier)
		assert.Equal(t, "src/index.tsx", errors.GetErrorDetails(err)[errors.DetailFrom])
	}
}

func TestExists(t *testing.T) {
	r := newResolver()
	assert.True(t, r.Exists("./src/app.ts"))
	assert.False(t, r.Exists("src/util"))
	assert.False(t, r.Exists("src/nope.ts"))
}
