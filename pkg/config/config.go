package config

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Build modes
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// AssetResourceType marks a rule whose matches are copied verbatim
const AssetResourceType = "asset/resource"

// Config is the fully merged build configuration. It is passed explicitly
// to every component; nothing reads the process environment after loading.
type Config struct {
	Mode string `koanf:"mode" toml:"mode"`
	Root string `koanf:"root" toml:"root"`
	// Entry lists entry paths; chunk names derive from the file names
	Entry []string `koanf:"entry" toml:"entry"`
	// Entries names entry chunks explicitly and takes precedence over Entry
	Entries         map[string]string `koanf:"entries" toml:"entries,omitempty"`
	AssetExtensions []string          `koanf:"asset_extensions" toml:"asset_extensions"`
	Analyze         bool              `koanf:"analyze" toml:"analyze"`
	Workers         int               `koanf:"workers" toml:"workers"`
	// Minify and SourceMaps default from Mode when unset
	Minify     *bool `koanf:"minify" toml:"minify,omitempty"`
	SourceMaps *bool `koanf:"source_maps" toml:"source_maps,omitempty"`

	Output      OutputConfig      `koanf:"output" toml:"output"`
	Resolve     ResolveConfig     `koanf:"resolve" toml:"resolve"`
	SplitChunks SplitChunksConfig `koanf:"split_chunks" toml:"split_chunks"`
	HTML        HTMLConfig        `koanf:"html" toml:"html"`
	Cache       CacheConfig       `koanf:"cache" toml:"cache"`
	Checks      ChecksConfig      `koanf:"checks" toml:"checks"`
	Rules       []RuleConfig      `koanf:"rules" toml:"rules"`
}

// OutputConfig controls where and under which names artifacts are written
type OutputConfig struct {
	Dir string `koanf:"dir" toml:"dir"`
	// Filename is the script bundle name pattern; [name] is the chunk name
	Filename      string `koanf:"filename" toml:"filename"`
	CSSFilename   string `koanf:"css_filename" toml:"css_filename"`
	AssetFilename string `koanf:"asset_filename" toml:"asset_filename"`
	Clean         bool   `koanf:"clean" toml:"clean"`
}

// ResolveConfig controls how import specifiers map to files
type ResolveConfig struct {
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Modules    []string `koanf:"modules" toml:"modules"`
}

// SplitChunksConfig is the chunk grouping policy
type SplitChunksConfig struct {
	Enabled bool `koanf:"enabled" toml:"enabled"`
	MinSize int  `koanf:"min_size" toml:"min_size"`
	Shared  bool `koanf:"shared" toml:"shared"`
	Vendors bool `koanf:"vendors" toml:"vendors"`
}

// HTMLConfig controls generation of the entry HTML document
type HTMLConfig struct {
	Enabled  bool   `koanf:"enabled" toml:"enabled"`
	Template string `koanf:"template" toml:"template"`
	Title    string `koanf:"title" toml:"title"`
}

// CacheConfig controls the persistent transform cache
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
}

// ChecksConfig enables the auxiliary verification passes
type ChecksConfig struct {
	Lint      LintConfig `koanf:"lint" toml:"lint"`
	TypeCheck bool       `koanf:"typecheck" toml:"typecheck"`
	// Fatal turns error findings into a failed build result
	Fatal bool `koanf:"fatal" toml:"fatal"`
}

// LintConfig configures the regex lint pass
type LintConfig struct {
	Enabled bool             `koanf:"enabled" toml:"enabled"`
	Rules   []LintRuleConfig `koanf:"rules" toml:"rules"`
}

// LintRuleConfig is one lint rule
type LintRuleConfig struct {
	Name     string `koanf:"name" toml:"name"`
	Pattern  string `koanf:"pattern" toml:"pattern"`
	Files    string `koanf:"files" toml:"files,omitempty"`
	Message  string `koanf:"message" toml:"message"`
	Severity string `koanf:"severity" toml:"severity"`
}

// RuleConfig declares one transform rule
type RuleConfig struct {
	Name    string        `koanf:"name" toml:"name,omitempty"`
	Test    string        `koanf:"test" toml:"test"`
	Exclude string        `koanf:"exclude" toml:"exclude,omitempty"`
	Use     []StageConfig `koanf:"use" toml:"use,omitempty"`
	Type    string        `koanf:"type" toml:"type,omitempty"`
}

// StageConfig references a registered stage with its options
type StageConfig struct {
	Stage   string                 `koanf:"stage" toml:"stage"`
	Options map[string]interface{} `koanf:"options" toml:"options,omitempty"`
}

// Development reports whether the build runs in development mode
func (c *Config) Development() bool {
	return c.Mode == ModeDevelopment
}

// MinifyEnabled reports whether artifacts are minified
func (c *Config) MinifyEnabled() bool {
	if c.Minify != nil {
		return *c.Minify
	}
	return !c.Development()
}

// SourceMapsEnabled reports whether source maps are emitted
func (c *Config) SourceMapsEnabled() bool {
	if c.SourceMaps != nil {
		return *c.SourceMaps
	}
	return c.Development()
}

// OutputDir returns the absolute output directory
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(c.Root, c.Output.Dir)
}

// EntryPoint is a named entry path
type EntryPoint struct {
	Name string
	Path string
}

// EntryPoints returns entries in a deterministic order. Named entries are
// sorted by name. A single unnamed entry is called "main"; several unnamed
// entries are named after their file names without extension, with a
// ~N suffix when names repeat.
func (c *Config) EntryPoints() []EntryPoint {
	if len(c.Entries) > 0 {
		names := make([]string, 0, len(c.Entries))
		for name := range c.Entries {
			names = append(names, name)
		}
		sort.Strings(names)
		eps := make([]EntryPoint, 0, len(names))
		for _, name := range names {
			eps = append(eps, EntryPoint{Name: name, Path: NormalizePath(c.Entries[name])})
		}
		return eps
	}

	if len(c.Entry) == 1 {
		return []EntryPoint{{Name: "main", Path: NormalizePath(c.Entry[0])}}
	}

	eps := make([]EntryPoint, 0, len(c.Entry))
	used := make(map[string]bool, len(c.Entry))
	for _, e := range c.Entry {
		p := NormalizePath(e)
		base := path.Base(p)
		name := strings.TrimSuffix(base, path.Ext(base))
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s~%d", strings.TrimSuffix(base, path.Ext(base)), n)
		}
		used[name] = true
		eps = append(eps, EntryPoint{Name: name, Path: p})
	}
	return eps
}

// NormalizePath turns a configured path into kiln's canonical form:
// slash-separated, cleaned and without a leading "./"
func NormalizePath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "./")
}
