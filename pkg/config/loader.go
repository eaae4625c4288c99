package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "KILN_"

// ProjectFiles are the project configuration file names, in lookup order
var ProjectFiles = []string{"kiln.toml", ".kiln.toml", "kiln.yaml", "kiln.yml"}

// LoadOptions controls configuration loading
type LoadOptions struct {
	// Root is the project root; defaults to the working directory
	Root string
	// File is an explicit configuration file; when empty the project
	// root is searched for ProjectFiles
	File string
	// Overrides are applied last, keyed by dotted koanf paths
	Overrides map[string]interface{}
	// SkipEnv disables KILN_* environment variables
	SkipEnv bool
}

// Load builds the effective configuration
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config.loader")

	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to determine working directory")
		}
		root = wd
	}

	// 2. Project file
	configPath, err := findProjectFile(root, opts.File)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		logger.Debug().Str("file", configPath).Msg("Loading project configuration")
		if err := k.Load(file.Provider(configPath), parserFor(configPath)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to load project config from %s", configPath)
		}
	}

	// 3. Environment
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 4. Command-line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(root, cfg.Root)
	}

	if err := postProcessConfig(cfg); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("mode", cfg.Mode).
		Str("root", cfg.Root).
		Int("rules", len(cfg.Rules)).
		Msg("Configuration loaded")

	return cfg, nil
}

// Default returns the embedded defaults rooted at root, ignoring project
// files and the environment
func Default(root string) (*Config, error) {
	return Load(LoadOptions{Root: root, File: "-", SkipEnv: true})
}

func findProjectFile(root, explicit string) (string, error) {
	switch explicit {
	case "-":
		return "", nil
	case "":
	default:
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", explicit)
		}
		return explicit, nil
	}

	for _, name := range ProjectFiles {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				stringToStageConfigHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

// stringToStageConfigHookFunc lets rules list stages by bare name
func stringToStageConfigHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(StageConfig{}) {
			return data, nil
		}
		return StageConfig{Stage: data.(string)}, nil
	}
}

func postProcessConfig(cfg *Config) error {
	switch cfg.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return errors.Newf(errors.ErrConfigValid,
			"mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, cfg.Mode)
	}

	if len(cfg.Entry) == 0 && len(cfg.Entries) == 0 {
		return errors.New(errors.ErrConfigValid, "no entry points configured")
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if cfg.SplitChunks.MinSize < 0 {
		return errors.Newf(errors.ErrConfigValid,
			"split_chunks.min_size must not be negative, got %d", cfg.SplitChunks.MinSize)
	}

	cfg.Resolve.Extensions = normalizeExtensions(cfg.Resolve.Extensions)
	cfg.AssetExtensions = normalizeExtensions(cfg.AssetExtensions)

	for i, rule := range cfg.Rules {
		if rule.Test == "" {
			return errors.Newf(errors.ErrConfigValid, "rule %d has empty test", i)
		}
		if rule.Type == "" && len(rule.Use) == 0 {
			return errors.Newf(errors.ErrConfigValid, "rule %d (%s) has no stages", i, rule.Test)
		}
		if rule.Type != "" && rule.Type != AssetResourceType {
			return errors.Newf(errors.ErrConfigValid, "rule %d has unknown type %q", i, rule.Type)
		}
		if rule.Name == "" {
			cfg.Rules[i].Name = fmt.Sprintf("rule-%d", i)
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(cfg.Root, cfg.Cache.Dir)
	}

	return nil
}

// normalizeExtensions adds a missing leading dot and lower-cases, so
// "scss" and ".SCSS" both become ".scss"
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool)
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
