// Package transform runs a source file through the stage chain of its
// matched rule.
package transform

import (
	"context"

	"github.com/arthur-debert/kiln/pkg/cache"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/rules"
	"github.com/arthur-debert/kiln/pkg/stages"
	"github.com/arthur-debert/kiln/pkg/types"
	"github.com/rs/zerolog"
)

// Executor runs stage chains. It holds no per-file state and is safe for
// concurrent use.
type Executor struct {
	cache  *cache.DiskCache
	logger zerolog.Logger
}

// NewExecutor creates an executor. c may be nil to disable caching.
func NewExecutor(c *cache.DiskCache) *Executor {
	return &Executor{
		cache:  c,
		logger: logging.GetLogger("transform"),
	}
}

// Run transforms file according to match. The returned module carries the
// dependency specifiers discovered by the stages, in discovery order and
// without exact duplicates; resolving them is the caller's job.
//
// Stages run strictly in declared order. Cancellation is observed between
// stages: a stage that has started always completes. A failing stage
// yields a TRANSFORM_FAILED error naming the stage and the file.
func (e *Executor) Run(ctx context.Context, file *types.SourceFile, match rules.Match) (*types.Module, error) {
	module := &types.Module{
		Path:   file.Path,
		Source: file,
		Rule:   match.RuleName(),
		Kind:   types.ModuleScript,
	}

	if match.Kind == rules.MatchKindAsset {
		module.Kind = types.ModuleAsset
		module.Content = file.Content
		return module, nil
	}

	chain := match.Rule.Stages
	key, cacheable := e.cacheKey(file, chain)
	if cacheable {
		if entry, ok, err := e.cache.Get(key); err != nil {
			e.logger.Warn().Err(err).Str("path", file.Path).Msg("Ignoring unreadable cache entry")
		} else if ok {
			e.logger.Trace().Str("path", file.Path).Msg("Transform cache hit")
			module.Content = entry.Content
			module.Dependencies = entry.Specifiers
			module.Diagnostics = entry.Diagnostics
			if entry.Extract {
				module.Kind = types.ModuleStyle
			}
			return module, nil
		}
	}

	content := file.Content
	var specs dedupe
	var diags []types.Diagnostic
	extract := false

	for _, ref := range chain {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCanceled,
				"transform of %s canceled before stage %s", file.Path, ref.Name)
		}

		out, err := ref.Stage.Transform(ctx, stages.Input{
			Path:        file.Path,
			Content:     content,
			Options:     ref.Options,
			ContentType: file.ContentType,
		})
		if err != nil {
			e.logger.Debug().
				Err(err).
				Str("path", file.Path).
				Str("stage", ref.Name).
				Msg("Stage failed")
			return nil, errors.TransformFailed(ref.Name, file.Path, err)
		}

		content = out.Content
		specs.add(out.Dependencies...)
		for _, d := range out.Diagnostics {
			if d.Source == "" {
				d.Source = ref.Name
			}
			diags = append(diags, d)
		}
		extract = extract || out.Extract
	}

	module.Content = content
	module.Dependencies = specs.list
	module.Diagnostics = diags
	if extract {
		module.Kind = types.ModuleStyle
	}

	if cacheable {
		err := e.cache.Put(key, &cache.Entry{
			Content:     content,
			Specifiers:  specs.list,
			Diagnostics: diags,
			Extract:     extract,
		})
		if err != nil {
			e.logger.Warn().Err(err).Str("path", file.Path).Msg("Failed to write cache entry")
		}
	}

	e.logger.Trace().
		Str("path", file.Path).
		Str("rule", module.Rule).
		Int("stages", len(chain)).
		Int("dependencies", len(specs.list)).
		Msg("Transformed module")
	return module, nil
}

func (e *Executor) cacheKey(file *types.SourceFile, chain []rules.StageRef) (cache.Key, bool) {
	if e.cache == nil {
		return cache.Key{}, false
	}
	keys := make([]cache.StageKey, len(chain))
	for i, ref := range chain {
		keys[i] = cache.StageKey{Name: ref.Name, Options: ref.Options}
	}
	key, err := cache.NewKey(file.Path, file.Content, keys)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", file.Path).Msg("Cannot derive cache key")
		return cache.Key{}, false
	}
	return key, true
}

// dedupe accumulates strings in first-seen order
type dedupe struct {
	seen map[string]bool
	list []string
}

func (d *dedupe) add(items ...string) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	for _, s := range items {
		if d.seen[s] {
			continue
		}
		d.seen[s] = true
		d.list = append(d.list, s)
	}
}
