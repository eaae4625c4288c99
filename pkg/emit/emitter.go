package emit

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tdewolff/minify/v2"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/types"
)

// HTMLFile is the name of the generated entry document
const HTMLFile = "index.html"

// Artifacts maps output paths, relative to the output directory, to
// their content
type Artifacts map[string][]byte

// Names returns the artifact paths in sorted order
func (a Artifacts) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options selects what the emitter produces
type Options struct {
	Output     config.OutputConfig
	OutputDir  string
	HTML       config.HTMLConfig
	Minify     bool
	SourceMaps bool
	Analyze    bool
}

// OptionsFromConfig derives emitter options from a build configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Output:     cfg.Output,
		OutputDir:  cfg.OutputDir(),
		HTML:       cfg.HTML,
		Minify:     cfg.MinifyEnabled(),
		SourceMaps: cfg.SourceMapsEnabled(),
		Analyze:    cfg.Analyze,
	}
}

// Emitter assembles and writes artifact sets
type Emitter struct {
	opts     Options
	fs       types.FS
	minifier *minify.M
	logger   zerolog.Logger
}

// New creates an emitter. fsys is the project filesystem the HTML
// template is read from.
func New(opts Options, fsys types.FS) *Emitter {
	return &Emitter{
		opts:     opts,
		fs:       fsys,
		minifier: newMinifier(),
		logger:   logging.GetLogger("emit"),
	}
}

// Assemble builds the artifact set for chunks. Diagnostics report
// recoverable problems such as content the minifier could not parse,
// which is then emitted unminified.
func (e *Emitter) Assemble(chunks []types.Chunk, graph *types.ModuleGraph) (Artifacts, []types.Diagnostic, error) {
	artifacts := make(Artifacts)
	var diags []types.Diagnostic
	chunkFiles := make(map[string][]string)
	var scripts, styles []string

	primary := ""
	for _, c := range chunks {
		if c.Entry {
			primary = c.Name
			break
		}
	}

	for _, c := range chunks {
		var js, css []mapSegment
		for _, p := range c.Modules {
			m, ok := graph.Module(p)
			if !ok {
				return nil, nil, errors.Newf(errors.ErrInternal, "chunk %s lists unknown module %s", c.Name, p)
			}
			switch m.Kind {
			case types.ModuleAsset:
				name := assetFileName(e.opts.Output.AssetFilename, m.Path, m.Content)
				if err := addArtifact(artifacts, name, m.Content); err != nil {
					return nil, nil, err
				}
				chunkFiles[c.Name] = appendUnique(chunkFiles[c.Name], name)
			case types.ModuleStyle:
				css = append(css, segmentOf(m))
			default:
				js = append(js, segmentOf(m))
			}
		}

		if len(js) > 0 || c.Entry {
			name, d, err := e.emitCode(artifacts, c.Name, c.Name == primary, js, false)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, d...)
			chunkFiles[c.Name] = append(chunkFiles[c.Name], name)
			scripts = append(scripts, name)
		}
		if len(css) > 0 {
			name, d, err := e.emitCode(artifacts, c.Name, c.Name == primary, css, true)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, d...)
			chunkFiles[c.Name] = append(chunkFiles[c.Name], name)
			styles = append(styles, name)
		}
	}

	if e.opts.HTML.Enabled {
		doc, d, err := e.renderHTML(styles, scripts)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, d...)
		if err := addArtifact(artifacts, HTMLFile, doc); err != nil {
			return nil, nil, err
		}
	}

	if e.opts.Analyze {
		report, err := renderStats(chunks, graph, chunkFiles, artifacts)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrInternal, "failed to render stats")
		}
		artifacts[StatsFile] = report
	}

	e.logger.Debug().Int("artifacts", len(artifacts)).Msg("Assembled artifact set")
	return artifacts, diags, nil
}

// emitCode concatenates segments into one script or stylesheet artifact
// and returns its name
func (e *Emitter) emitCode(artifacts Artifacts, chunk string, primary bool, segments []mapSegment, style bool) (string, []types.Diagnostic, error) {
	parts := make([][]byte, len(segments))
	for i, s := range segments {
		parts[i] = s.generated
	}
	content := bytes.Join(parts, []byte("\n"))

	pattern, ext, media := e.opts.Output.Filename, ".js", mediaJS
	if style {
		pattern, ext, media = e.opts.Output.CSSFilename, ".css", mediaCSS
	}

	var diags []types.Diagnostic
	if e.opts.Minify {
		minified, err := e.minifier.Bytes(media, content)
		if err != nil {
			e.logger.Warn().Err(err).Str("chunk", chunk).Msg("Minification failed, emitting unminified output")
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityWarning,
				Location: types.Location{Path: chunk + ext},
				Message:  fmt.Sprintf("not minified: %v", err),
				Source:   "minify",
			})
		} else {
			content = minified
		}
	}

	name := chunkFileName(pattern, chunk, ext, primary, content)

	if e.opts.SourceMaps && !e.opts.Minify {
		mapName := name + ".map"
		sm, err := buildSourceMap(name, segments)
		if err != nil {
			return "", nil, errors.Wrap(err, errors.ErrInternal, "failed to build source map")
		}
		if err := addArtifact(artifacts, mapName, sm); err != nil {
			return "", nil, err
		}
		content = append(content, sourceMapTrailer(path.Base(mapName), style)...)
	}

	if err := addArtifact(artifacts, name, content); err != nil {
		return "", nil, err
	}
	return name, diags, nil
}

func (e *Emitter) renderHTML(styles, scripts []string) ([]byte, []types.Diagnostic, error) {
	var diags []types.Diagnostic
	var doc []byte

	if tpl := e.opts.HTML.Template; tpl != "" {
		content, err := e.fs.ReadFile(config.NormalizePath(tpl))
		switch {
		case err == nil:
			doc = content
		case stderrors.Is(err, fs.ErrNotExist):
			e.logger.Warn().Str("template", tpl).Msg("HTML template not found, using built-in template")
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityWarning,
				Location: types.Location{Path: config.NormalizePath(tpl)},
				Message:  "html template not found, using the built-in template",
				Source:   "html",
			})
		default:
			return nil, nil, errors.Wrapf(err, errors.ErrNotFound, "cannot read html template %s", tpl)
		}
	}
	if doc == nil {
		builtin, err := renderBuiltinHTML(e.opts.HTML.Title)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrInternal, "failed to render html")
		}
		doc = builtin
	}

	doc = injectTags(doc, styles, scripts)
	if e.opts.Minify {
		if minified, err := e.minifier.Bytes(mediaHTML, doc); err == nil {
			doc = minified
		}
	}
	return doc, diags, nil
}

func segmentOf(m *types.Module) mapSegment {
	seg := mapSegment{source: m.Path, generated: m.Content}
	if m.Source != nil {
		seg.original = m.Source.Content
	}
	return seg
}

// addArtifact stores content under name. The same name may only be
// produced twice with identical content, which happens for assets
// duplicated across chunks.
func addArtifact(artifacts Artifacts, name string, content []byte) error {
	if existing, ok := artifacts[name]; ok && !bytes.Equal(existing, content) {
		return errors.Newf(errors.ErrEmissionFailed, "conflicting content for artifact %s", name).
			WithDetail(errors.DetailPath, name)
	}
	artifacts[name] = content
	return nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
