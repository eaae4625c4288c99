// Package resolve maps import specifiers to canonical project paths.
//
// Relative specifiers (./x, ../x) resolve against the importing file's
// directory. Root specifiers (/x) resolve against the project root. Bare
// specifiers (react, lodash/get) are looked up in each configured module
// directory: a plain directory name such as node_modules is searched from
// the importer's directory up to the root, a path such as src/lib is taken
// relative to the root. A candidate resolves as a file, then with each
// configured extension appended, then as a directory through its
// package.json main field or an index file.
package resolve

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Resolver resolves specifiers against a project filesystem. It only
// reads from the filesystem and is safe for concurrent use.
type Resolver struct {
	fs         types.FS
	extensions []string
	modules    []string
}

// New creates a resolver for the given resolve settings
func New(fsys types.FS, cfg config.ResolveConfig) *Resolver {
	return &Resolver{
		fs:         fsys,
		extensions: cfg.Extensions,
		modules:    cfg.Modules,
	}
}

// Resolve returns the canonical path that specifier, imported from the file at
// from, refers to. Failure is an UNRESOLVED_DEPENDENCY error.
func (r *Resolver) Resolve(from, specifier string) (string, error) {
	if specifier == "" {
		return "", errors.UnresolvedDependency(from, specifier)
	}

	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		if p, ok := r.resolvePath(path.Join(path.Dir(from), specifier)); ok {
			return p, nil
		}
	case strings.HasPrefix(specifier, "/"):
		if p, ok := r.resolvePath(strings.TrimPrefix(path.Clean(specifier), "/")); ok {
			return p, nil
		}
	default:
		if p, ok := r.resolveModule(path.Dir(from), specifier); ok {
			return p, nil
		}
	}
	return "", errors.UnresolvedDependency(from, specifier)
}

// Exists reports whether p names a regular file
func (r *Resolver) Exists(p string) bool {
	return r.isFile(config.NormalizePath(p))
}

func (r *Resolver) resolveModule(dir, specifier string) (string, bool) {
	for _, mod := range r.modules {
		mod = config.NormalizePath(mod)
		if strings.Contains(mod, "/") || mod == "." {
			if p, ok := r.resolvePath(path.Join(mod, specifier)); ok {
				return p, true
			}
			continue
		}
		for d := dir; ; d = path.Dir(d) {
			if p, ok := r.resolvePath(path.Join(d, mod, specifier)); ok {
				return p, true
			}
			if d == "." || d == "/" {
				break
			}
		}
	}
	return "", false
}

// resolvePath tries p as a file, with extensions, then as a directory
func (r *Resolver) resolvePath(p string) (string, bool) {
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	if f, ok := r.resolveFile(p); ok {
		return f, true
	}
	return r.resolveDir(p)
}

func (r *Resolver) resolveFile(p string) (string, bool) {
	if r.isFile(p) {
		return p, true
	}
	for _, ext := range r.extensions {
		if r.isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *Resolver) resolveDir(dir string) (string, bool) {
	if info, err := r.fs.Stat(dir); err != nil || !info.IsDir() {
		return "", false
	}

	if main := r.packageMain(dir); main != "" {
		target := path.Join(dir, main)
		if f, ok := r.resolveFile(target); ok {
			return f, true
		}
		if target != dir {
			if f, ok := r.resolveIndex(target); ok {
				return f, true
			}
		}
	}
	return r.resolveIndex(dir)
}

func (r *Resolver) resolveIndex(dir string) (string, bool) {
	for _, ext := range r.extensions {
		candidate := path.Join(dir, "index"+ext)
		if r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

type packageManifest struct {
	Module string `json:"module"`
	Main   string `json:"main"`
}

// packageMain returns the entry file declared by dir/package.json
func (r *Resolver) packageMain(dir string) string {
	data, err := r.fs.ReadFile(path.Join(dir, "package.json"))
	if err != nil {
		return ""
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	if pkg.Module != "" {
		return pkg.Module
	}
	return pkg.Main
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}
