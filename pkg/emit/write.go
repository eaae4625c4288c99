package emit

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/synthfs"
)

// Write materializes artifacts in the output directory. The set is
// written to a staging directory next to it first; only a complete
// staging tree replaces the previous output. With output.clean off, files
// of the previous output that the new set does not overwrite are carried
// over. On failure the staging tree is removed and the previous output is
// left as it was.
func (e *Emitter) Write(ctx context.Context, artifacts Artifacts) error {
	outDir := e.opts.OutputDir
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.EmissionFailed(outDir, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(outDir)+".staging-")
	if err != nil {
		return errors.EmissionFailed(outDir, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	files := make([]synthfs.File, 0, len(artifacts))
	for _, name := range artifacts.Names() {
		files = append(files, synthfs.File{Path: name, Content: artifacts[name]})
	}
	if !e.opts.Output.Clean {
		kept, err := previousOutput(outDir, artifacts)
		if err != nil {
			return errors.EmissionFailed(outDir, err)
		}
		files = append(files, kept...)
	}

	if err := synthfs.NewWriter().WriteTree(ctx, staging, files); err != nil {
		return errors.EmissionFailed(outDir, err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCanceled, "emission canceled")
	}

	if err := swapDir(staging, outDir); err != nil {
		return errors.EmissionFailed(outDir, err)
	}
	committed = true

	e.logger.Info().
		Str("dir", outDir).
		Int("files", len(files)).
		Msg("Wrote artifacts")
	return nil
}

// previousOutput reads the files of dir that artifacts does not replace
func previousOutput(dir string, artifacts Artifacts) ([]synthfs.File, error) {
	var kept []synthfs.File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, replaced := artifacts[rel]; replaced || conflicts(rel, artifacts) {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		kept = append(kept, synthfs.File{Path: rel, Content: content, Mode: info.Mode().Perm()})
		return nil
	})
	return kept, err
}

// conflicts reports whether rel would be a directory or a file under a
// new artifact
func conflicts(rel string, artifacts Artifacts) bool {
	for name := range artifacts {
		if strings.HasPrefix(name, rel+"/") || strings.HasPrefix(rel, name+"/") {
			return true
		}
	}
	return false
}

// swapDir replaces dst with src. An existing dst is moved aside first and
// restored if src cannot be moved into place.
func swapDir(src, dst string) error {
	backup := ""
	if _, err := os.Stat(dst); err == nil {
		backup = dst + ".previous"
		if err := os.RemoveAll(backup); err != nil {
			return err
		}
		if err := os.Rename(dst, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dst); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dst)
		}
		return err
	}
	if backup != "" {
		return os.RemoveAll(backup)
	}
	return nil
}
