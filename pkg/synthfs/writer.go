// Package synthfs writes file trees through a synthfs pipeline.
//
// The emitter stages every artifact of a build into a fresh directory with
// a single pipeline run, so either the whole tree is written or the run
// reports the first failure.
package synthfs

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
)

// File is one file of a tree. Path is slash-separated and relative to the
// tree root.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// Writer materializes file trees
type Writer struct {
	logger zerolog.Logger
}

// NewWriter creates a writer
func NewWriter() *Writer {
	return &Writer{logger: logging.GetLogger("synthfs")}
}

// WriteTree writes files under root, which must exist. Parent directories
// are created as needed. Paths that are absolute or leave root are
// rejected before anything is written.
func (w *Writer) WriteTree(ctx context.Context, root string, files []File) error {
	dirs := make(map[string]bool)
	for _, f := range files {
		if err := validateRelPath(f.Path); err != nil {
			return err
		}
		for d := path.Dir(f.Path); d != "."; d = path.Dir(d) {
			dirs[d] = true
		}
	}

	dirList := make([]string, 0, len(dirs))
	for d := range dirs {
		dirList = append(dirList, d)
	}
	// Parents sort before their children
	sort.Strings(dirList)

	pipeline := synthfs.NewMemPipeline()
	for _, d := range dirList {
		op := operations.NewCreateDirectoryOperation(core.OperationID("mkdir-"+d), d)
		op.SetItem(&directoryItem{path: d, mode: 0o755})
		if err := pipeline.Add(synthfs.NewOperationsPackageAdapter(op)); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to add directory %s to pipeline", d)
		}
	}
	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		op := operations.NewCreateFileOperation(core.OperationID("write-"+f.Path), f.Path)
		op.SetItem(&fileItem{path: f.Path, content: f.Content, mode: mode})
		if err := pipeline.Add(synthfs.NewOperationsPackageAdapter(op)); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to add file %s to pipeline", f.Path)
		}
	}

	w.logger.Debug().
		Str("root", root).
		Int("directories", len(dirList)).
		Int("files", len(files)).
		Msg("Writing file tree")

	result := synthfs.NewExecutor().Run(ctx, pipeline, filesystem.NewOSFileSystem(root))
	if err := result.GetError(); err != nil {
		w.logger.Error().Err(err).Str("root", root).Msg("Pipeline execution failed")
		return err
	}
	return nil
}

func validateRelPath(p string) error {
	clean := path.Clean(p)
	if p == "" || path.IsAbs(p) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || clean != p {
		return errors.Newf(errors.ErrInvalidInput, "invalid tree path %q", p).
			WithDetail(errors.DetailPath, p)
	}
	return nil
}

// fileItem implements the interface needed for file operations
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }

// directoryItem implements the interface needed for directory operations
type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }
