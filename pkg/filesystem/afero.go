package filesystem

import (
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/kiln/pkg/types"
)

// aferoFS implements types.FS using afero. Names are slash-separated and
// converted to the host separator before reaching the backing Fs.
type aferoFS struct {
	fs afero.Fs
}

// NewAferoFS creates a types.FS over an afero filesystem
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs}
}

// NewOS creates a read view of the OS filesystem rooted at root. Names
// that escape root do not exist.
func NewOS(root string) types.FS {
	return NewAferoFS(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), root)))
}

// NewMemory creates an in-memory filesystem from path -> content pairs
func NewMemory(files map[string]string) types.FS {
	mem := afero.NewMemMapFs()
	for name, content := range files {
		p := filepath.FromSlash(name)
		if err := mem.MkdirAll(filepath.Dir(p), 0755); err != nil {
			panic(err)
		}
		if err := afero.WriteFile(mem, p, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	return NewAferoFS(mem)
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(filepath.FromSlash(name))
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	p := filepath.FromSlash(name)
	info, err := a.fs.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, p)
}
