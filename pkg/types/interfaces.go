package types

import (
	"io/fs"
)

// FS is the read-only filesystem interface kiln reads project sources from.
// Names are slash-separated and relative to the project root.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}
