// Package cache persists transform results between builds.
//
// Entries are msgpack-encoded files named after a SHA-256 key that covers
// the source path, its content and the full stage chain with options, so
// any change to one of them misses. Writes go to a temp file that is
// renamed into place.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Schema is bumped whenever the Entry layout changes
const Schema uint16 = 1

// Key identifies one transform result
type Key [sha256.Size]byte

// String returns the hex form of the key
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Entry is a cached stage chain result
type Entry struct {
	Schema      uint16
	Content     []byte
	Specifiers  []string
	Diagnostics []types.Diagnostic
	Extract     bool
}

// DiskCache stores entries under a directory. It is safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir is the cache location used when none is configured
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, logging.AppDirName, "transforms")
}

// Open creates the cache directory if needed. An empty dir selects
// DefaultDir.
func Open(dir string) (*DiskCache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	hexKey := key.String()
	return filepath.Join(c.dir, hexKey[:2], hexKey+".mp")
}

// Put writes an entry
func (c *DiskCache) Put(key Key, entry *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	entry.Schema = Schema
	if err := msgpack.NewEncoder(f).Encode(entry); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads an entry. Entries written with another schema are misses.
func (c *DiskCache) Get(key Key) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() { _ = f.Close() }()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, err
	}
	if entry.Schema != Schema {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Clear removes every entry
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
