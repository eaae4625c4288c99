package cache

import (
	"bytes"
	"crypto/sha256"

	"github.com/vmihailenco/msgpack/v5"
)

// StageKey is the part of a cache key contributed by one stage
type StageKey struct {
	Name    string
	Options map[string]interface{}
}

// NewKey derives the key for running stages over content at path. Option
// maps are encoded with sorted keys so equal options give equal keys.
func NewKey(path string, content []byte, stages []StageKey) (Key, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)

	if err := enc.EncodeUint16(Schema); err != nil {
		return Key{}, err
	}
	if err := enc.EncodeString(path); err != nil {
		return Key{}, err
	}
	if err := enc.EncodeBytes(content); err != nil {
		return Key{}, err
	}
	for _, s := range stages {
		if err := enc.EncodeString(s.Name); err != nil {
			return Key{}, err
		}
		if err := enc.Encode(s.Options); err != nil {
			return Key{}, err
		}
	}
	return sha256.Sum256(buf.Bytes()), nil
}
