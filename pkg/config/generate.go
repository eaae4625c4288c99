package config

import (
	"bytes"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

// MarshalTOML renders the effective configuration as a TOML document that
// can be saved as kiln.toml
func MarshalTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return buf.Bytes(), nil
}
