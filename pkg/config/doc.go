// Package config handles configuration management for kiln.
//
// Configuration is layered with koanf: the embedded defaults.toml (which
// reproduces a conventional TypeScript/style/asset rule table), then the
// project file (kiln.toml, .kiln.toml, kiln.yaml or kiln.yml), then KILN_*
// environment variables, then explicit overrides from the command line.
// Every field has a default, so an empty project needs no configuration.
//
// Environment variables map to keys by lower-casing and using a double
// underscore for nesting:
//
//	KILN_MODE=development            -> mode
//	KILN_OUTPUT__DIR=build           -> output.dir
//	KILN_SPLIT_CHUNKS__MIN_SIZE=1000 -> split_chunks.min_size
package config
