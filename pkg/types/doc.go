// Package types defines the core data model shared by every kiln component:
// source files, modules and the module graph, chunks, diagnostics and the
// build result with its state machine. It also declares the FS interface
// used to read project sources.
package types
