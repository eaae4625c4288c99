// Package filesystem provides filesystem implementations for kiln.
//
// This package contains implementations of the types.FS interface,
// including the OS filesystem rooted at a project directory and an
// in-memory filesystem used by tests and embedders.
package filesystem
