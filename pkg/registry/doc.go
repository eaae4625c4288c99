// Package registry provides a generic, thread-safe registry of named
// items. kiln uses it to hold transform stages and auxiliary passes so
// configuration can reference them by name.
package registry
