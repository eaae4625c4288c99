// Package build drives one build invocation.
//
// Build walks the state machine
//
//	init -> resolving -> transforming -> assembling -> emitting -> done
//
// and falls to failed from any step. Auxiliary checks start together with
// graph construction and are merged after emission; with checks.fatal set
// an error finding marks the result failed without touching the written
// artifacts.
package build
