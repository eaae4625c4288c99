// Package checks runs auxiliary verification passes (lint, type checks)
// alongside graph construction.
//
// Passes start on their own goroutines as soon as the coordinator is
// started and wait for the file set to be complete. They only read
// SourceFile contents and never influence the build's artifacts. Their
// findings are merged: the same message at the same location reported by
// several passes collapses into one diagnostic carrying the highest
// severity.
package checks
