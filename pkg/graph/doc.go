// Package graph builds the module graph reachable from a build's entries.
//
// Files are transformed concurrently by a bounded pool. A memo table keyed
// by canonical path guarantees each file is read, matched and transformed
// at most once per build: the first requester claims the path and does the
// work, later requesters only record an edge. Cycles therefore terminate
// without special handling.
//
// Failures fall in two classes. Unresolvable specifiers, unclassifiable
// files and read errors stop the build immediately. A failing stage chain
// only marks its module as failed; after traversal the build fails if a
// failed module is reachable from an entry, and otherwise the failure is
// reported as a diagnostic.
package graph
