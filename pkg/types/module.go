package types

import (
	"fmt"
	"sort"
)

// ModuleKind decides how the emitter materializes a module
type ModuleKind string

const (
	// ModuleScript content is concatenated into the chunk's script bundle
	ModuleScript ModuleKind = "script"
	// ModuleStyle content is extracted into the chunk's stylesheet
	ModuleStyle ModuleKind = "style"
	// ModuleAsset content is copied verbatim as its own artifact
	ModuleAsset ModuleKind = "asset"
)

// Module is the result of running a SourceFile through its matched chain
type Module struct {
	Path    string
	Content []byte
	// Dependencies are resolved module paths in discovery order
	Dependencies []string
	Source       *SourceFile
	Kind         ModuleKind
	// Rule names the rule that classified the source
	Rule        string
	Diagnostics []Diagnostic
	// Err is set when the transform chain failed
	Err error
}

// Size is the module's content size in bytes
func (m *Module) Size() int {
	return len(m.Content)
}

// Failed reports whether the module's transform chain failed
func (m *Module) Failed() bool {
	return m.Err != nil
}

// ModuleGraph holds modules keyed by path and the dependency edges between
// them. It is populated by a single owner and frozen before assembly;
// mutating a frozen graph panics.
type ModuleGraph struct {
	modules map[string]*Module
	edges   map[string][]string
	entries []string
	frozen  bool
}

// NewModuleGraph creates an empty graph
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		modules: make(map[string]*Module),
		edges:   make(map[string][]string),
	}
}

func (g *ModuleGraph) mustBeMutable() {
	if g.frozen {
		panic("module graph is frozen")
	}
}

// Add inserts a module. Adding the same path twice keeps the first module.
func (g *ModuleGraph) Add(m *Module) {
	g.mustBeMutable()
	if _, exists := g.modules[m.Path]; exists {
		return
	}
	g.modules[m.Path] = m
}

// AddEdge records that from depends on to. Duplicate edges are ignored.
func (g *ModuleGraph) AddEdge(from, to string) {
	g.mustBeMutable()
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// SetEntries records the entry module paths in declaration order
func (g *ModuleGraph) SetEntries(entries []string) {
	g.mustBeMutable()
	g.entries = append([]string(nil), entries...)
}

// Entries returns the entry module paths in declaration order
func (g *ModuleGraph) Entries() []string {
	return append([]string(nil), g.entries...)
}

// Module looks up a module by path
func (g *ModuleGraph) Module(path string) (*Module, bool) {
	m, ok := g.modules[path]
	return m, ok
}

// Paths returns all module paths in lexical order
func (g *ModuleGraph) Paths() []string {
	paths := make([]string, 0, len(g.modules))
	for p := range g.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Dependencies returns the edge targets of path in discovery order
func (g *ModuleGraph) Dependencies(path string) []string {
	return g.edges[path]
}

// Len returns the number of modules
func (g *ModuleGraph) Len() int {
	return len(g.modules)
}

// EdgeCount returns the number of edges
func (g *ModuleGraph) EdgeCount() int {
	n := 0
	for _, targets := range g.edges {
		n += len(targets)
	}
	return n
}

// Freeze forbids further mutation
func (g *ModuleGraph) Freeze() {
	g.frozen = true
}

// Frozen reports whether the graph is frozen
func (g *ModuleGraph) Frozen() bool {
	return g.frozen
}

// Validate checks that every edge endpoint and entry exists in the graph
func (g *ModuleGraph) Validate() error {
	for _, from := range sortedKeys(g.edges) {
		if _, ok := g.modules[from]; !ok {
			return fmt.Errorf("edge source %s is not a module", from)
		}
		for _, to := range g.edges[from] {
			if _, ok := g.modules[to]; !ok {
				return fmt.Errorf("edge %s -> %s targets a missing module", from, to)
			}
		}
	}
	for _, e := range g.entries {
		if _, ok := g.modules[e]; !ok {
			return fmt.Errorf("entry %s is not a module", e)
		}
	}
	return nil
}

// Reachable returns every module reachable from roots, roots included, in
// depth-first preorder following edge order. Cycles are visited once.
func (g *ModuleGraph) Reachable(roots ...string) []string {
	seen := make(map[string]bool)
	var order []string
	var visit func(string)
	visit = func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		order = append(order, p)
		for _, dep := range g.edges[p] {
			visit(dep)
		}
	}
	for _, r := range roots {
		if _, ok := g.modules[r]; ok {
			visit(r)
		}
	}
	return order
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
