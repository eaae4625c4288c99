// Package chunks groups the modules of a frozen graph into output chunks.
//
// Every entry seeds an entry chunk holding the modules reachable from it,
// dependencies before dependents. Modules reachable from more than one
// entry are shared: when shared grouping is on and their combined size
// reaches the configured minimum they move to a single shared chunk,
// otherwise each consuming entry chunk keeps its own copy. Packages under
// node_modules can likewise be grouped into a vendors chunk.
//
// Assembly only reads the graph, so chunk contents depend on the graph
// alone and never on the order modules were transformed in.
package chunks

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/types"
)

// Names of the non-entry chunks
const (
	SharedChunk  = "shared"
	VendorsChunk = "vendors"
)

// Entry names an entry chunk and its root module
type Entry struct {
	Name string
	Path string
}

// Assembler applies a split policy to module graphs
type Assembler struct {
	policy config.SplitChunksConfig
	logger zerolog.Logger
}

// NewAssembler creates an assembler for policy
func NewAssembler(policy config.SplitChunksConfig) *Assembler {
	return &Assembler{
		policy: policy,
		logger: logging.GetLogger("chunks"),
	}
}

// Assemble returns the chunks for entries. Group chunks (vendors, shared)
// come first, followed by the entry chunks in entry order.
func (a *Assembler) Assemble(graph *types.ModuleGraph, entries []Entry) ([]types.Chunk, error) {
	if !graph.Frozen() {
		return nil, errors.New(errors.ErrInternal, "chunk assembly requires a frozen module graph")
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no entries to assemble")
	}

	orders := make([][]string, len(entries))
	consumers := make(map[string]int)
	var firstSeen []string
	for i, e := range entries {
		if _, ok := graph.Module(e.Path); !ok {
			return nil, errors.Newf(errors.ErrInvalidInput, "entry %s (%s) is not in the module graph", e.Name, e.Path).
				WithDetail(errors.DetailPath, e.Path)
		}
		orders[i] = postOrder(graph, e.Path)
		for _, p := range orders[i] {
			if consumers[p] == 0 {
				firstSeen = append(firstSeen, p)
			}
			consumers[p]++
		}
	}

	grouped := make(map[string]bool)
	var groups []types.Chunk

	if a.policy.Enabled && a.policy.Vendors {
		var vendor []string
		for _, p := range firstSeen {
			if isVendor(p) {
				vendor = append(vendor, p)
			}
		}
		if c, ok := a.group(graph, VendorsChunk, vendor, entries); ok {
			groups = append(groups, c)
			for _, p := range vendor {
				grouped[p] = true
			}
		}
	}

	if a.policy.Enabled && a.policy.Shared {
		var shared []string
		for _, p := range firstSeen {
			if consumers[p] > 1 && !grouped[p] {
				shared = append(shared, p)
			}
		}
		if c, ok := a.group(graph, SharedChunk, shared, entries); ok {
			groups = append(groups, c)
			for _, p := range shared {
				grouped[p] = true
			}
		}
	}

	chunks := groups
	for i, e := range entries {
		c := types.Chunk{Name: e.Name, Entry: true}
		for _, p := range orders[i] {
			if grouped[p] {
				continue
			}
			c.Modules = append(c.Modules, p)
			c.Size += moduleSize(graph, p)
		}
		chunks = append(chunks, c)
	}

	for _, c := range chunks {
		a.logger.Debug().
			Str("chunk", c.Name).
			Bool("entry", c.Entry).
			Int("modules", len(c.Modules)).
			Int("size", c.Size).
			Msg("Assembled chunk")
	}
	return chunks, nil
}

// group builds a non-entry chunk from paths when their combined size
// reaches the minimum
func (a *Assembler) group(graph *types.ModuleGraph, name string, paths []string, entries []Entry) (types.Chunk, bool) {
	if len(paths) == 0 {
		return types.Chunk{}, false
	}
	size := 0
	for _, p := range paths {
		size += moduleSize(graph, p)
	}
	if size < a.policy.MinSize {
		a.logger.Debug().
			Str("group", name).
			Int("size", size).
			Int("minSize", a.policy.MinSize).
			Msg("Group below minimum size, modules stay in entry chunks")
		return types.Chunk{}, false
	}
	return types.Chunk{
		Name:    uniqueName(name, entries),
		Modules: append([]string(nil), paths...),
		Size:    size,
	}, true
}

// postOrder lists the modules reachable from root, each after its
// dependencies. Dependencies are followed in declared order and a back
// edge of a cycle is skipped.
func postOrder(graph *types.ModuleGraph, root string) []string {
	visited := make(map[string]bool)
	var order []string
	var visit func(string)
	visit = func(p string) {
		if visited[p] {
			return
		}
		visited[p] = true
		for _, dep := range graph.Dependencies(p) {
			visit(dep)
		}
		order = append(order, p)
	}
	visit(root)
	return order
}

func moduleSize(graph *types.ModuleGraph, p string) int {
	if m, ok := graph.Module(p); ok {
		return m.Size()
	}
	return 0
}

func isVendor(p string) bool {
	return strings.HasPrefix(p, "node_modules/") || strings.Contains(p, "/node_modules/")
}

// uniqueName avoids clashing with an entry chunk of the same name
func uniqueName(name string, entries []Entry) string {
	candidate := name
	for n := 1; ; n++ {
		clash := false
		for _, e := range entries {
			if e.Name == candidate {
				clash = true
				break
			}
		}
		if !clash {
			return candidate
		}
		candidate = fmt.Sprintf("%s~%d", name, n)
	}
}

// EntriesFromConfig maps configured entry points onto resolved graph
// entries, which are listed in the same order
func EntriesFromConfig(points []config.EntryPoint, resolved []string) []Entry {
	entries := make([]Entry, 0, len(points))
	for i, ep := range points {
		p := ep.Path
		if i < len(resolved) {
			p = resolved[i]
		}
		entries = append(entries, Entry{Name: ep.Name, Path: p})
	}
	return entries
}
