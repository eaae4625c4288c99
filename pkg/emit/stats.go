package emit

import (
	"encoding/json"

	"github.com/arthur-debert/kiln/pkg/types"
)

// StatsFile is the name of the analysis report
const StatsFile = "stats.json"

type moduleStats struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Rule string `json:"rule"`
	Size int    `json:"size"`
}

type chunkStats struct {
	Name    string        `json:"name"`
	Entry   bool          `json:"entry"`
	Size    int           `json:"size"`
	Files   []string      `json:"files"`
	Modules []moduleStats `json:"modules"`
}

type assetStats struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type buildStats struct {
	Chunks []chunkStats `json:"chunks"`
	Assets []assetStats `json:"assets"`
}

// renderStats reports chunks, their modules and every artifact size
func renderStats(chunks []types.Chunk, graph *types.ModuleGraph, files map[string][]string, artifacts Artifacts) ([]byte, error) {
	stats := buildStats{Chunks: []chunkStats{}, Assets: []assetStats{}}
	for _, c := range chunks {
		cs := chunkStats{Name: c.Name, Entry: c.Entry, Size: c.Size, Files: files[c.Name], Modules: []moduleStats{}}
		if cs.Files == nil {
			cs.Files = []string{}
		}
		for _, p := range c.Modules {
			m, ok := graph.Module(p)
			if !ok {
				continue
			}
			cs.Modules = append(cs.Modules, moduleStats{Path: p, Kind: string(m.Kind), Rule: m.Rule, Size: m.Size()})
		}
		stats.Chunks = append(stats.Chunks, cs)
	}
	for _, name := range artifacts.Names() {
		stats.Assets = append(stats.Assets, assetStats{Name: name, Size: len(artifacts[name])})
	}
	return json.MarshalIndent(stats, "", "  ")
}
