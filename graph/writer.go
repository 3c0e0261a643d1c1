package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mager/phrasegraph/phrasegraph"
)

// Validate checks the structural invariants of a graph: every link target
// resolves to a node in the same graph, and no node links to itself. A
// violation means the builder is broken, so the whole graph is rejected
// rather than silently dropping edges.
func Validate(g *phrasegraph.PhraseGraph) error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, n := range g.Nodes {
		for _, l := range n.Links {
			if l.TargetID == n.ID {
				return fmt.Errorf("graph: node %s links to itself", n.ID)
			}
			if _, ok := ids[l.TargetID]; !ok {
				return fmt.Errorf("graph: node %s links to unknown target %s", n.ID, l.TargetID)
			}
		}
	}
	return nil
}

// WriteFile validates the graph and writes it as indented JSON, the format
// the playback engine's phrase database loads.
func WriteFile(path string, g *phrasegraph.PhraseGraph) error {
	if err := Validate(g); err != nil {
		return err
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("graph: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("graph: write %s: %w", path, err)
	}
	return nil
}
