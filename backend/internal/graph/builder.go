package graph

import (
	"strings"

	"polymode/backend/internal/supermemory"
)

const memoryLabelMax = 80

// BuildGraph projects stored memories into a visualization graph: one node
// per memory, one collapsed node per extracted entity, edges labeled by the
// entity's relation. Read-only over the given memories.
func BuildGraph(memories []supermemory.Memory, role string) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	entityNodes := map[string]bool{}

	for _, mem := range memories {
		if mem.ID == "" || strings.TrimSpace(mem.Text) == "" {
			continue
		}
		memNodeID := "memory:" + mem.ID
		g.Nodes = append(g.Nodes, Node{
			ID:    memNodeID,
			Label: truncateLabel(mem.Text),
			Type:  "memory",
		})

		entityRole := role
		if entityRole == "" {
			entityRole = mem.Metadata.BaseRole
		}
		for _, ent := range Extract(mem.Text, entityRole) {
			if !entityNodes[ent.ID] {
				entityNodes[ent.ID] = true
				g.Nodes = append(g.Nodes, Node{
					ID:    ent.ID,
					Label: ent.Label,
					Type:  ent.Type,
				})
			}
			g.Edges = append(g.Edges, Edge{
				Source:   memNodeID,
				Target:   ent.ID,
				Relation: ent.Relation,
			})
		}
	}
	return g
}

func truncateLabel(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= memoryLabelMax {
		return text
	}
	return text[:memoryLabelMax] + "..."
}
