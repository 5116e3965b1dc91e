package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymode/backend/internal/supermemory"
)

func TestBuildGraph_CollapsesSharedEntities(t *testing.T) {
	memories := []supermemory.Memory{
		{ID: "m1", Text: "studying for the CS 301 midterm"},
		{ID: "m2", Text: "CS 301 homework due friday"},
	}

	g := BuildGraph(memories, "student")

	courseNodes := 0
	for _, n := range g.Nodes {
		if n.ID == "course:cs-301" {
			courseNodes++
		}
	}
	assert.Equal(t, 1, courseNodes, "repeated mentions collapse to one node")

	// Both memories link to the shared course node
	linked := map[string]bool{}
	for _, e := range g.Edges {
		if e.Target == "course:cs-301" {
			linked[e.Source] = true
		}
	}
	assert.True(t, linked["memory:m1"])
	assert.True(t, linked["memory:m2"])
}

func TestBuildGraph_SkipsEmptyMemories(t *testing.T) {
	memories := []supermemory.Memory{
		{ID: "", Text: "orphan"},
		{ID: "m1", Text: "   "},
	}

	g := BuildGraph(memories, "student")

	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildGraph_FallsBackToMemoryRole(t *testing.T) {
	memories := []supermemory.Memory{
		{ID: "m1", Text: "applied to Stripe", Metadata: supermemory.Metadata{BaseRole: "job"}},
	}

	g := BuildGraph(memories, "")

	require.Len(t, g.Edges, 1)
	assert.Equal(t, "company:stripe", g.Edges[0].Target)
}

func TestBuildGraph_TruncatesLongLabels(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "very long text "
	}
	g := BuildGraph([]supermemory.Memory{{ID: "m1", Text: long}}, "student")

	require.NotEmpty(t, g.Nodes)
	assert.LessOrEqual(t, len(g.Nodes[0].Label), memoryLabelMax+3)
}
