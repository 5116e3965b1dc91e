package graph

// Entity is one typed node extracted from memory text. The ID is
// deterministic ("type:normalized-label") so repeated mentions collapse to
// the same graph node across memories.
type Entity struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`     // course, exam, topic, company, kid
	Relation string `json:"relation"` // fixed per pattern family
}

// Node is a vertex in the visualization graph
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"` // memory or an entity type
}

// Edge connects a memory node to an extracted entity
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Graph is the ephemeral view returned to the caller. It is built per
// request and never persisted.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
