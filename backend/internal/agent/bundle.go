package agent

import (
	"polymode/backend/internal/supermemory"
)

// ContextBundle is the request-scoped aggregate assembled for one LLM call.
// It is owned by the orchestration call and discarded after the turn; any
// derived facts are re-persisted as new memories, never reused as-is.
type ContextBundle struct {
	ActiveMode string `json:"activeMode"`
	BaseRole   string `json:"baseRole"`

	StaticProfile    map[string]interface{} `json:"staticProfile"`
	CrossRoleProfile map[string]interface{} `json:"crossRoleProfile,omitempty"`

	RecentMemories    []supermemory.Memory `json:"recentMemories"`    // newest first, unranked episodic window
	LongTermMemories  []supermemory.Memory `json:"longTermMemories"`  // relevance-ranked
	CrossRoleMemories []supermemory.Memory `json:"crossRoleMemories"` // small borrow from other personas
}
