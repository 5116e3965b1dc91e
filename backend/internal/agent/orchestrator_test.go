package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymode/backend/internal/mode"
	"polymode/backend/internal/profile"
	"polymode/backend/internal/supermemory"
)

// contextStore serves one mixed-mode document set; the client's own
// per-call mode filter slices it the way the real store's tag scoping would
func contextStore(t *testing.T, docs []supermemory.Memory) (*supermemory.Client, *profile.Store) {
	t.Helper()
	encode := func(w http.ResponseWriter) {
		out := make([]map[string]interface{}, 0, len(docs))
		for _, m := range docs {
			out = append(out, map[string]interface{}{"id": m.ID, "text": m.Text, "metadata": m.Metadata})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": out})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/search", func(w http.ResponseWriter, r *http.Request) { encode(w) })
	mux.HandleFunc("/documents/documents", func(w http.ResponseWriter, r *http.Request) { encode(w) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := supermemory.NewClient(srv.URL, "test-key", 5*time.Second)
	return client, profile.NewStore(client)
}

func TestBuildContext_ModeIsolationAndCaps(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	docs := []supermemory.Memory{
		{ID: "s1", Text: "exam prep for CS 301", Metadata: supermemory.Metadata{Mode: "student", CreatedAt: now}},
		{ID: "s2", Text: "homework schedule", Metadata: supermemory.Metadata{Mode: "student", CreatedAt: now}},
		{ID: "p1", Text: "school pickup rotation", Metadata: supermemory.Metadata{Mode: "parent", CreatedAt: now}},
		{ID: "j1", Text: "interview at Stripe", Metadata: supermemory.Metadata{Mode: "job", CreatedAt: now}},
	}
	client, profiles := contextStore(t, docs)
	o := NewOrchestrator(client, profiles, nil, testConfig())

	studentMode, _ := mode.Builtin("student")
	bundle := o.BuildContext(context.Background(), "u1", studentMode, "exam prep")

	assert.Equal(t, "student", bundle.ActiveMode)
	for _, m := range bundle.RecentMemories {
		assert.Equal(t, "student", m.Metadata.Mode)
	}
	for _, m := range bundle.LongTermMemories {
		assert.Equal(t, "student", m.Metadata.Mode)
	}

	// Cross-role borrow pulls from parent and job, never from student
	crossIDs := map[string]bool{}
	for _, m := range bundle.CrossRoleMemories {
		crossIDs[m.ID] = true
		assert.NotEqual(t, "student", m.Metadata.Mode)
	}
	assert.True(t, crossIDs["p1"])
	assert.True(t, crossIDs["j1"])
	assert.LessOrEqual(t, len(bundle.CrossRoleMemories), testConfig().CrossModeCap)
}

func TestBuildContext_RanksQueryMatchesFirst(t *testing.T) {
	old := time.Now().UTC().Add(-30 * 24 * time.Hour).Format(time.RFC3339)
	docs := []supermemory.Memory{
		{ID: "off", Text: "grocery reminders", Metadata: supermemory.Metadata{Mode: "student", CreatedAt: old}},
		{ID: "hit", Text: "exam prep plan for the midterm", Metadata: supermemory.Metadata{Mode: "student", CreatedAt: old}},
	}
	client, profiles := contextStore(t, docs)
	o := NewOrchestrator(client, profiles, nil, testConfig())

	studentMode, _ := mode.Builtin("student")
	bundle := o.BuildContext(context.Background(), "u1", studentMode, "exam prep")

	require.NotEmpty(t, bundle.LongTermMemories)
	assert.Equal(t, "hit", bundle.LongTermMemories[0].ID)
}

func TestBuildContext_DegradesToEmptyOnStoreFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := supermemory.NewClient(srv.URL, "test-key", 5*time.Second)
	o := NewOrchestrator(client, profile.NewStore(client), nil, testConfig())

	studentMode, _ := mode.Builtin("student")
	bundle := o.BuildContext(context.Background(), "u1", studentMode, "anything")

	require.NotNil(t, bundle, "a dead store still yields a usable bundle")
	assert.Empty(t, bundle.RecentMemories)
	assert.Empty(t, bundle.LongTermMemories)
	assert.Empty(t, bundle.CrossRoleMemories)
	assert.NotNil(t, bundle.StaticProfile)
	assert.Positive(t, calls.Load())
}
