package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymode/backend/internal/supermemory"
)

func TestStore_GetMissingProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	t.Cleanup(srv.Close)

	s := NewStore(supermemory.NewClient(srv.URL, "k", 5*time.Second))

	assert.Nil(t, s.Get(context.Background(), "u1"))
}

func TestStore_GetParsesStoredDocument(t *testing.T) {
	doc, _ := json.Marshal(&UserProfile{UserID: "u1", Name: "Alex"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"id": "p1", "text": string(doc)},
			},
		})
	}))
	t.Cleanup(srv.Close)

	s := NewStore(supermemory.NewClient(srv.URL, "k", 5*time.Second))

	got := s.Get(context.Background(), "u1")
	require.NotNil(t, got)
	assert.Equal(t, "Alex", got.Name)
}

func TestStore_GetTreatsBadJSONAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"id": "p1", "text": "not json"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	s := NewStore(supermemory.NewClient(srv.URL, "k", 5*time.Second))

	assert.Nil(t, s.Get(context.Background(), "u1"))
}

func TestStore_UpsertUpdatesExisting(t *testing.T) {
	var updates, creates int
	mux := http.NewServeMux()
	mux.HandleFunc("/search/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"id": "p1", "text": "{}"},
			},
		})
	})
	mux.HandleFunc("/memories/p1", func(w http.ResponseWriter, r *http.Request) {
		updates++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "p1"})
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		creates++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "p2"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewStore(supermemory.NewClient(srv.URL, "k", 5*time.Second))

	ok := s.Upsert(context.Background(), "u1", &UserProfile{UserID: "u1", Name: "Alex"})
	assert.True(t, ok)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 0, creates, "existing profile updates in place")
}

func TestStore_UpsertCreatesWhenAbsent(t *testing.T) {
	var creates int
	mux := http.NewServeMux()
	mux.HandleFunc("/search/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		creates++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "p1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewStore(supermemory.NewClient(srv.URL, "k", 5*time.Second))

	ok := s.Upsert(context.Background(), "u1", &UserProfile{UserID: "u1"})
	assert.True(t, ok)
	assert.Equal(t, 1, creates)
}
