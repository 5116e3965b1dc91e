package supermemory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	c.now = func() time.Time { return testNow }
	return c
}

func docJSON(id, text string, meta Metadata) map[string]interface{} {
	return map[string]interface{}{"id": id, "text": text, "metadata": meta}
}

func TestContainerTags(t *testing.T) {
	assert.Equal(t, []string{"u1", "u1-student"}, ContainerTags("u1", "student"))
	assert.Equal(t, []string{"u1"}, ContainerTags("u1", ""))
}

func TestSearch_FiltersForeignModes(t *testing.T) {
	// Tag scoping alone is not trusted; metadata.mode must match exactly
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				docJSON("m1", "exam prep plan", Metadata{Mode: "student", UserID: "u1"}),
				docJSON("m2", "interview prep plan", Metadata{Mode: "job", UserID: "u1"}),
				docJSON("m3", "untagged note", Metadata{UserID: "u1"}),
			},
		})
	})

	got := c.Search(context.Background(), "u1", "prep", "student", 10)

	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestSearch_ExpiryFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				docJSON("fresh", "a", Metadata{Mode: "student", ExpiresAt: testNow.Add(time.Second).Format(time.RFC3339)}),
				docJSON("stale", "b", Metadata{Mode: "student", ExpiresAt: testNow.Add(-time.Second).Format(time.RFC3339)}),
				docJSON("forever", "c", Metadata{Mode: "student"}),
				docJSON("garbled", "d", Metadata{Mode: "student", ExpiresAt: "not-a-date"}),
			},
		})
	})

	got := c.Search(context.Background(), "u1", "q", "student", 10)

	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	// Unparseable expiry is kept, expired is dropped
	assert.Equal(t, []string{"fresh", "forever", "garbled"}, ids)
}

func TestSearch_FallbackStrategy(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/search/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{docJSON("m1", "hello", Metadata{Mode: "student"})},
		})
	})

	got := c.Search(context.Background(), "u1", "q", "student", 10)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"/search/search", "/search"}, paths)
}

func TestSearch_DegradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := c.Search(context.Background(), "u1", "q", "student", 10)

	assert.Nil(t, got)
}

func TestRecent_TruncatesToLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		docs := make([]interface{}, 0, 8)
		for i := 0; i < 8; i++ {
			docs = append(docs, docJSON("m", "note", Metadata{Mode: "student"}))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": docs})
	})

	got := c.Recent(context.Background(), "u1", "student", 5)

	assert.Len(t, got, 5)
}

func TestCreate_SendsTagsAndMetadata(t *testing.T) {
	var captured map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(docJSON("new-id", "", Metadata{}))
	})

	meta := Metadata{Mode: "student", BaseRole: "student", Durability: DurabilityMedium}
	got := c.Create(context.Background(), "u1", "exam on friday", meta, "student", []string{"academic"})

	require.NotNil(t, got)
	assert.Equal(t, "new-id", got.ID)
	assert.Equal(t, "exam on friday", got.Text)

	tags, ok := captured["containerTags"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"u1", "u1-student", "academic"}, tags)

	sentMeta, ok := captured["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", sentMeta["userId"])
	assert.Equal(t, testNow.Format(time.RFC3339), sentMeta["createdAt"])
}

func TestCreate_DropsWriteOnFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	got := c.Create(context.Background(), "u1", "text", Metadata{}, "student", nil)

	assert.Nil(t, got)
}

func TestUpdate_UsesFallbackPath(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(docJSON("", "updated", Metadata{}))
	})

	meta := Metadata{Mode: "student"}
	got := c.Update(context.Background(), "m1", "updated", &meta)

	require.NotNil(t, got)
	assert.Equal(t, "m1", got.ID, "id backfilled from the request")
	assert.Equal(t, []string{"PUT /memories/m1", "PATCH /documents/m1"}, methods)
}

func TestDecodeDocumentList_Shapes(t *testing.T) {
	cases := []string{
		`{"results": [{"id": "m1", "text": "a"}]}`,
		`{"documents": [{"id": "m1", "content": "a"}]}`,
		`{"memories": [{"id": "m1", "text": "a"}]}`,
		`[{"id": "m1", "text": "a"}]`,
	}
	for _, body := range cases {
		got, err := decodeDocumentList([]byte(body))
		require.NoError(t, err, body)
		require.Len(t, got, 1, body)
		assert.Equal(t, "m1", got[0].ID)
		assert.Equal(t, "a", got[0].Text)
	}

	_, err := decodeDocumentList([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestMetadata_RoundTripPreservesExtra(t *testing.T) {
	in := Metadata{
		Mode:  "student",
		Extra: map[string]interface{}{"custom_field": "kept"},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Metadata
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "student", out.Mode)
	assert.Equal(t, "kept", out.Extra["custom_field"])
}

func TestMetadata_MergeIsFullRecord(t *testing.T) {
	base := Metadata{
		Mode:       "student",
		Durability: DurabilityMedium,
		ExpiresAt:  "2026-02-01T00:00:00Z",
		Extra:      map[string]interface{}{"a": 1, "b": 1},
	}
	merged := base.Merge(Metadata{
		CreatedAt: "2026-01-20T00:00:00Z",
		Extra:     map[string]interface{}{"b": 2},
	})

	assert.Equal(t, "student", merged.Mode)
	assert.Equal(t, DurabilityMedium, merged.Durability)
	assert.Equal(t, "2026-02-01T00:00:00Z", merged.ExpiresAt)
	assert.Equal(t, "2026-01-20T00:00:00Z", merged.CreatedAt)
	assert.Equal(t, 1, merged.Extra["a"])
	assert.Equal(t, 2, merged.Extra["b"])
}
