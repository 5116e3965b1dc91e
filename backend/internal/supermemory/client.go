package supermemory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"polymode/backend/pkg/errors"
	"polymode/backend/pkg/logger"
)

// Client is the adapter over the external Supermemory store. Reads degrade
// to empty results and writes degrade to nil; no store failure ever
// propagates to the chat turn.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger

	// now is injectable for expiry-filter tests
	now func() time.Time
}

// NewClient creates a new Supermemory client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
		now:    time.Now,
	}
}

// strategy is one endpoint shape to try. Reads and creates walk an explicit
// ordered list: the primary shape, then exactly one fallback.
type strategy struct {
	name    string
	method  string
	path    string
	payload interface{}
}

// ContainerTags builds the isolation namespace for a user and optional mode
func ContainerTags(userID, mode string) []string {
	tags := []string{userID}
	if mode != "" {
		tags = append(tags, fmt.Sprintf("%s-%s", userID, mode))
	}
	return tags
}

// Search returns relevance-ranked memories scoped to the user and, when mode
// is non-empty, hard-filtered to that mode. Failures degrade to empty.
func (c *Client) Search(ctx context.Context, userID, query, mode string, limit int) []Memory {
	if limit <= 0 {
		limit = 10
	}
	payload := map[string]interface{}{
		"query":         query,
		"limit":         limit,
		"containerTags": ContainerTags(userID, mode),
	}
	body, err := c.execute(ctx, "search", []strategy{
		{name: "search/search", method: http.MethodPost, path: "/search/search", payload: payload},
		{name: "search", method: http.MethodPost, path: "/search", payload: payload},
	})
	if err != nil {
		c.logger.Warn("Memory search degraded to empty",
			zap.String("user_id", userID),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return nil
	}

	memories, err := decodeDocumentList(body)
	if err != nil {
		c.logger.Warn("Memory search returned undecodable body",
			zap.String("user_id", userID),
			zap.Error(errors.NewStoreBadResponse("search", err)),
		)
		return nil
	}
	return c.filterScoped(memories, mode)
}

// Recent returns the newest memories for the user/mode, newest first.
// Failures degrade to empty.
func (c *Client) Recent(ctx context.Context, userID, mode string, limit int) []Memory {
	if limit <= 0 {
		limit = 5
	}
	tags := ContainerTags(userID, mode)
	body, err := c.execute(ctx, "recent", []strategy{
		{name: "documents/documents", method: http.MethodPost, path: "/documents/documents", payload: map[string]interface{}{
			"page":          1,
			"limit":         limit,
			"sort":          "createdAt",
			"order":         "desc",
			"containerTags": tags,
		}},
		{name: "memories", method: http.MethodPost, path: "/memories", payload: map[string]interface{}{
			"limit":         limit,
			"sort":          "createdAt",
			"order":         "desc",
			"containerTags": tags,
		}},
	})
	if err != nil {
		c.logger.Warn("Recent memories degraded to empty",
			zap.String("user_id", userID),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return nil
	}

	memories, err := decodeDocumentList(body)
	if err != nil {
		c.logger.Warn("Recent memories returned undecodable body",
			zap.String("user_id", userID),
			zap.Error(errors.NewStoreBadResponse("recent", err)),
		)
		return nil
	}
	filtered := c.filterScoped(memories, mode)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// Create persists a new memory scoped to the user and mode. extraTags are
// appended as additional container tags (mode default tags, boosting labels).
// Returns nil when the write could not be persisted.
func (c *Client) Create(ctx context.Context, userID, text string, meta Metadata, mode string, extraTags []string) *Memory {
	if meta.CreatedAt == "" {
		meta.CreatedAt = c.now().UTC().Format(time.RFC3339)
	}
	if meta.UserID == "" {
		meta.UserID = userID
	}
	tags := append(ContainerTags(userID, mode), extraTags...)
	return c.CreateWithTags(ctx, text, meta, tags)
}

// CreateWithTags persists a memory under an explicit tag set
func (c *Client) CreateWithTags(ctx context.Context, text string, meta Metadata, tags []string) *Memory {
	body, err := c.execute(ctx, "create", []strategy{
		{name: "documents", method: http.MethodPost, path: "/documents", payload: map[string]interface{}{
			"content":       text,
			"metadata":      meta,
			"containerTags": tags,
		}},
		{name: "memories", method: http.MethodPost, path: "/memories", payload: map[string]interface{}{
			"text":          text,
			"metadata":      meta,
			"containerTags": tags,
		}},
	})
	if err != nil {
		c.logger.Warn("Memory create failed, dropping write", zap.Error(err))
		return nil
	}

	mem, err := decodeDocument(body)
	if err != nil {
		c.logger.Warn("Memory create returned undecodable body",
			zap.Error(errors.NewStoreBadResponse("create", err)),
		)
		return nil
	}
	if mem.Text == "" {
		mem.Text = text
	}
	if mem.Metadata.CreatedAt == "" {
		mem.Metadata = meta
	}
	return mem
}

// Update rewrites a memory's text and/or metadata in place. Metadata passed
// here must already be the full merged record; the store replaces, it does
// not merge. Returns nil when the write could not be persisted.
func (c *Client) Update(ctx context.Context, id, text string, meta *Metadata) *Memory {
	payload := map[string]interface{}{}
	if text != "" {
		payload["text"] = text
	}
	if meta != nil {
		payload["metadata"] = meta
	}
	body, err := c.execute(ctx, "update", []strategy{
		{name: "memories/id", method: http.MethodPut, path: "/memories/" + id, payload: payload},
		{name: "documents/id", method: http.MethodPatch, path: "/documents/" + id, payload: payload},
	})
	if err != nil {
		c.logger.Warn("Memory update failed, dropping write",
			zap.String("memory_id", id),
			zap.Error(err),
		)
		return nil
	}

	mem, err := decodeDocument(body)
	if err != nil {
		c.logger.Warn("Memory update returned undecodable body",
			zap.String("memory_id", id),
			zap.Error(errors.NewStoreBadResponse("update", err)),
		)
		return nil
	}
	if mem.ID == "" {
		mem.ID = id
	}
	return mem
}

// Delete removes a memory. Only explicit user action reaches this path;
// expiry never deletes.
func (c *Client) Delete(ctx context.Context, id string) bool {
	_, err := c.execute(ctx, "delete", []strategy{
		{name: "memories/id", method: http.MethodDelete, path: "/memories/" + id},
	})
	if err != nil {
		c.logger.Warn("Memory delete failed",
			zap.String("memory_id", id),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SearchByTags searches under an explicit tag set with no mode filtering.
// Used for the profile document, which lives outside mode isolation.
func (c *Client) SearchByTags(ctx context.Context, tags []string, query string, limit int) []Memory {
	if limit <= 0 {
		limit = 1
	}
	payload := map[string]interface{}{
		"query":         query,
		"limit":         limit,
		"containerTags": tags,
	}
	body, err := c.execute(ctx, "search_tags", []strategy{
		{name: "search/search", method: http.MethodPost, path: "/search/search", payload: payload},
		{name: "search", method: http.MethodPost, path: "/search", payload: payload},
	})
	if err != nil {
		c.logger.Warn("Tag search degraded to empty", zap.Error(err))
		return nil
	}
	memories, err := decodeDocumentList(body)
	if err != nil {
		c.logger.Warn("Tag search returned undecodable body",
			zap.Error(errors.NewStoreBadResponse("search_tags", err)),
		)
		return nil
	}
	return c.filterScoped(memories, "")
}

// execute walks the ordered strategy list and returns the first successful
// body. The list holds at most the primary shape and one fallback.
func (c *Client) execute(ctx context.Context, op string, strategies []strategy) ([]byte, error) {
	var lastErr error
	lastStatus := 0
	for i, s := range strategies {
		body, status, err := c.do(ctx, s.method, s.path, s.payload)
		if err == nil {
			if i > 0 {
				c.logger.Info("Store fallback strategy succeeded",
					zap.String("operation", op),
					zap.String("strategy", s.name),
				)
			} else {
				c.logger.Debug("Store request succeeded",
					zap.String("operation", op),
					zap.String("strategy", s.name),
				)
			}
			return body, nil
		}
		lastErr = err
		lastStatus = status
		c.logger.Warn("Store strategy failed",
			zap.String("operation", op),
			zap.String("strategy", s.name),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return nil, errors.NewStoreRequestFailed(op, lastStatus, lastErr)
}

// do issues one request and returns the body for 2xx responses
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("store returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, resp.StatusCode, nil
}

// filterScoped applies the read-time expiry filter and, when mode is given,
// the strict metadata.mode equality boundary on top of tag scoping.
func (c *Client) filterScoped(memories []Memory, mode string) []Memory {
	now := c.now().UTC()
	filtered := make([]Memory, 0, len(memories))
	for _, mem := range memories {
		if mode != "" && mem.Metadata.Mode != mode {
			continue
		}
		if mem.Metadata.Expired(now) {
			continue
		}
		filtered = append(filtered, mem)
	}
	return filtered
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
