package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"polymode/backend/internal/memory"
	"polymode/backend/internal/mode"
	"polymode/backend/internal/supermemory"
)

const (
	summaryReplyMax = 200
	factReplyMax    = 300
	askedPrefix     = "user asked:"
	repliedMarker   = "assistant replied"
)

// factKeywords gate the secondary fact write from the assistant reply
var factKeywords = []string{
	"remember", "important", "deadline", "due on", "scheduled",
	"key point", "note that", "don't forget",
}

// WriteBack builds the canonical turn observation, merges it into a
// near-duplicate when one exists, and otherwise classifies and creates a
// new memory. Returns the ids of memories written. The duplicate check and
// the write are not transactional; a concurrent-turn race producing two
// near-duplicates is accepted.
func (o *Orchestrator) WriteBack(ctx context.Context, userID string, modeCfg mode.Config, userMessage, llmReply string) []string {
	now := time.Now().UTC()
	summary := fmt.Sprintf("User asked: %s. Assistant replied: %s", userMessage, clip(llmReply, summaryReplyMax))

	var written []string

	if dup := o.findDuplicate(ctx, userID, modeCfg.Key, userMessage); dup != nil {
		merged := dup.Metadata.Merge(supermemory.Metadata{
			Mode:      modeCfg.Key,
			BaseRole:  modeCfg.BaseRole,
			Source:    "chat",
			UserID:    userID,
			CreatedAt: now.Format(time.RFC3339),
		})
		if updated := o.store.Update(ctx, dup.ID, summary, &merged); updated != nil {
			o.logger.Info("Merged near-duplicate memory",
				zap.String("user_id", userID),
				zap.String("memory_id", dup.ID),
			)
			written = append(written, updated.ID)
		}
	} else {
		cls := memory.Classify(modeCfg.BaseRole, userMessage, nil, now)
		meta := classificationMetadata(cls, userID, modeCfg, now)
		if created := o.store.Create(ctx, userID, summary, meta, modeCfg.Key, modeCfg.DefaultTags); created != nil {
			written = append(written, created.ID)
		}
	}

	// Assistant-authored facts are persisted separately, and never as
	// events: only the user asserts events.
	if containsAnyKeyword(strings.ToLower(llmReply), factKeywords) {
		cls := memory.Classify(modeCfg.BaseRole, llmReply, nil, now)
		meta := classificationMetadata(cls, userID, modeCfg, now)
		meta.Type = supermemory.TypeFact
		meta.EventDate = ""
		factText := fmt.Sprintf("Assistant noted: %s", clip(llmReply, factReplyMax))
		if created := o.store.Create(ctx, userID, factText, meta, modeCfg.Key, modeCfg.DefaultTags); created != nil {
			written = append(written, created.ID)
		}
	}

	return written
}

// findDuplicate searches mode-scoped memories for a near-duplicate of the
// incoming message
func (o *Orchestrator) findDuplicate(ctx context.Context, userID, modeKey, userMessage string) *supermemory.Memory {
	candidates := o.store.Search(ctx, userID, userMessage, modeKey, o.cfg.SearchLimit)
	for i := range candidates {
		asked := extractAskedPortion(candidates[i].Text)
		if asked == "" {
			continue
		}
		if o.isNearDuplicate(userMessage, asked) {
			return &candidates[i]
		}
	}
	return nil
}

// isNearDuplicate applies the tuned overlap threshold and the truncated
// substring check
func (o *Orchestrator) isNearDuplicate(message, asked string) bool {
	a := clip(strings.ToLower(strings.TrimSpace(message)), o.cfg.DedupPrefixLen)
	b := clip(strings.ToLower(strings.TrimSpace(asked)), o.cfg.DedupPrefixLen)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return tokenSetOverlap(a, b) > o.cfg.DedupOverlapThreshold
}

// extractAskedPortion pulls the "user asked: ..." span out of a stored
// summary, up to the assistant-reply marker. Returns empty when the text
// does not carry the canonical shape.
func extractAskedPortion(text string) string {
	lower := strings.ToLower(text)
	start := strings.Index(lower, askedPrefix)
	if start < 0 {
		return ""
	}
	rest := text[start+len(askedPrefix):]
	if end := strings.Index(strings.ToLower(rest), repliedMarker); end >= 0 {
		rest = rest[:end]
	}
	return strings.Trim(strings.TrimSpace(rest), ".")
}

// tokenSetOverlap computes the Jaccard overlap of whitespace-split token
// sets
func tokenSetOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func classificationMetadata(cls memory.Classification, userID string, modeCfg mode.Config, now time.Time) supermemory.Metadata {
	meta := supermemory.Metadata{
		Mode:       modeCfg.Key,
		BaseRole:   modeCfg.BaseRole,
		Source:     "chat",
		UserID:     userID,
		CreatedAt:  now.Format(time.RFC3339),
		Durability: cls.Durability,
		Type:       cls.Type,
	}
	if cls.ExpiresAt != nil {
		meta.ExpiresAt = cls.ExpiresAt.Format(time.RFC3339)
	}
	if cls.EventDate != nil {
		meta.EventDate = cls.EventDate.Format(time.RFC3339)
	}
	return meta
}

func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

func containsAnyKeyword(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
