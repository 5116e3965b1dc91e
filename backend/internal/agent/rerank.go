package agent

import (
	"sort"
	"strings"
	"time"

	"polymode/backend/internal/supermemory"
)

// recencyWindow is the age under which a candidate gets the recency boost
const recencyWindow = 7 * 24 * time.Hour

// Rerank orders candidates by a cheap lexical-overlap score and trims to
// topK. Intentionally not embedding similarity: the ranking must be
// reproducible with no external dependency. The sort is stable, so equal
// scores keep their input order.
func Rerank(candidates []supermemory.Memory, query string, now time.Time, topK int) []supermemory.Memory {
	if len(candidates) == 0 {
		return nil
	}

	queryTokens := strings.Fields(strings.ToLower(query))

	scored := make([]supermemory.Memory, len(candidates))
	copy(scored, candidates)
	scores := make(map[int]int, len(scored))
	for i, mem := range scored {
		scores[i] = score(mem, queryTokens, now)
	}

	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK <= 0 || topK > len(order) {
		topK = len(order)
	}
	out := make([]supermemory.Memory, 0, topK)
	for _, idx := range order[:topK] {
		out = append(out, scored[idx])
	}
	return out
}

// score counts query tokens present in the candidate text and adds one for
// candidates created within the last week
func score(mem supermemory.Memory, queryTokens []string, now time.Time) int {
	text := strings.ToLower(mem.Text)
	s := 0
	for _, tok := range queryTokens {
		if strings.Contains(text, tok) {
			s++
		}
	}
	if created, ok := mem.Metadata.CreatedTime(); ok {
		if now.Sub(created) < recencyWindow {
			s++
		}
	}
	return s
}
