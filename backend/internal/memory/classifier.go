package memory

import (
	"strings"
	"time"

	"polymode/backend/internal/supermemory"
)

// Classification is the value object produced per classify call. It is
// never mutated after creation.
type Classification struct {
	Durability string
	ExpiresAt  *time.Time // nil means no expiry
	Type       string     // empty unless upgraded (e.g. "event")
	EventDate  *time.Time
}

// Hint carries caller-known context, e.g. an exam date pulled from the
// profile. A hint date takes precedence over anything parsed from the text.
type Hint struct {
	EventDate *time.Time
}

// rule maps a keyword set to a durability tier and expiry policy. Rules are
// tested in order; the first match wins.
type rule struct {
	keywords   []string
	durability string
	ttl        time.Duration // 0 means no expiry
	// eventBuffer pads expiry past the event date when the text carries a
	// parseable date
	eventBuffer time.Duration
}

const day = 24 * time.Hour

var roleRules = map[string][]rule{
	"parent": {
		{
			keywords:   []string{"fridge", "grocery", "shopping list", "buy"},
			durability: supermemory.DurabilityEphemeral,
			ttl:        7 * day,
		},
		{
			keywords:    []string{"school event", "parent-teacher", "field trip"},
			durability:  supermemory.DurabilityMedium,
			ttl:         30 * day,
			eventBuffer: 1 * day,
		},
	},
	"student": {
		{
			keywords:    []string{"exam", "midterm", "final", "test"},
			durability:  supermemory.DurabilityMedium,
			ttl:         30 * day,
			eventBuffer: 7 * day,
		},
		{
			keywords:    []string{"homework", "assignment", "due"},
			durability:  supermemory.DurabilityEphemeral,
			ttl:         14 * day,
			eventBuffer: 1 * day,
		},
	},
	"job": {
		{
			keywords:   []string{"applied to", "application", "interview", "rejected", "offer"},
			durability: supermemory.DurabilityLong,
			// Long memories carry no expiry; they decay through ranking, not removal
		},
		{
			keywords:    []string{"networking", "coffee chat", "meeting"},
			durability:  supermemory.DurabilityMedium,
			ttl:         60 * day,
			eventBuffer: 1 * day,
		},
	},
}

// defaultRule applies when no role rule matches
var defaultRule = rule{
	durability:  supermemory.DurabilityMedium,
	ttl:         90 * day,
	eventBuffer: 1 * day,
}

// eventKeywords gate the event upgrade: a parsed date alone is not enough,
// the text must also read like something scheduled.
var eventKeywords = []string{
	"exam", "midterm", "final", "test", "quiz",
	"meeting", "interview", "appointment",
	"due", "deadline",
	"field trip", "parent-teacher", "school event",
	"event", "party", "trip",
}

// Classify maps (role, text) to a durability/expiry/type decision. It is
// deterministic for a fixed now, performs no I/O, and never fails on
// malformed text.
func Classify(role, text string, hint *Hint, now time.Time) Classification {
	lower := strings.ToLower(text)
	now = now.UTC()

	matched := defaultRule
	for _, r := range roleRules[role] {
		if containsAny(lower, r.keywords) {
			matched = r
			break
		}
	}

	result := Classification{Durability: matched.durability}
	if matched.ttl > 0 {
		expiry := now.Add(matched.ttl)
		result.ExpiresAt = &expiry
	}

	eventDate, found := resolveEventDate(text, hint, now)
	if found && containsAny(lower, eventKeywords) {
		result.Type = supermemory.TypeEvent
		result.EventDate = &eventDate
		// Anchor expiry to the event rather than the generic offset, except
		// for no-expiry tiers which stay unexpiring
		if matched.ttl > 0 {
			buffer := matched.eventBuffer
			if buffer == 0 {
				buffer = 1 * day
			}
			expiry := eventDate.Add(buffer)
			result.ExpiresAt = &expiry
		}
	}

	return result
}

// resolveEventDate prefers an explicit hint date over text parsing
func resolveEventDate(text string, hint *Hint, now time.Time) (time.Time, bool) {
	if hint != nil && hint.EventDate != nil {
		return hint.EventDate.UTC(), true
	}
	return ExtractDate(text, now)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
