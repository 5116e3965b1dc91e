package supermemory

import (
	"encoding/json"
	"time"
)

// Durability tiers assigned at classification time
const (
	DurabilityEphemeral = "ephemeral"
	DurabilityMedium    = "medium"
	DurabilityLong      = "long"
)

// Memory types
const (
	TypeMemory   = "memory"
	TypeFact     = "fact"
	TypeEvent    = "event"
	TypeDocument = "document"
)

// Metadata carries the reserved keys the engine owns the semantics of,
// plus a residual open map for forward-compatible extension fields.
type Metadata struct {
	Mode       string `json:"mode,omitempty"`
	BaseRole   string `json:"base_role,omitempty"`
	Source     string `json:"source,omitempty"`
	UserID     string `json:"userId,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	Durability string `json:"durability,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	Type       string `json:"type,omitempty"`
	EventDate  string `json:"event_date,omitempty"`

	Extra map[string]interface{} `json:"-"`
}

// reservedKeys are the metadata fields owned by the engine
var reservedKeys = map[string]bool{
	"mode": true, "base_role": true, "source": true, "userId": true,
	"createdAt": true, "durability": true, "expires_at": true,
	"type": true, "event_date": true,
}

// MarshalJSON flattens the reserved fields and the Extra map into one object
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+9)
	for k, v := range m.Extra {
		if !reservedKeys[k] {
			out[k] = v
		}
	}
	set := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	set("mode", m.Mode)
	set("base_role", m.BaseRole)
	set("source", m.Source)
	set("userId", m.UserID)
	set("createdAt", m.CreatedAt)
	set("durability", m.Durability)
	set("expires_at", m.ExpiresAt)
	set("type", m.Type)
	set("event_date", m.EventDate)
	return json.Marshal(out)
}

// UnmarshalJSON splits an arbitrary metadata object into reserved fields
// and the residual Extra map
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	str := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}
	m.Mode = str("mode")
	m.BaseRole = str("base_role")
	m.Source = str("source")
	m.UserID = str("userId")
	m.CreatedAt = str("createdAt")
	m.Durability = str("durability")
	m.ExpiresAt = str("expires_at")
	m.Type = str("type")
	m.EventDate = str("event_date")
	for k, v := range raw {
		if !reservedKeys[k] {
			if m.Extra == nil {
				m.Extra = make(map[string]interface{})
			}
			m.Extra[k] = v
		}
	}
	return nil
}

// Merge returns a copy of m with every non-empty field of other applied on
// top. Extra maps are unioned, other winning on key conflicts. Updates to a
// stored memory always go through a full merge; there is no partial write.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := m
	if other.Mode != "" {
		merged.Mode = other.Mode
	}
	if other.BaseRole != "" {
		merged.BaseRole = other.BaseRole
	}
	if other.Source != "" {
		merged.Source = other.Source
	}
	if other.UserID != "" {
		merged.UserID = other.UserID
	}
	if other.CreatedAt != "" {
		merged.CreatedAt = other.CreatedAt
	}
	if other.Durability != "" {
		merged.Durability = other.Durability
	}
	if other.ExpiresAt != "" {
		merged.ExpiresAt = other.ExpiresAt
	}
	if other.Type != "" {
		merged.Type = other.Type
	}
	if other.EventDate != "" {
		merged.EventDate = other.EventDate
	}
	if len(other.Extra) > 0 {
		out := make(map[string]interface{}, len(m.Extra)+len(other.Extra))
		for k, v := range m.Extra {
			out[k] = v
		}
		for k, v := range other.Extra {
			out[k] = v
		}
		merged.Extra = out
	}
	return merged
}

// Expired reports whether the memory's expires_at has passed. Memories with
// no expiry, or one that cannot be parsed, are kept (matching the store's
// lenient read-time filter).
func (m Metadata) Expired(now time.Time) bool {
	if m.ExpiresAt == "" {
		return false
	}
	expiry, err := parseInstant(m.ExpiresAt)
	if err != nil {
		return false
	}
	return expiry.Before(now)
}

// CreatedTime parses the createdAt instant; ok is false when absent or
// malformed
func (m Metadata) CreatedTime() (time.Time, bool) {
	if m.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := parseInstant(m.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseInstant accepts RFC3339 with or without an explicit offset
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// Memory is the canonical record produced at the store boundary
type Memory struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
