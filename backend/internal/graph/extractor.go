package graph

import (
	"regexp"
	"strings"
)

// Pattern-based entity extraction. Pure and deterministic: identical text
// always yields identical entity sets. Pattern families are gated by role
// or by domain keywords so a parent-mode memory never sprouts company nodes.

const labelChars = `[a-zA-Z][a-zA-Z0-9&+#' ]{1,40}`

var (
	courseCodePattern = regexp.MustCompile(`\b([A-Z]{2,4}\s?\d{2,3})\b`)
	coursePattern     = regexp.MustCompile(`(?i)\b(?:course|class)(?:\s+(?:on|in))?\s+(` + labelChars + `)`)
	examPattern       = regexp.MustCompile(`(?i)\b(?:midterm|final|exam|test)\b(?:\s+(?:for|in|on)\s+([A-Za-z]{2,4}\s?\d{2,3}|[a-zA-Z][a-zA-Z0-9&+#']*))?`)
	topicPattern      = regexp.MustCompile(`(?i)\b(?:studying|learning|revising)\s+(?:for\s+)?(` + labelChars + `)`)
	// Company names are proper nouns; the capture stays case-sensitive so
	// it stops at the first lowercase word after the name
	properNoun       = `((?:[A-Z][a-zA-Z0-9&+']*)(?:\s+[A-Z][a-zA-Z0-9&+']*)*)`
	appliedPattern   = regexp.MustCompile(`\b(?i:applied\s+to)\s+` + properNoun)
	interviewPattern = regexp.MustCompile(`\b(?i:interview\s+(?:with|at))\s+` + properNoun)
	kidPattern        = regexp.MustCompile(`(?i)\b(?:my\s+)?(?:kid|son|daughter|child)\s+([A-Za-z]{2,20})\b`)
)

var academicKeywords = []string{"exam", "midterm", "final", "course", "class", "study", "homework", "assignment", "lecture"}
var careerKeywords = []string{"applied", "company", "interview", "job", "offer", "recruiter"}
var familyKeywords = []string{"kid", "child", "son", "daughter", "school"}

// Extract pulls typed entities out of memory text. Role gates the pattern
// families; text-level keywords open a family even under another role.
func Extract(text, role string) []Entity {
	lower := strings.ToLower(text)
	var entities []Entity
	seen := map[string]bool{}

	add := func(entityType, label, relation string) {
		label = normalizeLabel(label)
		if label == "" {
			return
		}
		id := entityType + ":" + slugify(label)
		if seen[id] {
			return
		}
		seen[id] = true
		entities = append(entities, Entity{
			ID:       id,
			Label:    label,
			Type:     entityType,
			Relation: relation,
		})
	}

	if role == "student" || containsAny(lower, academicKeywords) {
		for _, m := range courseCodePattern.FindAllStringSubmatch(text, -1) {
			add("course", m[1], "studying")
		}
		for _, m := range coursePattern.FindAllStringSubmatch(text, -1) {
			add("course", m[1], "studying")
		}
		for _, m := range examPattern.FindAllStringSubmatch(text, -1) {
			label := m[1]
			if label == "" {
				label = "exam"
			}
			add("exam", label, "preparing_for")
		}
		for _, m := range topicPattern.FindAllStringSubmatch(text, -1) {
			add("topic", m[1], "learning")
		}
	}

	if role == "job" || containsAny(lower, careerKeywords) {
		for _, m := range appliedPattern.FindAllStringSubmatch(text, -1) {
			add("company", m[1], "applied_to")
		}
		for _, m := range interviewPattern.FindAllStringSubmatch(text, -1) {
			add("company", m[1], "interviewing_at")
		}
	}

	if role == "parent" || containsAny(lower, familyKeywords) {
		for _, m := range kidPattern.FindAllStringSubmatch(text, -1) {
			add("kid", m[1], "caring_for")
		}
	}

	return entities
}

// normalizeLabel trims noise the loose capture groups pick up
func normalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = regexp.MustCompile(`\s+`).ReplaceAllString(label, " ")
	// Cut trailing connective words left over from the capture
	for _, suffix := range []string{" and", " on", " at", " for", " the", " a", " in", " with", " next", " this"} {
		for strings.HasSuffix(strings.ToLower(label), suffix) {
			label = strings.TrimSpace(label[:len(label)-len(suffix)])
		}
	}
	label = strings.TrimRight(label, ".,!?;:")
	if len(label) < 2 {
		return ""
	}
	return label
}

func slugify(label string) string {
	slug := strings.ToLower(label)
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
