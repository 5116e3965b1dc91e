package agent

import (
	"fmt"
	"sort"
	"strings"

	"polymode/backend/internal/mode"
	"polymode/backend/internal/supermemory"
)

const memorySnippetMax = 200

// roleBriefs describe how each base persona should behave. Custom modes
// inherit the brief of their base role.
var roleBriefs = map[string]string{
	"parent":  "Parent Planner - Help with family planning, kids' schedules, school events, and household logistics. Be warm, organized, and practical.",
	"student": "Student Coach - Help with coursework, exam preparation, study plans, and deadlines. Be encouraging and concrete.",
	"job":     "Job-Hunt Assistant - Help with applications, interview prep, networking, and career strategy. Be direct and tactical.",
}

// BuildPrompt renders the context bundle into a system prompt and the
// user-turn message. Missing sections render as "None" so the model never
// sees a dangling header.
func BuildPrompt(modeCfg mode.Config, message string, bundle *ContextBundle) (string, string) {
	var b strings.Builder

	brief, ok := roleBriefs[modeCfg.BaseRole]
	if !ok {
		brief = fmt.Sprintf("%s - Be a helpful, focused assistant for this area of the user's life.", modeCfg.Label)
	}
	b.WriteString("You are ")
	b.WriteString(brief)
	b.WriteString("\n")
	if modeCfg.IsCustom && modeCfg.Description != "" {
		b.WriteString("Mode focus: ")
		b.WriteString(modeCfg.Description)
		b.WriteString("\n")
	}
	b.WriteString("Stay within this mode's scope. Mention other areas of the user's life only when the context below makes them directly relevant.\n")

	b.WriteString("\n## User profile\n")
	b.WriteString(formatProfileLines(bundle.StaticProfile))

	if len(bundle.CrossRoleProfile) > 0 {
		b.WriteString("\n## Related background\n")
		b.WriteString(formatProfileLines(bundle.CrossRoleProfile))
	}

	b.WriteString("\n## Recent conversation memory\n")
	b.WriteString(formatMemoryLines(bundle.RecentMemories))

	b.WriteString("\n## Relevant long-term memory\n")
	b.WriteString(formatMemoryLines(bundle.LongTermMemories))

	if len(bundle.CrossRoleMemories) > 0 {
		b.WriteString("\n## From other modes\n")
		b.WriteString(formatMemoryLines(bundle.CrossRoleMemories))
	}

	b.WriteString("\nUse the memory above when it helps. Never invent memories the user did not state.\n")

	return b.String(), message
}

func formatProfileLines(slice map[string]interface{}) string {
	if len(slice) == 0 {
		return "None\n"
	}
	keys := make([]string, 0, len(slice))
	for k := range slice {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, slice[k])
	}
	return b.String()
}

func formatMemoryLines(memories []supermemory.Memory) string {
	if len(memories) == 0 {
		return "None\n"
	}
	var b strings.Builder
	for _, m := range memories {
		text := strings.TrimSpace(m.Text)
		if len(text) > memorySnippetMax {
			text = text[:memorySnippetMax]
		}
		if day := createdDay(m); day != "" {
			fmt.Fprintf(&b, "- %s (%s)\n", text, day)
		} else {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}
	return b.String()
}

// createdDay returns the YYYY-MM-DD prefix of the creation timestamp
func createdDay(m supermemory.Memory) string {
	if len(m.Metadata.CreatedAt) >= 10 {
		return m.Metadata.CreatedAt[:10]
	}
	return ""
}
