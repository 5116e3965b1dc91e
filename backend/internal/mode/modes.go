package mode

// Config is the resolved behavioral configuration for a mode key. The key
// itself is the sole isolation boundary for memory retrieval; BaseRole only
// selects prompts and classification rules.
type Config struct {
	Key              string   `json:"key"`
	BaseRole         string   `json:"baseRole"`
	Label            string   `json:"label"`
	Description      string   `json:"description,omitempty"`
	DefaultTags      []string `json:"defaultTags,omitempty"`
	CrossModeSources []string `json:"crossModeSources,omitempty"`
	IsCustom         bool     `json:"isCustom"`
}

// builtins are the immutable mode templates, keyed by their fixed ids.
// Each built-in borrows from the other two by default.
var builtins = map[string]Config{
	"student": {
		Key:              "student",
		BaseRole:         "student",
		Label:            "Student Coach",
		Description:      "Homework, study planning, deadlines, and academic advice",
		DefaultTags:      []string{"academic"},
		CrossModeSources: []string{"parent", "job"},
	},
	"parent": {
		Key:              "parent",
		BaseRole:         "parent",
		Label:            "Parent Planner",
		Description:      "Family planning, kids' activities, scheduling, and organization",
		DefaultTags:      []string{"family"},
		CrossModeSources: []string{"student", "job"},
	},
	"job": {
		Key:              "job",
		BaseRole:         "job",
		Label:            "Job-Hunt Assistant",
		Description:      "Applications, interview prep, career advice, and networking",
		DefaultTags:      []string{"career"},
		CrossModeSources: []string{"student", "parent"},
	},
}

// BuiltinKeys returns the fixed template keys in a stable order
func BuiltinKeys() []string {
	return []string{"student", "parent", "job"}
}

// Builtin returns the immutable template for a key, by value so callers
// cannot mutate the table
func Builtin(key string) (Config, bool) {
	cfg, ok := builtins[key]
	return cfg, ok
}
