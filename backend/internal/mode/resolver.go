package mode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"polymode/backend/pkg/logger"
)

// CustomModeSource is the slice of the mode store the resolver needs
type CustomModeSource interface {
	Get(ctx context.Context, userID, key string) (*CustomMode, error)
	List(ctx context.Context, userID string) ([]CustomMode, error)
}

// Resolver maps a mutable, user-defined mode key to a stable behavioral
// configuration. Resolution is a pure lookup; it never persists anything.
type Resolver struct {
	store       CustomModeSource
	defaultRole string
	logger      *zap.Logger
}

// NewResolver creates a resolver. defaultRole is used for empty keys and
// for ad hoc modes with no stored base role.
func NewResolver(store CustomModeSource, defaultRole string) *Resolver {
	if defaultRole == "" {
		defaultRole = "student"
	}
	return &Resolver{
		store:       store,
		defaultRole: defaultRole,
		logger:      logger.Get(),
	}
}

// Resolve maps (userID, key) to a mode configuration. Order: built-in
// template, then the user's custom modes, then an ad hoc fallback. An
// empty or whitespace key falls back to the default role.
func (r *Resolver) Resolve(ctx context.Context, userID, key string) Config {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		key = r.defaultRole
	}

	if tpl, ok := Builtin(key); ok {
		return tpl
	}

	if r.store != nil {
		if custom, err := r.store.Get(ctx, userID, key); err == nil {
			return r.fromCustom(ctx, userID, custom)
		}
	}

	// Ad hoc mode: nothing stored, behave as the default role with no
	// cross-mode borrowing
	return Config{
		Key:      key,
		BaseRole: r.defaultRole,
		Label:    key,
		IsCustom: true,
	}
}

func (r *Resolver) fromCustom(ctx context.Context, userID string, custom *CustomMode) Config {
	baseRole := custom.BaseRole
	if baseRole == "" {
		// The key itself doubles as the role when none was configured
		baseRole = custom.Key
	}

	sources := custom.CrossModeSources
	if len(sources) == 0 {
		sources = r.allOtherModeKeys(ctx, userID, custom.Key)
	}

	label := custom.Name
	if label == "" {
		label = custom.Key
	}

	return Config{
		Key:              custom.Key,
		BaseRole:         baseRole,
		Label:            label,
		Description:      custom.Description,
		DefaultTags:      custom.DefaultTags,
		CrossModeSources: sources,
		IsCustom:         true,
	}
}

// allOtherModeKeys computes the on-the-fly cross-source union: every
// built-in key plus the user's other custom keys. A custom mode with no
// explicit configuration still borrows broadly.
func (r *Resolver) allOtherModeKeys(ctx context.Context, userID, exclude string) []string {
	seen := map[string]bool{exclude: true}
	var keys []string
	for _, k := range BuiltinKeys() {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if r.store != nil {
		customs, err := r.store.List(ctx, userID)
		if err != nil {
			r.logger.Debug("Failed to list custom modes for cross-source union",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return keys
		}
		for _, c := range customs {
			if !seen[c.Key] {
				seen[c.Key] = true
				keys = append(keys, c.Key)
			}
		}
	}
	return keys
}
