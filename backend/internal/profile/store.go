package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"polymode/backend/internal/supermemory"
	"polymode/backend/pkg/logger"
)

// Store persists the user profile as a single dedicated document in the
// external memory store, outside mode isolation.
type Store struct {
	sm     *supermemory.Client
	logger *zap.Logger
}

// NewStore creates a profile store over the Supermemory client
func NewStore(sm *supermemory.Client) *Store {
	return &Store{
		sm:     sm,
		logger: logger.Get(),
	}
}

func profileTags(userID string) []string {
	return []string{fmt.Sprintf("%s-profile", userID), "profile", "static"}
}

// Get fetches a user's profile. A missing profile is a normal case, not an
// error; the caller receives nil and builds an empty slice.
func (s *Store) Get(ctx context.Context, userID string) *UserProfile {
	results := s.sm.SearchByTags(ctx, profileTags(userID), fmt.Sprintf("user profile %s", userID), 1)
	if len(results) == 0 {
		return nil
	}

	var p UserProfile
	if err := json.Unmarshal([]byte(results[0].Text), &p); err != nil {
		s.logger.Warn("Stored profile is not valid JSON, treating as absent",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return &p
}

// Upsert stores or replaces the user's profile document. Returns false when
// the write could not be persisted.
func (s *Store) Upsert(ctx context.Context, userID string, p *UserProfile) bool {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("Failed to encode profile", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	meta := supermemory.Metadata{
		Type:   "user_profile",
		UserID: userID,
	}

	existing := s.sm.SearchByTags(ctx, profileTags(userID), fmt.Sprintf("user profile %s", userID), 1)
	if len(existing) > 0 && existing[0].ID != "" {
		merged := existing[0].Metadata.Merge(meta)
		if updated := s.sm.Update(ctx, existing[0].ID, string(data), &merged); updated != nil {
			return true
		}
		return false
	}

	created := s.sm.CreateWithTags(ctx, string(data), meta, profileTags(userID))
	return created != nil
}
