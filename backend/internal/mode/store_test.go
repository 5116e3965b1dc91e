package mode

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymode/backend/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "modes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &CustomMode{
		UserID:           "u1",
		Key:              "Fitness",
		Name:             "Fitness Coach",
		Emoji:            "💪",
		BaseRole:         "student",
		DefaultTags:      []string{"health"},
		CrossModeSources: []string{"parent"},
	}
	require.NoError(t, s.Create(ctx, m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "fitness", m.Key, "key is normalized to lowercase")

	got, err := s.Get(ctx, "u1", "fitness")
	require.NoError(t, err)
	assert.Equal(t, "Fitness Coach", got.Name)
	assert.Equal(t, "💪", got.Emoji)
	assert.Equal(t, []string{"health"}, got.DefaultTags)
	assert.Equal(t, []string{"parent"}, got.CrossModeSources)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_DuplicateKeyRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &CustomMode{UserID: "u1", Key: "fitness", Name: "A"}))

	err := s.Create(ctx, &CustomMode{UserID: "u1", Key: "fitness", Name: "B"})
	require.Error(t, err)
	_, ok := err.(*errors.ErrModeKeyTaken)
	assert.True(t, ok)
}

func TestStore_SameKeyDifferentUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &CustomMode{UserID: "u1", Key: "fitness", Name: "A"}))
	require.NoError(t, s.Create(ctx, &CustomMode{UserID: "u2", Key: "fitness", Name: "B"}))
}

func TestStore_BuiltinKeyIsCreatable(t *testing.T) {
	// A custom row may shadow a built-in key; resolution still prefers
	// the template, but the row must persist and list.
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &CustomMode{UserID: "u1", Key: "student", Name: "My Student"}))

	modes, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, modes, 1)
	assert.Equal(t, "student", modes[0].Key)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "u1", "nope")
	require.Error(t, err)
	_, ok := err.(*errors.ErrModeNotFound)
	assert.True(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &CustomMode{UserID: "u1", Key: "fitness", Name: "A"}))
	require.NoError(t, s.Delete(ctx, "u1", "fitness"))

	_, err := s.Get(ctx, "u1", "fitness")
	assert.Error(t, err)

	err = s.Delete(ctx, "u1", "fitness")
	_, ok := err.(*errors.ErrModeNotFound)
	assert.True(t, ok)
}

func TestStore_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	modes, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, modes)
}
