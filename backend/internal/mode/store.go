package mode

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"polymode/backend/pkg/errors"
)

// CustomMode is a user-defined persona row. Key uniqueness is enforced per
// user; a key equal to a built-in template's is legal.
type CustomMode struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Key              string    `json:"key"`
	Name             string    `json:"name"`
	Emoji            string    `json:"emoji,omitempty"`
	BaseRole         string    `json:"baseRole,omitempty"`
	Description      string    `json:"description,omitempty"`
	DefaultTags      []string  `json:"defaultTags,omitempty"`
	CrossModeSources []string  `json:"crossModeSources,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Store persists custom modes in SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the modes database at the given path
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_modes (
		id                 TEXT PRIMARY KEY,
		user_id            TEXT NOT NULL,
		key                TEXT NOT NULL,
		name               TEXT NOT NULL,
		emoji              TEXT,
		base_role          TEXT,
		description        TEXT,
		default_tags       TEXT,
		cross_mode_sources TEXT,
		created_at         TEXT NOT NULL,
		UNIQUE(user_id, key)
	);
	CREATE INDEX IF NOT EXISTS idx_user_modes_user ON user_modes(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new custom mode. Returns ErrModeKeyTaken when the user
// already owns the key.
func (s *Store) Create(ctx context.Context, m *CustomMode) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Key = strings.TrimSpace(strings.ToLower(m.Key))
	if m.Key == "" {
		return fmt.Errorf("mode key is required")
	}

	tags, err := json.Marshal(m.DefaultTags)
	if err != nil {
		return fmt.Errorf("encode default tags: %w", err)
	}
	sources, err := json.Marshal(m.CrossModeSources)
	if err != nil {
		return fmt.Errorf("encode cross mode sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_modes (id, user_id, key, name, emoji, base_role, description, default_tags, cross_mode_sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Key, m.Name, m.Emoji, m.BaseRole, m.Description,
		string(tags), string(sources), m.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return errors.NewModeKeyTaken(m.UserID, m.Key)
		}
		return fmt.Errorf("insert mode: %w", err)
	}
	return nil
}

// Get returns one custom mode by (userID, key). Returns ErrModeNotFound
// when no row exists.
func (s *Store) Get(ctx context.Context, userID, key string) (*CustomMode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, key, name, emoji, base_role, description, default_tags, cross_mode_sources, created_at
		FROM user_modes WHERE user_id = ? AND key = ?`, userID, key)

	m, err := scanMode(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewModeNotFound(userID, key)
	}
	if err != nil {
		return nil, fmt.Errorf("query mode: %w", err)
	}
	return m, nil
}

// List returns all custom modes for a user, oldest first
func (s *Store) List(ctx context.Context, userID string) ([]CustomMode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, key, name, emoji, base_role, description, default_tags, cross_mode_sources, created_at
		FROM user_modes WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list modes: %w", err)
	}
	defer rows.Close()

	var modes []CustomMode
	for rows.Next() {
		m, err := scanMode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mode: %w", err)
		}
		modes = append(modes, *m)
	}
	return modes, rows.Err()
}

// Delete removes a user's custom mode by key
func (s *Store) Delete(ctx context.Context, userID, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_modes WHERE user_id = ? AND key = ?`, userID, key)
	if err != nil {
		return fmt.Errorf("delete mode: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.NewModeNotFound(userID, key)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMode(row rowScanner) (*CustomMode, error) {
	var m CustomMode
	var emoji, baseRole, description, tagsJSON, sourcesJSON sql.NullString
	var createdAt string

	err := row.Scan(&m.ID, &m.UserID, &m.Key, &m.Name, &emoji, &baseRole, &description, &tagsJSON, &sourcesJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	m.Emoji = emoji.String
	m.BaseRole = baseRole.String
	m.Description = description.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &m.DefaultTags)
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		_ = json.Unmarshal([]byte(sourcesJSON.String), &m.CrossModeSources)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		m.CreatedAt = t
	}
	return &m, nil
}
