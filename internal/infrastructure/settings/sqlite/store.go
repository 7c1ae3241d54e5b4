// Package sqlite persists the API key and user settings in a small
// key-value table. Single writer, WAL mode, tolerant of concurrent readers.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const (
	keyAPIKey   = "api_key"
	keySettings = "settings"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

var _ output.SettingsStore = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the store and installs default settings on first
// run.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.installDefaults(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) installDefaults(ctx context.Context) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = ?`, keySettings).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check settings: %w", err)
	}
	if exists > 0 {
		return nil
	}
	return s.SaveSettings(ctx, entity.DefaultSettings())
}

func (s *Store) APIKey(ctx context.Context) (string, error) {
	key, err := s.get(ctx, keyAPIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return key, err
}

func (s *Store) SaveAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, keyAPIKey, key)
}

func (s *Store) Settings(ctx context.Context) (entity.Settings, error) {
	raw, err := s.get(ctx, keySettings)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultSettings(), nil
	}
	if err != nil {
		return entity.Settings{}, err
	}

	var settings entity.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		// A corrupt row must not brick the assistant.
		return entity.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings entity.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.set(ctx, keySettings, string(raw))
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, err
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
