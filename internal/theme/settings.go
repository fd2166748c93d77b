package theme

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/novem-io/novem-webview/internal/db"
)

// ErrNotSet is returned by SettingsStore.Get for a key never written.
var ErrNotSet = errors.New("setting not set")

// SettingsStore persists settings in the settings table.
type SettingsStore struct {
	db *db.DB
}

// NewSettingsStore creates a SettingsStore backed by the given database.
func NewSettingsStore(database *db.DB) *SettingsStore {
	return &SettingsStore{db: database}
}

// Set writes value under key, replacing any previous value.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// Mode returns the persisted theme, or ErrNotSet before the first Enforce.
func (s *SettingsStore) Mode(ctx context.Context) (Mode, error) {
	v, err := s.Get(ctx, SettingKey)
	if err != nil {
		return "", err
	}
	return Mode(v), nil
}

// Chain writes each setting to every Settings in order and stops at the
// first failure.
type Chain []Settings

func (c Chain) Set(ctx context.Context, key, value string) error {
	for _, s := range c {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
