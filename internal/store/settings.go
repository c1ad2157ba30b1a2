package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sadopc/focusring/internal/errs"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", errs.Errorf("get setting", errs.NotFound, "setting %q not set", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// RecentKey is the settings key holding the recent categories list.
func (s *Store) RecentKey() string {
	return s.namespace + "_recent_categories"
}

// LoadRecent reads the recent categories list; a missing key is empty.
func (s *Store) LoadRecent(ctx context.Context) ([]string, error) {
	raw, err := s.GetSetting(ctx, s.RecentKey())
	if errs.Is(err, errs.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.E("load recent", errs.Unavailable, err)
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, errs.E("load recent", errs.Unavailable, err)
	}
	return codes, nil
}

// SaveRecent stores the recent categories list as a JSON array.
func (s *Store) SaveRecent(ctx context.Context, codes []string) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("marshal recent: %w", err)
	}
	if err := s.SetSetting(ctx, s.RecentKey(), string(data)); err != nil {
		return errs.E("save recent", errs.Unavailable, err)
	}
	return nil
}
