package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/focusring/internal/catalog"
)

const currentVersion = 1

// DefaultNamespace prefixes device-local keys such as the recent list.
const DefaultNamespace = "focus_ring"

type Store struct {
	db        *sql.DB
	namespace string
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace sets the key prefix used for settings-backed state.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, namespace: DefaultNamespace, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS blocks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		date        TEXT NOT NULL,
		slot_index  INTEGER NOT NULL CHECK (slot_index >= 0 AND slot_index < 80),
		start_time  TEXT NOT NULL,
		category    TEXT,
		focus       INTEGER CHECK (focus IS NULL OR (focus >= 1 AND focus <= 5)),
		memo        TEXT,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(date, slot_index)
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_date ON blocks(date);

	CREATE TABLE IF NOT EXISTS categories (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		code         TEXT NOT NULL UNIQUE,
		label        TEXT NOT NULL,
		weight       INTEGER NOT NULL,
		color        TEXT NOT NULL,
		order_index  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_categories_order ON categories(order_index);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ddl); err != nil {
		return err
	}
	for _, c := range catalog.Default().All() {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO categories (code, label, weight, color, order_index) VALUES (?, ?, ?, ?, ?)`,
			c.Code, c.Label, c.Weight, c.Color, c.OrderIndex,
		); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Code, err)
		}
	}
	return tx.Commit()
}

// DefaultDBPath returns ~/.config/focusring/focusring.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "focusring", "focusring.db"), nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
