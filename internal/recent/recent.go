// Package recent keeps the most-recently-used category codes, newest
// first, for quick selection.
package recent

import (
	"context"
	"sync"
)

// Limit is the number of codes kept.
const Limit = 10

// Storage persists the list on the local device.
type Storage interface {
	LoadRecent(ctx context.Context) ([]string, error)
	SaveRecent(ctx context.Context, codes []string) error
}

// Tracker is the in-memory list with write-through persistence.
type Tracker struct {
	mu      sync.Mutex
	storage Storage
	codes   []string
}

// New returns an empty tracker. Call Load to restore a saved list.
func New(storage Storage) *Tracker {
	return &Tracker{storage: storage}
}

// Load replaces the in-memory list with the stored one, normalized to
// the dedup and length rules.
func (t *Tracker) Load(ctx context.Context) error {
	if t.storage == nil {
		return nil
	}
	codes, err := t.storage.LoadRecent(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.codes = t.codes[:0]
	for _, c := range codes {
		if c == "" || contains(t.codes, c) {
			continue
		}
		t.codes = append(t.codes, c)
		if len(t.codes) == Limit {
			break
		}
	}
	return nil
}

// RecordUse moves code to the front. The in-memory list always changes;
// the returned error only reports a failed save.
func (t *Tracker) RecordUse(ctx context.Context, code string) error {
	t.mu.Lock()
	next := []string{code}
	for _, c := range t.codes {
		if c != code && len(next) < Limit {
			next = append(next, c)
		}
	}
	t.codes = next
	snapshot := t.listLocked()
	t.mu.Unlock()

	if t.storage == nil {
		return nil
	}
	return t.storage.SaveRecent(ctx, snapshot)
}

// List returns a copy of the current list.
func (t *Tracker) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listLocked()
}

func (t *Tracker) listLocked() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MemoryStorage keeps the list in process memory.
type MemoryStorage struct {
	mu    sync.Mutex
	codes []string
}

func (m *MemoryStorage) LoadRecent(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes...), nil
}

func (m *MemoryStorage) SaveRecent(_ context.Context, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append([]string(nil), codes...)
	return nil
}
