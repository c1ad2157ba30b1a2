// Package localstore keeps blocks as one JSON file per key on the local
// device. Keys are "{namespace}_{date}_{slot}" and the recent categories
// list lives under "{namespace}_recent_categories".
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
)

// DefaultNamespace matches the sqlite store's settings prefix.
const DefaultNamespace = "focus_ring"

// Store is a diskv-backed block store.
type Store struct {
	mu        sync.Mutex
	d         *diskv.Diskv
	namespace string
	catalog   catalog.Catalog
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Store) { s.catalog = c }
}

// Open creates basePath if needed and returns a store rooted there.
func Open(basePath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{
		d: diskv.New(diskv.Options{
			BasePath: basePath,
			// Writes land in TempDir and are renamed into place.
			TempDir:      filepath.Join(basePath, ".tmp"),
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 1024 * 1024,
		}),
		namespace: DefaultNamespace,
		catalog:   catalog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// record is the on-disk shape of a block.
type record struct {
	Category  *string    `json:"category"`
	Focus     *int       `json:"focus"`
	Memo      *string    `json:"memo"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (s *Store) blockKey(date string, slot int) string {
	return s.namespace + "_" + date + "_" + strconv.Itoa(slot)
}

func (s *Store) recentKey() string {
	return s.namespace + "_recent_categories"
}

func (s *Store) read(date string, slot int) (day.Block, error) {
	b := day.EmptyBlock(date, slot)
	data, err := s.d.Read(s.blockKey(date, slot))
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return day.Block{}, errs.E("read block", errs.Unavailable, err)
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return day.Block{}, errs.E("decode block", errs.Unavailable, err)
	}
	b.Category, b.Focus, b.Memo, b.UpdatedAt = r.Category, r.Focus, r.Memo, r.UpdatedAt
	return b, nil
}

func (s *Store) GetBlock(ctx context.Context, date string, slot int) (day.Block, error) {
	if _, err := day.ParseDate(date); err != nil {
		return day.Block{}, err
	}
	if err := day.ValidateSlot(slot); err != nil {
		return day.Block{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(date, slot)
}

// SetBlock merges u into the stored block. The mutex serializes the
// read-merge-write so concurrent partial updates both land.
func (s *Store) SetBlock(ctx context.Context, date string, slot int, u day.Update) error {
	if _, err := day.ParseDate(date); err != nil {
		return err
	}
	if err := day.ValidateSlot(slot); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.E("set block", errs.Unavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(date, slot)
	if err != nil {
		return err
	}
	merged := u.Apply(current, s.now())
	data, err := json.Marshal(record{
		Category:  merged.Category,
		Focus:     merged.Focus,
		Memo:      merged.Memo,
		UpdatedAt: merged.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}
	if err := s.d.Write(s.blockKey(date, slot), data); err != nil {
		return errs.E("write block", errs.Unavailable, err)
	}
	return nil
}

func (s *Store) GetDay(ctx context.Context, date string) (day.Snapshot, error) {
	if _, err := day.ParseDate(date); err != nil {
		return day.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := make([]day.Block, 0, day.SlotsPerDay)
	for slot := 0; slot < day.SlotsPerDay; slot++ {
		if err := ctx.Err(); err != nil {
			return day.Snapshot{}, errs.E("get day", errs.Unavailable, err)
		}
		b, err := s.read(date, slot)
		if err != nil {
			return day.Snapshot{}, err
		}
		blocks = append(blocks, b)
	}
	return day.NewSnapshot(date, blocks)
}

func (s *Store) GetRange(ctx context.Context, from, to string) ([]day.Snapshot, error) {
	dates, err := day.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]day.Snapshot, 0, len(dates))
	for _, d := range dates {
		snap, err := s.GetDay(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Catalog returns the configured catalog; it is not persisted.
func (s *Store) Catalog(context.Context) (catalog.Catalog, error) {
	return s.catalog, nil
}

// Dates lists the distinct dates that have at least one block with a
// category, focus or memo. Files left behind by cleared blocks do not
// count.
func (s *Store) Dates(ctx context.Context) []string {
	prefix := s.namespace + "_"
	seen := make(map[string]bool)
	var dates []string
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		date, slotText, ok := strings.Cut(strings.TrimPrefix(key, prefix), "_")
		if !ok || seen[date] {
			continue
		}
		if _, err := day.ParseDate(date); err != nil {
			continue
		}
		slot, err := strconv.Atoi(slotText)
		if err != nil {
			continue
		}
		s.mu.Lock()
		b, err := s.read(date, slot)
		s.mu.Unlock()
		if err != nil || (b.Category == nil && b.Focus == nil && b.Memo == nil) {
			continue
		}
		seen[date] = true
		dates = append(dates, date)
	}
	return dates
}

func (s *Store) LoadRecent(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.d.Read(s.recentKey())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.E("load recent", errs.Unavailable, err)
	}
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, errs.E("load recent", errs.Unavailable, err)
	}
	return codes, nil
}

func (s *Store) SaveRecent(_ context.Context, codes []string) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("encode recent: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(s.recentKey(), data); err != nil {
		return errs.E("save recent", errs.Unavailable, err)
	}
	return nil
}
