package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewMemory(opts...)
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/focusring.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.SetBlock(ctx, "2025-03-14", 0, day.Update{Category: day.Set("STUDY")}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen, data must survive and migrations must not rerun.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	b, err := s2.GetBlock(ctx, "2025-03-14", 0)
	if err != nil {
		t.Fatal(err)
	}
	if b.CategoryCode() != "STUDY" {
		t.Fatalf("expected STUDY after reopen, got %q", b.CategoryCode())
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Categories
// ============================================================

func TestCatalogSeeded(t *testing.T) {
	s := newTestStore(t)
	cat, err := s.Catalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 16 {
		t.Fatalf("expected 16 seeded categories, got %d", cat.Len())
	}
	first := cat.All()[0]
	if first.Code != "STUDY" || first.Weight != 3 {
		t.Fatalf("unexpected first category: %+v", first)
	}
	lost, ok := cat.Lookup("LOST")
	if !ok || lost.Weight != -4 {
		t.Fatalf("expected LOST with weight -4, got %+v (ok=%v)", lost, ok)
	}
}

// ============================================================
// Blocks
// ============================================================

func TestGetBlockMissingIsEmpty(t *testing.T) {
	s := newTestStore(t)
	b, err := s.GetBlock(context.Background(), "2025-03-14", 10)
	if err != nil {
		t.Fatal(err)
	}
	if b.Filled() || b.Focus != nil || b.Memo != nil {
		t.Fatalf("expected empty block, got %+v", b)
	}
	if b.StartTime != "06:30" {
		t.Fatalf("expected start 06:30, got %s", b.StartTime)
	}
}

func TestSetBlockMergesFields(t *testing.T) {
	s := newTestStore(t, WithClock(fixedClock))
	ctx := context.Background()

	if err := s.SetBlock(ctx, "2025-03-14", 5, day.Update{Category: day.Set("STUDY"), Focus: day.Set(4)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBlock(ctx, "2025-03-14", 5, day.Update{Memo: day.Set("chapter 3")}); err != nil {
		t.Fatal(err)
	}

	b, err := s.GetBlock(ctx, "2025-03-14", 5)
	if err != nil {
		t.Fatal(err)
	}
	if b.CategoryCode() != "STUDY" {
		t.Fatalf("category lost on partial update: %+v", b)
	}
	if b.Focus == nil || *b.Focus != 4 {
		t.Fatalf("focus lost on partial update: %+v", b)
	}
	if b.Memo == nil || *b.Memo != "chapter 3" {
		t.Fatalf("memo not written: %+v", b)
	}
	if b.UpdatedAt == nil || !b.UpdatedAt.Equal(fixedClock()) {
		t.Fatalf("expected updated_at %v, got %v", fixedClock(), b.UpdatedAt)
	}
}

func TestSetBlockNullClears(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetBlock(ctx, "2025-03-14", 5, day.Update{
		Category: day.Set("VIDEO"), Focus: day.Set(2), Memo: day.Set("oops"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBlock(ctx, "2025-03-14", 5, day.ClearAll()); err != nil {
		t.Fatal(err)
	}

	b, err := s.GetBlock(ctx, "2025-03-14", 5)
	if err != nil {
		t.Fatal(err)
	}
	if b.Filled() || b.Focus != nil || b.Memo != nil {
		t.Fatalf("expected cleared block, got %+v", b)
	}
}

func TestSetBlockIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := day.Update{Category: day.Set("AI"), Focus: day.Set(5)}

	for i := 0; i < 3; i++ {
		if err := s.SetBlock(ctx, "2025-03-14", 7, u); err != nil {
			t.Fatal(err)
		}
	}

	var rows int
	s.db.QueryRow(`SELECT COUNT(*) FROM blocks WHERE date = ? AND slot_index = ?`, "2025-03-14", 7).Scan(&rows)
	if rows != 1 {
		t.Fatalf("expected a single row, got %d", rows)
	}
}

func TestSetBlockInvalidArguments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name string
		date string
		slot int
		u    day.Update
	}{
		{"slot too high", "2025-03-14", 80, day.Update{Category: day.Set("STUDY")}},
		{"negative slot", "2025-03-14", -1, day.Update{Category: day.Set("STUDY")}},
		{"bad date", "2025-13-40", 0, day.Update{Category: day.Set("STUDY")}},
		{"focus too high", "2025-03-14", 0, day.Update{Focus: day.Set(6)}},
		{"focus zero", "2025-03-14", 0, day.Update{Focus: day.Set(0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.SetBlock(ctx, tc.date, tc.slot, tc.u)
			if !errs.Is(err, errs.InvalidArgument) {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}

	var rows int
	s.db.QueryRow(`SELECT COUNT(*) FROM blocks`).Scan(&rows)
	if rows != 0 {
		t.Fatalf("rejected writes must not touch storage, got %d rows", rows)
	}
}

func TestSetBlockUnknownCategoryStored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SetBlock(ctx, "2025-03-14", 0, day.Update{Category: day.Set("RETIRED")}); err != nil {
		t.Fatal(err)
	}
	b, _ := s.GetBlock(ctx, "2025-03-14", 0)
	if b.CategoryCode() != "RETIRED" {
		t.Fatalf("expected RETIRED, got %q", b.CategoryCode())
	}
}

func TestSetBlockConcurrentFieldsBothLand(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.SetBlock(ctx, "2025-03-14", 20, day.Update{Category: day.Set("WORK_LOG")}); err != nil {
			t.Error(err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.SetBlock(ctx, "2025-03-14", 20, day.Update{Memo: day.Set("standup")}); err != nil {
			t.Error(err)
		}
	}()
	wg.Wait()

	b, _ := s.GetBlock(ctx, "2025-03-14", 20)
	if b.CategoryCode() != "WORK_LOG" || b.Memo == nil || *b.Memo != "standup" {
		t.Fatalf("expected both fields merged, got %+v", b)
	}
}

func TestGetDayReturnsAllSlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SetBlock(ctx, "2025-03-14", 0, day.Update{Category: day.Set("STUDY")})
	s.SetBlock(ctx, "2025-03-14", 79, day.Update{Category: day.Set("SLEEP")})
	s.SetBlock(ctx, "2025-03-15", 0, day.Update{Category: day.Set("SNS")})

	snap, err := s.GetDay(ctx, "2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Blocks) != day.SlotsPerDay {
		t.Fatalf("expected %d blocks, got %d", day.SlotsPerDay, len(snap.Blocks))
	}
	if snap.FilledCount() != 2 {
		t.Fatalf("expected 2 filled, got %d", snap.FilledCount())
	}
	if snap.Blocks[79].StartTime != "23:45" {
		t.Fatalf("expected last slot 23:45, got %s", snap.Blocks[79].StartTime)
	}
}

func TestGetDayEmpty(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.GetDay(context.Background(), "2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if snap.FilledCount() != 0 || len(snap.Blocks) != day.SlotsPerDay {
		t.Fatalf("unexpected empty day: filled=%d blocks=%d", snap.FilledCount(), len(snap.Blocks))
	}
}

func TestGetRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SetBlock(ctx, "2025-03-13", 3, day.Update{Category: day.Set("AI")})
	s.SetBlock(ctx, "2025-03-15", 4, day.Update{Category: day.Set("AI")})

	days, err := s.GetRange(ctx, "2025-03-13", "2025-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].Date != "2025-03-13" || days[2].Date != "2025-03-15" {
		t.Fatalf("unexpected order: %s..%s", days[0].Date, days[2].Date)
	}
	if days[1].FilledCount() != 0 {
		t.Fatal("middle day should be empty")
	}
}

func TestGetRangeInverted(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRange(context.Background(), "2025-03-15", "2025-03-13")
	if !errs.Is(err, errs.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "missing")
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(ctx, "theme")
	if err != nil {
		t.Fatal(err)
	}
	if v != "light" {
		t.Fatalf("expected light, got %s", v)
	}
}

func TestRecentRoundTrip(t *testing.T) {
	s := newTestStore(t, WithNamespace("test_ns"))
	ctx := context.Background()

	codes, err := s.LoadRecent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 0 {
		t.Fatalf("expected no recent codes, got %v", codes)
	}

	if err := s.SaveRecent(ctx, []string{"AI", "STUDY"}); err != nil {
		t.Fatal(err)
	}
	codes, err = s.LoadRecent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 2 || codes[0] != "AI" || codes[1] != "STUDY" {
		t.Fatalf("unexpected recent codes: %v", codes)
	}

	raw, err := s.GetSetting(ctx, "test_ns_recent_categories")
	if err != nil {
		t.Fatal(err)
	}
	if raw != `["AI","STUDY"]` {
		t.Fatalf("unexpected stored value: %s", raw)
	}
}

// ============================================================
// Stats
// ============================================================

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SetBlock(ctx, "2025-03-13", 0, day.Update{Category: day.Set("AI")})
	s.SetBlock(ctx, "2025-03-14", 0, day.Update{Category: day.Set("AI")})
	s.SetBlock(ctx, "2025-03-14", 1, day.Update{Memo: day.Set("no category")})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalBlocks != 3 || st.FilledBlocks != 2 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.FirstDate != "2025-03-13" || st.LastDate != "2025-03-14" {
		t.Fatalf("unexpected dates: %+v", st)
	}
	if st.TotalCategories != 16 {
		t.Fatalf("expected 16 categories, got %d", st.TotalCategories)
	}
}
