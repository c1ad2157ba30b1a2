// Package controller drives one day view: which date is shown, which
// slot is open for editing, and the cached snapshot and summary.
package controller

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
	"github.com/sadopc/focusring/internal/recent"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// BlockStore is the persistence the controller reads and writes.
type BlockStore interface {
	GetDay(ctx context.Context, date string) (day.Snapshot, error)
	SetBlock(ctx context.Context, date string, slot int, u day.Update) error
}

// RangeReader is implemented by stores that can load many days at once.
type RangeReader interface {
	GetRange(ctx context.Context, from, to string) ([]day.Snapshot, error)
}

// CatalogSource supplies the category catalog.
type CatalogSource interface {
	Catalog(ctx context.Context) (catalog.Catalog, error)
}

// Mode is the edit state of the view.
type Mode int

const (
	Idle Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "idle"
}

// NoSlot is the selected slot while Idle.
const NoSlot = -1

// Options configures New.
type Options struct {
	Store   BlockStore
	Catalog CatalogSource
	Recent  *recent.Tracker
	Advice  suggest.Source
	Logger  *slog.Logger
	Now     func() time.Time
	// Date is the first date shown; empty means today.
	Date string
}

// View is a consistent copy of what the UI renders.
type View struct {
	Date     string
	Snapshot day.Snapshot
	Summary  summary.Daily
	Catalog  catalog.Catalog
	Recent   []string
	Mode     Mode
	Selected int
	// Saving lists the slots of Date with a write outstanding.
	Saving []int
}

// IsSaving reports whether a write for slot is outstanding.
func (v View) IsSaving(slot int) bool {
	return slices.Contains(v.Saving, slot)
}

type slotKey struct {
	date string
	slot int
}

// Controller is safe for concurrent use; store calls run without the
// lock held so the UI can keep rendering while a write is outstanding.
type Controller struct {
	store   BlockStore
	recent  *recent.Tracker
	advice  suggest.Source
	logger  *slog.Logger
	now     func() time.Time
	catalog catalog.Catalog

	mu       sync.Mutex
	date     string
	snap     day.Snapshot
	sum      summary.Daily
	mode     Mode
	selected int
	// editSeq changes whenever an edit opens or closes.
	editSeq  uint64
	navSeq   uint64
	pending  string
	inflight map[slotKey]bool
}

// New loads the catalog, the recent list and the first day.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Store == nil || opts.Catalog == nil {
		return nil, errs.Errorf("new controller", errs.InvalidArgument, "store and catalog are required")
	}
	c := &Controller{
		store:    opts.Store,
		recent:   opts.Recent,
		advice:   opts.Advice,
		logger:   opts.Logger,
		now:      opts.Now,
		selected: NoSlot,
		inflight: make(map[slotKey]bool),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.recent == nil {
		c.recent = recent.New(nil)
	}
	if c.advice == nil {
		c.advice = suggest.Local{Days: opts.Store, Categories: opts.Catalog}
	}

	cat, err := opts.Catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	c.catalog = cat

	if err := c.recent.Load(ctx); err != nil {
		c.logger.Warn("load recent categories", slog.String("error", err.Error()))
	}

	date := opts.Date
	if date == "" {
		date = day.FormatDate(c.now())
	}
	if _, err := day.ParseDate(date); err != nil {
		return nil, err
	}
	snap, err := c.store.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}
	c.date, c.pending = date, date
	c.snap = snap
	c.sum = summary.Compute(snap, cat)
	return c, nil
}

// Navigate shifts the shown date by delta days and reloads it. On
// failure the previous date stays shown. A navigation superseded by a
// later one is dropped silently.
func (c *Controller) Navigate(ctx context.Context, delta int) error {
	c.mu.Lock()
	target, err := day.AddDays(c.pending, delta)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.GoTo(ctx, target)
}

// Today shows the current calendar date.
func (c *Controller) Today(ctx context.Context) error {
	return c.GoTo(ctx, day.FormatDate(c.now()))
}

// GoTo shows date.
func (c *Controller) GoTo(ctx context.Context, date string) error {
	if _, err := day.ParseDate(date); err != nil {
		return err
	}

	c.mu.Lock()
	c.navSeq++
	seq := c.navSeq
	c.pending = date
	c.mu.Unlock()

	snap, err := c.store.GetDay(ctx, date)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.navSeq {
		c.logger.Debug("discard superseded day load", slog.String("date", date))
		return nil
	}
	if err != nil {
		c.pending = c.date
		c.logger.Warn("load day", slog.String("date", date), slog.String("error", err.Error()))
		return err
	}
	c.date = date
	c.snap = snap
	c.sum = summary.Compute(snap, c.catalog)
	c.mode, c.selected = Idle, NoSlot
	c.editSeq++
	return nil
}

// SelectSlot opens slot for editing and returns its current block.
func (c *Controller) SelectSlot(slot int) (day.Block, error) {
	if err := day.ValidateSlot(slot); err != nil {
		return day.Block{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Editing {
		return day.Block{}, errs.Errorf("select slot", errs.InvalidArgument, "slot %d is already open", c.selected)
	}
	b, err := c.snap.Block(slot)
	if err != nil {
		return day.Block{}, err
	}
	c.mode, c.selected = Editing, slot
	c.editSeq++
	return b, nil
}

// CancelEdit closes the edit without writing.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode, c.selected = Idle, NoSlot
	c.editSeq++
}

// ClearSlot nulls every field of the open slot.
func (c *Controller) ClearSlot(ctx context.Context) error {
	return c.ApplyEdit(ctx, day.ClearAll())
}

// ApplyEdit writes u to the open slot. The slot is closed while the
// write runs so another one can be opened; on failure it is reopened
// unless another edit or a day change happened meanwhile, and the error
// is returned. A second write for the same slot while one is
// outstanding fails with errs.Conflict.
func (c *Controller) ApplyEdit(ctx context.Context, u day.Update) error {
	const op = "apply edit"
	if err := u.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.mode != Editing {
		c.mu.Unlock()
		return errs.Errorf(op, errs.InvalidArgument, "no slot is open for editing")
	}
	key := slotKey{date: c.date, slot: c.selected}
	if c.inflight[key] {
		c.mu.Unlock()
		return errs.Errorf(op, errs.Conflict, "write for %s slot %d already in flight", key.date, key.slot)
	}
	c.inflight[key] = true
	c.mode, c.selected = Idle, NoSlot
	c.editSeq++
	seq := c.editSeq
	c.mu.Unlock()

	err := c.store.SetBlock(ctx, key.date, key.slot, u)
	if err != nil {
		c.mu.Lock()
		delete(c.inflight, key)
		if c.editSeq == seq && c.date == key.date {
			c.mode, c.selected = Editing, key.slot
		}
		c.mu.Unlock()
		c.logger.Warn("save block",
			slog.String("date", key.date),
			slog.Int("slot", key.slot),
			slog.String("error", err.Error()))
		return err
	}

	if code, ok := u.Category.Value(); ok {
		if err := c.recent.RecordUse(ctx, code); err != nil {
			c.logger.Warn("save recent categories", slog.String("error", err.Error()))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	// A reload of the same date may have read the store before the write
	// landed, so the result is applied whenever that date is still shown.
	if c.date != key.date {
		c.logger.Debug("write finished after navigation",
			slog.String("date", key.date),
			slog.Int("slot", key.slot))
		return nil
	}
	b, err := c.snap.Block(key.slot)
	if err != nil {
		return err
	}
	c.snap = c.snap.With(u.Apply(b, c.now()))
	c.sum = summary.Compute(c.snap, c.catalog)
	return nil
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Date:     c.date,
		Snapshot: c.snap.Clone(),
		Summary:  c.sum,
		Catalog:  c.catalog,
		Recent:   c.recent.List(),
		Mode:     c.mode,
		Selected: c.selected,
		Saving:   c.savingSlots(),
	}
}

func (c *Controller) savingSlots() []int {
	var slots []int
	for k := range c.inflight {
		if k.date == c.date {
			slots = append(slots, k.slot)
		}
	}
	slices.Sort(slots)
	return slots
}

// State reports the edit mode and selected slot.
func (c *Controller) State() (Mode, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.selected
}

// Date is the date currently shown.
func (c *Controller) Date() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// Trend summarizes from..to, at most summary.MaxTrendDays days.
func (c *Controller) Trend(ctx context.Context, from, to string) (summary.TrendReport, error) {
	dates, err := day.DateRange(from, to)
	if err != nil {
		return summary.TrendReport{}, err
	}
	if len(dates) > summary.MaxTrendDays {
		return summary.TrendReport{}, errs.Errorf("trend", errs.InvalidArgument,
			"range of %d days exceeds %d", len(dates), summary.MaxTrendDays)
	}

	var days []day.Snapshot
	if rr, ok := c.store.(RangeReader); ok {
		days, err = rr.GetRange(ctx, from, to)
		if err != nil {
			return summary.TrendReport{}, err
		}
	} else {
		for _, d := range dates {
			snap, err := c.store.GetDay(ctx, d)
			if err != nil {
				return summary.TrendReport{}, err
			}
			days = append(days, snap)
		}
	}
	return summary.Trend(days, c.catalog), nil
}

// Suggestions returns advice for the shown date.
func (c *Controller) Suggestions(ctx context.Context) (suggest.Advice, error) {
	return c.advice.Suggestions(ctx, c.Date())
}
