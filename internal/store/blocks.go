package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(r rowScanner) (day.Block, error) {
	var (
		b         day.Block
		category  sql.NullString
		focus     sql.NullInt64
		memo      sql.NullString
		updatedAt string
	)
	if err := r.Scan(&b.Date, &b.Slot, &category, &focus, &memo, &updatedAt); err != nil {
		return day.Block{}, err
	}
	b.StartTime = day.StartTime(b.Slot)
	if category.Valid {
		b.Category = &category.String
	}
	if focus.Valid {
		f := int(focus.Int64)
		b.Focus = &f
	}
	if memo.Valid {
		b.Memo = &memo.String
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		b.UpdatedAt = &t
	}
	return b, nil
}

const blockColumns = `date, slot_index, category, focus, memo, updated_at`

func validateKey(date string, slot int) error {
	if _, err := day.ParseDate(date); err != nil {
		return err
	}
	return day.ValidateSlot(slot)
}

// GetBlock returns the stored block or an unfilled one.
func (s *Store) GetBlock(ctx context.Context, date string, slot int) (day.Block, error) {
	if err := validateKey(date, slot); err != nil {
		return day.Block{}, err
	}
	b, err := scanBlock(s.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE date = ? AND slot_index = ?`, date, slot,
	))
	if err == sql.ErrNoRows {
		return day.EmptyBlock(date, slot), nil
	}
	if err != nil {
		return day.Block{}, errs.E("get block", errs.Unavailable, err)
	}
	return b, nil
}

// SetBlock merges u into the stored block inside one transaction.
func (s *Store) SetBlock(ctx context.Context, date string, slot int, u day.Update) error {
	if err := validateKey(date, slot); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.E("set block", errs.Unavailable, err)
	}
	defer tx.Rollback()

	current, err := scanBlock(tx.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE date = ? AND slot_index = ?`, date, slot,
	))
	switch {
	case err == sql.ErrNoRows:
		current = day.EmptyBlock(date, slot)
	case err != nil:
		return errs.E("set block", errs.Unavailable, err)
	}

	merged := u.Apply(current, s.now())
	ts := merged.UpdatedAt.Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO blocks (date, slot_index, start_time, category, focus, memo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, slot_index) DO UPDATE SET
			category   = excluded.category,
			focus      = excluded.focus,
			memo       = excluded.memo,
			updated_at = excluded.updated_at`,
		date, slot, day.StartTime(slot), merged.Category, merged.Focus, merged.Memo, ts, ts,
	)
	if err != nil {
		return errs.E("set block", errs.Unavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return errs.E("set block", errs.Unavailable, err)
	}
	return nil
}

// GetDay returns all 80 slots of date.
func (s *Store) GetDay(ctx context.Context, date string) (day.Snapshot, error) {
	if _, err := day.ParseDate(date); err != nil {
		return day.Snapshot{}, err
	}
	days, err := s.GetRange(ctx, date, date)
	if err != nil {
		return day.Snapshot{}, err
	}
	return days[0], nil
}

// GetRange returns one snapshot per date in from..to inclusive.
func (s *Store) GetRange(ctx context.Context, from, to string) ([]day.Snapshot, error) {
	dates, err := day.DateRange(from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE date BETWEEN ? AND ? ORDER BY date, slot_index`, from, to,
	)
	if err != nil {
		return nil, errs.E("get range", errs.Unavailable, err)
	}
	defer rows.Close()

	byDate := make(map[string][]day.Block)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, errs.E("get range", errs.Unavailable, err)
		}
		byDate[b.Date] = append(byDate[b.Date], b)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E("get range", errs.Unavailable, err)
	}

	out := make([]day.Snapshot, 0, len(dates))
	for _, d := range dates {
		snap, err := day.NewSnapshot(d, byDate[d])
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
