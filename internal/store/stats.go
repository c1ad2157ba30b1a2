package store

import (
	"context"
	"database/sql"

	"github.com/sadopc/focusring/internal/errs"
)

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&st.TotalBlocks); err != nil {
		return Stats{}, errs.E("stats", errs.Unavailable, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks WHERE category IS NOT NULL`).Scan(&st.FilledBlocks); err != nil {
		return Stats{}, errs.E("stats", errs.Unavailable, err)
	}

	var first, last sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(date), MAX(date) FROM blocks WHERE category IS NOT NULL`,
	).Scan(&first, &last); err != nil {
		return Stats{}, errs.E("stats", errs.Unavailable, err)
	}
	st.FirstDate, st.LastDate = first.String, last.String

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&st.TotalCategories); err != nil {
		return Stats{}, errs.E("stats", errs.Unavailable, err)
	}
	if st.TotalBlocks > 0 {
		st.FillRate = float64(st.FilledBlocks) / float64(st.TotalBlocks)
	}
	return st, nil
}
