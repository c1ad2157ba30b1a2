package store

import (
	"context"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/errs"
)

// Catalog returns the categories table in display order.
func (s *Store) Catalog(ctx context.Context) (catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, label, weight, color, order_index FROM categories ORDER BY order_index`,
	)
	if err != nil {
		return catalog.Catalog{}, errs.E("list categories", errs.Unavailable, err)
	}
	defer rows.Close()

	var list []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.Code, &c.Label, &c.Weight, &c.Color, &c.OrderIndex); err != nil {
			return catalog.Catalog{}, errs.E("list categories", errs.Unavailable, err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return catalog.Catalog{}, errs.E("list categories", errs.Unavailable, err)
	}
	return catalog.New(list)
}
