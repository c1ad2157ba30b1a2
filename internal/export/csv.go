package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
)

// ToCSV writes every block of s that has any field set.
func ToCSV(s day.Snapshot, cat catalog.Catalog, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Date", "Slot", "Start", "Category", "Label", "Weight", "Focus", "Memo"}); err != nil {
		return err
	}

	for _, b := range s.Blocks {
		if !hasData(b) {
			continue
		}
		label, weight := "", ""
		if c, ok := cat.Lookup(b.CategoryCode()); ok {
			label, weight = c.Label, strconv.Itoa(c.Weight)
		} else if b.Filled() {
			label = "Unknown"
		}
		focus := ""
		if b.Focus != nil {
			focus = strconv.Itoa(*b.Focus)
		}
		memo := ""
		if b.Memo != nil {
			memo = *b.Memo
		}

		row := []string{
			s.Date,
			strconv.Itoa(b.Slot),
			day.StartTime(b.Slot),
			b.CategoryCode(),
			label,
			weight,
			focus,
			memo,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func hasData(b day.Block) bool {
	return b.Category != nil || b.Focus != nil || b.Memo != nil
}
