package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/summary"
)

type jsonExport struct {
	ExportedAt   string           `json:"exported_at"`
	Date         string           `json:"date"`
	Summary      summary.Daily    `json:"summary"`
	Distribution []summary.Share  `json:"distribution"`
	TimeOfDay    []summary.Period `json:"time_of_day"`
	Blocks       []jsonBlock      `json:"blocks"`
}

type jsonBlock struct {
	Slot      int     `json:"slot_index"`
	StartTime string  `json:"start_time"`
	Category  *string `json:"category"`
	Label     string  `json:"label,omitempty"`
	Weight    *int    `json:"weight,omitempty"`
	Focus     *int    `json:"focus"`
	Memo      *string `json:"memo"`
}

// ToJSON writes the day, its summary and the blocks that hold data.
func ToJSON(s day.Snapshot, sum summary.Daily, cat catalog.Catalog, path string) error {
	export := jsonExport{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Date:         s.Date,
		Summary:      sum,
		Distribution: summary.Distribution(s, cat),
		TimeOfDay:    summary.TimeOfDay(s, cat),
		Blocks:       []jsonBlock{},
	}

	for _, b := range s.Blocks {
		if !hasData(b) {
			continue
		}
		jb := jsonBlock{
			Slot:      b.Slot,
			StartTime: day.StartTime(b.Slot),
			Category:  b.Category,
			Focus:     b.Focus,
			Memo:      b.Memo,
		}
		if c, ok := cat.Lookup(b.CategoryCode()); ok {
			w := c.Weight
			jb.Label, jb.Weight = c.Label, &w
		}
		export.Blocks = append(export.Blocks, jb)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
