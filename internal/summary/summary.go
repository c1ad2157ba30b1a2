// Package summary derives daily focus metrics from a day's blocks. All
// functions are pure: same snapshot and catalog, same result.
package summary

import (
	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
)

// HoursPerBlock is the length of one slot in hours.
const HoursPerBlock = float64(day.SlotMinutes) / 60

// Daily is the aggregate of one day.
type Daily struct {
	Date string `json:"date"`

	FocusScore       int `json:"focus_score"`
	ProductiveBlocks int `json:"productive_blocks"`
	DistractBlocks   int `json:"distract_blocks"`
	NeutralBlocks    int `json:"neutral_blocks"`
	UnresolvedBlocks int `json:"unresolved_blocks"`
	TotalFilled      int `json:"total_filled"`

	ProductiveHours float64 `json:"productive_hours"`
	DistractHours   float64 `json:"distract_hours"`
	DistractRatio   float64 `json:"distract_ratio"`

	// DeepStreakMax is in blocks; multiply by day.SlotMinutes for minutes.
	DeepStreakMax   int `json:"deep_streak_max"`
	ContextSwitches int `json:"context_switches"`

	AvgFocusProductive *float64 `json:"avg_focus_productive"`
}

// DeepStreakMinutes is the longest productive run in minutes.
func (d Daily) DeepStreakMinutes() int { return d.DeepStreakMax * day.SlotMinutes }

// Compute summarizes s against cat. Categories that do not resolve count
// toward TotalFilled only.
func Compute(s day.Snapshot, cat catalog.Catalog) Daily {
	d := Daily{Date: s.Date}

	var (
		streak     int
		focusSum   int
		focusCount int
		lastCode   string
		seenFilled bool
	)

	for _, b := range s.Blocks {
		if !b.Filled() {
			streak = 0
			continue
		}
		d.TotalFilled++

		code := *b.Category
		if seenFilled && code != lastCode {
			d.ContextSwitches++
		}
		lastCode, seenFilled = code, true

		c, ok := cat.Lookup(code)
		if !ok {
			d.UnresolvedBlocks++
			streak = 0
			continue
		}
		d.FocusScore += c.Weight

		switch {
		case c.Weight > 0:
			d.ProductiveBlocks++
			streak++
			if streak > d.DeepStreakMax {
				d.DeepStreakMax = streak
			}
			if b.Focus != nil {
				focusSum += *b.Focus
				focusCount++
			}
		case c.Weight < 0:
			d.DistractBlocks++
			streak = 0
		default:
			d.NeutralBlocks++
			streak = 0
		}
	}

	d.ProductiveHours = float64(d.ProductiveBlocks) * HoursPerBlock
	d.DistractHours = float64(d.DistractBlocks) * HoursPerBlock
	if d.TotalFilled > 0 {
		d.DistractRatio = float64(d.DistractBlocks) / float64(d.TotalFilled)
	}
	if focusCount > 0 {
		avg := float64(focusSum) / float64(focusCount)
		d.AvgFocusProductive = &avg
	}
	return d
}
