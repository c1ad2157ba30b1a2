// Package suggest turns a daily summary into improvement advice.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/summary"
)

// MaxSuggestions caps the suggestions returned by Rules.
const MaxSuggestions = 5

// Advice is a summary comment plus concrete suggestions.
type Advice struct {
	Summary       string   `json:"summary"`
	Suggestions   []string `json:"suggestions"`
	IsAIGenerated bool     `json:"is_ai_generated"`
}

// Source produces advice for a date.
type Source interface {
	Suggestions(ctx context.Context, date string) (Advice, error)
}

// GeneralTips are appended when the rules find little to say.
var GeneralTips = []string{
	"Mornings are usually your sharpest hours; put the important task there.",
	"Work in 15 minute rounds with short breaks to keep a steady rhythm.",
	"Leave the phone in another room to cut down on distractions.",
}

// Rules applies the fixed rule set to d.
func Rules(d summary.Daily) Advice {
	var out []string

	if d.DistractRatio > 0.2 {
		out = append(out, fmt.Sprintf(
			"Distracting time was %.1f%% of the tracked day. Cut back on video and SNS and set up a focused space.",
			d.DistractRatio*100))
	}
	if d.ProductiveBlocks < 12 {
		out = append(out, fmt.Sprintf(
			"Productive activity came to %.2f hours. Aim for at least 3 hours (12 blocks) of study or work.",
			d.ProductiveHours))
	}
	if d.DeepStreakMax < 4 {
		out = append(out, fmt.Sprintf(
			"The longest focused run was %d minutes. Reserve a long block, such as two morning hours, for deep work.",
			d.DeepStreakMinutes()))
	}
	expected := d.TotalFilled / 8
	if expected < 1 {
		expected = 1
	}
	if d.ContextSwitches > expected*2 {
		out = append(out, fmt.Sprintf(
			"You switched categories %d times. Batch similar work together.",
			d.ContextSwitches))
	}
	if d.TotalFilled < 40 {
		out = append(out, fmt.Sprintf(
			"Only %d of %d blocks are filled in. Logging the whole day makes patterns easier to spot.",
			d.TotalFilled, day.SlotsPerDay))
	}
	if d.AvgFocusProductive != nil && *d.AvgFocusProductive < 3.0 {
		out = append(out, fmt.Sprintf(
			"Average focus during productive blocks was %.1f/5. Break tasks down and tidy your environment.",
			*d.AvgFocusProductive))
	}

	if len(out) < 2 {
		out = append(out, GeneralTips...)
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}

	return Advice{
		Summary:     comment(d, positives(d)),
		Suggestions: out,
	}
}

func positives(d summary.Daily) []string {
	var p []string
	if d.ProductiveHours >= 3.0 {
		p = append(p, fmt.Sprintf("%.2f productive hours", d.ProductiveHours))
	}
	if d.DeepStreakMax >= 6 {
		p = append(p, fmt.Sprintf("a %d minute focused run", d.DeepStreakMinutes()))
	}
	if d.TotalFilled > 0 && d.DistractRatio <= 0.1 {
		p = append(p, "little distracting time")
	}
	if d.FocusScore >= 10 {
		p = append(p, fmt.Sprintf("a high focus score of %d", d.FocusScore))
	}
	return p
}

func comment(d summary.Daily, good []string) string {
	var level string
	switch {
	case d.FocusScore >= 15:
		level = "excellent"
	case d.FocusScore >= 10:
		level = "good"
	case d.FocusScore >= 5:
		level = "average"
	default:
		level = "in need of improvement"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today's focus score is %d, which is %s.", d.FocusScore, level)
	if len(good) > 0 {
		fmt.Fprintf(&b, " Highlights: %s.", strings.Join(good, ", "))
	}
	if d.FocusScore < 10 {
		b.WriteString(" Set up a better environment for tomorrow.")
	} else {
		b.WriteString(" Keep it up.")
	}
	return b.String()
}

// DayReader is the part of a block store Local needs.
type DayReader interface {
	GetDay(ctx context.Context, date string) (day.Snapshot, error)
}

// CatalogReader supplies the category catalog.
type CatalogReader interface {
	Catalog(ctx context.Context) (catalog.Catalog, error)
}

// Local computes advice in-process from stored blocks.
type Local struct {
	Days       DayReader
	Categories CatalogReader
}

func (l Local) Suggestions(ctx context.Context, date string) (Advice, error) {
	cat, err := l.Categories.Catalog(ctx)
	if err != nil {
		return Advice{}, err
	}
	snap, err := l.Days.GetDay(ctx, date)
	if err != nil {
		return Advice{}, err
	}
	return Rules(summary.Compute(snap, cat)), nil
}
