package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDay viewState = iota
	viewInsights
	viewTrend
	viewCategories
)

var viewNames = []string{"Day", "Insights", "Trend", "Categories"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// dayLoadedMsg follows a navigation. err is nil when the new date is shown.
type dayLoadedMsg struct {
	err error
}

// savedMsg follows a write to the open slot.
type savedMsg struct {
	slot  int
	err   error
	retry formValues
}

type trendDataMsg struct {
	from, to string
	report   summary.TrendReport
	err      error
}

type adviceMsg struct {
	date   string
	advice suggest.Advice
	err    error
}

type exportDoneMsg struct {
	path string
}

// tickMsg keeps the current-slot marker moving.
type tickMsg time.Time

// --- Helpers ---

func formatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

func formatPercent(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

// categoryStyle colors a code by its catalog color, or by weight sign
// when the catalog has no color for it.
func categoryStyle(cat catalog.Catalog, code string) lipgloss.Style {
	c, ok := cat.Lookup(code)
	if !ok {
		return unknownSlotStyle
	}
	if c.Color != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color))
	}
	return weightStyle(c.Weight)
}

func weightStyle(w int) lipgloss.Style {
	switch {
	case w > 0:
		return successStyle
	case w < 0:
		return errorStyle
	}
	return mutedStyle
}

func kindOf(c catalog.Category) string {
	switch {
	case c.Productive():
		return "productive"
	case c.Distracting():
		return "distracting"
	}
	return "neutral"
}
