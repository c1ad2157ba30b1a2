package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

type insightsModel struct {
	ctx    context.Context
	ctrl   *controller.Controller
	width  int
	height int

	date   string
	advice suggest.Advice
	err    error
}

func newInsightsModel(ctx context.Context, c *controller.Controller) insightsModel {
	return insightsModel{ctx: ctx, ctrl: c}
}

func (s *insightsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s insightsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		date := s.ctrl.Date()
		a, err := s.ctrl.Suggestions(s.ctx)
		return adviceMsg{date: date, advice: a, err: err}
	}
}

func (s insightsModel) update(msg tea.Msg) (insightsModel, tea.Cmd) {
	if msg, ok := msg.(adviceMsg); ok {
		s.date, s.advice, s.err = msg.date, msg.advice, msg.err
	}
	return s, nil
}

func (s insightsModel) view() string {
	w := s.width - 4
	v := s.ctrl.View()

	title := titleStyle.Render("Insights " + v.Date)
	var rows []string
	rows = append(rows, title, "")

	switch {
	case s.err != nil:
		rows = append(rows, errorStyle.Render("Suggestions unavailable: "+s.err.Error()))
	case s.date != v.Date:
		rows = append(rows, mutedStyle.Render("Loading suggestions..."))
	default:
		source := "rule-based"
		if s.advice.IsAIGenerated {
			source = "generated"
		}
		rows = append(rows, s.advice.Summary, mutedStyle.Render("("+source+")"), "")
		for _, tip := range s.advice.Suggestions {
			rows = append(rows, "  • "+tip)
		}
	}

	rows = append(rows, "", s.renderDistribution(v), "", s.renderTimeOfDay(v))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s insightsModel) renderDistribution(v controller.View) string {
	shares := summary.Distribution(v.Snapshot, v.Catalog)
	if len(shares) == 0 {
		return mutedStyle.Render("No blocks recorded")
	}
	rows := []string{titleStyle.Render("Distribution")}
	for _, sh := range shares {
		bar := strings.Repeat("█", max(1, int(sh.Percentage*30/100)))
		rows = append(rows, fmt.Sprintf("  %-8s %s %3d %s",
			sh.Code,
			categoryStyle(v.Catalog, sh.Code).Render(bar),
			sh.Blocks,
			mutedStyle.Render(fmt.Sprintf("%.0f%%", sh.Percentage)),
		))
	}
	return strings.Join(rows, "\n")
}

func (s insightsModel) renderTimeOfDay(v controller.View) string {
	rows := []string{titleStyle.Render("Time of day")}
	for _, p := range summary.TimeOfDay(v.Snapshot, v.Catalog) {
		avg := mutedStyle.Render("   -")
		if p.Filled > 0 {
			sign := 0
			switch {
			case p.AvgWeight > 0:
				sign = 1
			case p.AvgWeight < 0:
				sign = -1
			}
			avg = weightStyle(sign).Render(fmt.Sprintf("%+4.1f", p.AvgWeight))
		}
		rows = append(rows, fmt.Sprintf("  %-24s %s  %s", p.Name, avg, mutedStyle.Render(fmt.Sprintf("%d filled", p.Filled))))
	}
	return strings.Join(rows, "\n")
}
