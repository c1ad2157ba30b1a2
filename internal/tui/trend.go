package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/summary"
)

type trendMetric int

const (
	metricScore trendMetric = iota
	metricProductive
)

// trendSpan is the number of days in one window.
const trendSpan = 14

type trendModel struct {
	ctx    context.Context
	ctrl   *controller.Controller
	width  int
	height int

	metric trendMetric
	offset int // windows back from the shown date (0 = ending on it)

	from, to string
	report   summary.TrendReport
	err      error

	chart barchart.Model
}

func newTrendModel(ctx context.Context, c *controller.Controller) trendModel {
	return trendModel{
		ctx:   ctx,
		ctrl:  c,
		chart: barchart.New(60, 12),
	}
}

func (r *trendModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r trendModel) dateRange() (string, string) {
	end, err := day.AddDays(r.ctrl.Date(), -trendSpan*r.offset)
	if err != nil {
		end = r.ctrl.Date()
	}
	start, err := day.AddDays(end, 1-trendSpan)
	if err != nil {
		start = end
	}
	return start, end
}

func (r trendModel) refresh() tea.Cmd {
	from, to := r.dateRange()
	return func() tea.Msg {
		report, err := r.ctrl.Trend(r.ctx, from, to)
		return trendDataMsg{from: from, to: to, report: report, err: err}
	}
}

func (r trendModel) update(msg tea.Msg) (trendModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trendDataMsg:
		r.from, r.to = msg.from, msg.to
		r.report, r.err = msg.report, msg.err
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.PrevDay):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.NextDay):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.metric == metricScore {
				r.metric = metricProductive
			} else {
				r.metric = metricScore
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r trendModel) value(p summary.TrendPoint) float64 {
	if r.metric == metricProductive {
		return p.ProductiveHours
	}
	return float64(p.FocusScore)
}

func (r *trendModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	dates, err := day.DateRange(r.from, r.to)
	if err != nil {
		return
	}
	byDate := make(map[string]summary.TrendPoint, len(r.report.Points))
	for _, p := range r.report.Points {
		byDate[p.Date] = p
	}

	var bars []barchart.BarData
	for _, d := range dates {
		t, _ := day.ParseDate(d)
		style := lipgloss.NewStyle().Foreground(colorSubtle)
		var v float64
		if p, ok := byDate[d]; ok {
			v = r.value(p)
			style = lipgloss.NewStyle().Foreground(colorPrimary)
			if v < 0 {
				// Bars cannot grow downward; negative days are drawn
				// empty and listed in the table.
				v = 0
				style = errorStyle
			}
		}
		bars = append(bars, barchart.BarData{
			Label:  t.Format("02"),
			Values: []barchart.BarValue{{Name: d, Value: v, Style: style}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r trendModel) view() string {
	w := r.width - 4

	scoreTab := inactiveTabStyle.Render("Focus score")
	prodTab := inactiveTabStyle.Render("Productive hours")
	if r.metric == metricScore {
		scoreTab = activeTabStyle.Render("Focus score")
	} else {
		prodTab = activeTabStyle.Render("Productive hours")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, scoreTab, prodTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Trend"), "  ", modeTabs, "  ", mutedStyle.Render(fmt.Sprintf("%s to %s", r.from, r.to)),
	)

	if r.err != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", errorStyle.Render(r.err.Error())),
		)
	}

	averages := fmt.Sprintf("  avg score %.1f   avg productive %s",
		r.report.PeriodAvgScore, formatHours(r.report.PeriodAvgProductive))

	nav := mutedStyle.Render("  ←/→: window  m: metric")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", averages, "", r.renderTable(w), "", nav,
		),
	)
}

func (r trendModel) renderTable(w int) string {
	if len(r.report.Points) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s %12s %12s", "Date", "Score", "Productive", "Distracted")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 47))))
	for _, p := range r.report.Points {
		rows = append(rows, fmt.Sprintf("  %-12s %s %12s %12s",
			p.Date,
			weightStyle(p.FocusScore).Render(fmt.Sprintf("%8d", p.FocusScore)),
			formatHours(p.ProductiveHours),
			formatHours(p.DistractHours),
		))
	}
	return strings.Join(rows, "\n")
}
