// Package tui is the terminal front end: a day grid with an edit form,
// insights, a trend chart and the category list.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/export"
)

const tickInterval = 30 * time.Second

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	ctrl   *controller.Controller
	logger *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	day        dayModel
	insights   insightsModel
	trend      trendModel
	categories categoriesModel

	help   help.Model
	status string
}

// NewApp wires the views to c. A nil logger means slog.Default().
func NewApp(ctx context.Context, c *controller.Controller, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.Default()
	}
	h := help.New()
	h.ShowAll = false

	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}

	return App{
		ctx:        ctx,
		ctrl:       c,
		logger:     logger,
		activeView: viewDay,
		exportDir:  exportDir,
		day:        newDayModel(ctx, c, time.Now),
		insights:   newInsightsModel(ctx, c),
		trend:      newTrendModel(ctx, c),
		categories: newCategoriesModel(c),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.day.setSize(a.width, contentHeight)
		a.insights.setSize(a.width, contentHeight)
		a.trend.setSize(a.width, contentHeight)
		a.categories.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// The edit form captures every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDay
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewInsights
			return a, a.insights.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTrend
			return a, a.trend.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewCategories
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

		// Day navigation works from every view except the trend, where
		// left and right move the chart window.
		if a.activeView != viewDay && (key.Matches(msg, keys.Today) ||
			(a.activeView != viewTrend && (key.Matches(msg, keys.PrevDay) || key.Matches(msg, keys.NextDay)))) {
			var cmd tea.Cmd
			a.day, cmd = a.day.update(msg)
			return a, cmd
		}

	case tickMsg:
		return a, tickCmd()

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.logger.Warn("tui", slog.String("status", msg.text))
		}
		return a, nil

	case dayLoadedMsg, savedMsg:
		// Writes and navigations belong to the day view whichever view
		// is showing; the others follow the new state.
		var cmd tea.Cmd
		a.day, cmd = a.day.update(msg)
		if a.activeView != viewDay {
			return a, tea.Batch(cmd, a.refreshCurrentView())
		}
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDay:
		a.day, cmd = a.day.update(msg)
	case viewInsights:
		a.insights, cmd = a.insights.update(msg)
	case viewTrend:
		a.trend, cmd = a.trend.update(msg)
	case viewCategories:
		a.categories, cmd = a.categories.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewDay && a.day.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewInsights:
		return a.insights.refresh()
	case viewTrend:
		return a.trend.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDay:
		content = a.day.view()
	case viewInsights:
		content = a.insights.view()
	case viewTrend:
		content = a.trend.view()
	case viewCategories:
		content = a.categories.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusring")
	date := mutedStyle.Render(" " + a.ctrl.Date())
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(date) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, date, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export " + a.ctrl.Date())
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the shown day to the export directory.
func (a App) doExport(format int) tea.Cmd {
	v := a.ctrl.View()
	dir := a.exportDir
	return func() tea.Msg {
		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("focusring-%s.csv", v.Date))
			if err := export.ToCSV(v.Snapshot, v.Catalog, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("focusring-%s.json", v.Date))
			if err := export.ToJSON(v.Snapshot, v.Summary, v.Catalog, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}
		return exportDoneMsg{path: path}
	}
}
