package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/day"
)

const (
	slotsPerRow = 60 / day.SlotMinutes
	cellWidth   = 8
)

type dayModel struct {
	ctx    context.Context
	ctrl   *controller.Controller
	now    func() time.Time
	width  int
	height int

	cursor int

	formActive bool
	form       editForm
}

func newDayModel(ctx context.Context, c *controller.Controller, now func() time.Time) dayModel {
	d := dayModel{ctx: ctx, ctrl: c, now: now}
	d.cursor = d.defaultCursor()
	return d
}

func (d *dayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// defaultCursor points at the current slot when today is shown.
func (d dayModel) defaultCursor() int {
	now := d.now()
	if d.ctrl.Date() != day.FormatDate(now) {
		return 0
	}
	slot, err := day.SlotForTime(now.Format("15:04"))
	if err != nil {
		return 0
	}
	return slot
}

func (d dayModel) navigate(delta int) tea.Cmd {
	return func() tea.Msg {
		return dayLoadedMsg{err: d.ctrl.Navigate(d.ctx, delta)}
	}
}

func (d dayModel) today() tea.Cmd {
	return func() tea.Msg {
		return dayLoadedMsg{err: d.ctrl.Today(d.ctx)}
	}
}

func (d dayModel) apply(slot int, u day.Update, v formValues) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{slot: slot, err: d.ctrl.ApplyEdit(d.ctx, u), retry: v}
	}
}

func (d dayModel) clear(slot int) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{slot: slot, err: d.ctrl.ClearSlot(d.ctx)}
	}
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func (d dayModel) openForm(start *formValues) (dayModel, tea.Cmd) {
	b, err := d.ctrl.SelectSlot(d.cursor)
	if err != nil {
		return d, statusCmd(fmt.Sprintf("Cannot edit: %v", err), true)
	}
	v := valuesOf(b)
	if start != nil {
		v = *start
	}
	view := d.ctrl.View()
	d.form = newEditForm(b, v, view.Catalog, view.Recent)
	d.formActive = true
	return d, d.form.form.Init()
}

// saved reports a finished write. Writes run in the background, so the
// result may arrive while another slot's form is open.
func (d dayModel) saved(msg savedMsg) (dayModel, tea.Cmd) {
	if msg.err == nil {
		return d, statusCmd("Saved "+day.StartTime(msg.slot), false)
	}
	status := statusCmd(fmt.Sprintf("Save failed: %v", msg.err), true)
	if d.formActive {
		return d, status
	}
	mode, slot := d.ctrl.State()
	if mode != controller.Editing || slot != msg.slot {
		return d, status
	}
	d.ctrl.CancelEdit()
	if msg.retry == (formValues{}) {
		return d, status
	}
	d.cursor = slot
	reopened, cmd := d.openForm(&msg.retry)
	return reopened, tea.Batch(cmd, status)
}

func (d dayModel) update(msg tea.Msg) (dayModel, tea.Cmd) {
	if msg, ok := msg.(savedMsg); ok {
		return d.saved(msg)
	}
	if d.formActive {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dayLoadedMsg:
		if msg.err != nil {
			return d, statusCmd(fmt.Sprintf("Load error: %v", msg.err), true)
		}
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < day.SlotsPerDay-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.PrevDay):
			return d, d.navigate(-1)
		case key.Matches(msg, keys.NextDay):
			return d, d.navigate(1)
		case key.Matches(msg, keys.Today):
			d.cursor = 0
			if slot, err := day.SlotForTime(d.now().Format("15:04")); err == nil {
				d.cursor = slot
			}
			return d, d.today()
		case key.Matches(msg, keys.Edit):
			return d.openForm(nil)
		case key.Matches(msg, keys.Clear):
			if _, err := d.ctrl.SelectSlot(d.cursor); err != nil {
				return d, statusCmd(fmt.Sprintf("Cannot clear: %v", err), true)
			}
			return d, d.clear(d.cursor)
		}
	}
	return d, nil
}

func (d dayModel) updateForm(msg tea.Msg) (dayModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.ctrl.CancelEdit()
		return d, nil
	}

	form, cmd := d.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form.form = f
	}

	switch d.form.form.State {
	case huh.StateCompleted:
		d.formActive = false
		v := *d.form.values
		u, err := v.update(d.form.orig)
		if err != nil {
			d.ctrl.CancelEdit()
			return d, statusCmd(fmt.Sprintf("Invalid edit: %v", err), true)
		}
		if u.Empty() {
			d.ctrl.CancelEdit()
			return d, statusCmd("No changes", false)
		}
		return d, d.apply(d.form.orig.Slot, u, v)
	case huh.StateAborted:
		d.formActive = false
		d.ctrl.CancelEdit()
		return d, nil
	}
	return d, cmd
}

func (d dayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	v := d.ctrl.View()

	if d.formActive {
		title := titleStyle.Render("Edit slot")
		return activePanelStyle.Width(d.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.form.View()),
		)
	}

	grid := d.renderGrid(v)
	side := lipgloss.JoinVertical(lipgloss.Left,
		d.renderSummaryPanel(v),
		d.renderSlotPanel(v),
	)
	if d.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, grid, side)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, grid, side)
}

func (d dayModel) renderGrid(v controller.View) string {
	t, _ := day.ParseDate(v.Date)
	title := titleStyle.Render(t.Format("Monday, Jan 02 2006"))

	nowSlot := controller.NoSlot
	if v.Date == day.FormatDate(d.now()) {
		if s, err := day.SlotForTime(d.now().Format("15:04")); err == nil {
			nowSlot = s
		}
	}

	rows := []string{title, ""}
	for start := 0; start < day.SlotsPerDay; start += slotsPerRow {
		cells := []string{mutedStyle.Render(day.StartTime(start))}
		for slot := start; slot < start+slotsPerRow && slot < day.SlotsPerDay; slot++ {
			cells = append(cells, d.renderCell(v, slot, nowSlot))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func (d dayModel) renderCell(v controller.View, slot, nowSlot int) string {
	b := v.Snapshot.Blocks[slot]
	text := "·"
	style := emptySlotStyle
	if b.Filled() {
		code := b.CategoryCode()
		style = categoryStyle(v.Catalog, code)
		text = cellText(code, b.Focus)
	} else if b.Memo != nil {
		text = "✎"
	}
	text = fmt.Sprintf("%-*s", cellWidth, text)

	switch {
	case slot == d.cursor:
		style = style.Inherit(cursorSlotStyle)
	case slot == nowSlot:
		style = style.Inherit(nowSlotStyle)
	}
	return style.Render(text)
}

// cellText shortens code by runes so the focus digit always fits.
func cellText(code string, focus *int) string {
	width := cellWidth
	suffix := ""
	if focus != nil {
		suffix = strconv.Itoa(*focus)
		width -= len(suffix)
	}
	if r := []rune(code); len(r) > width {
		code = string(r[:width])
	}
	return code + suffix
}

func (d dayModel) renderSummaryPanel(v controller.View) string {
	s := v.Summary
	avg := "-"
	if s.AvgFocusProductive != nil {
		avg = fmt.Sprintf("%.1f", *s.AvgFocusProductive)
	}
	score := weightStyle(s.FocusScore).Render(fmt.Sprintf("%+d", s.FocusScore))

	lines := []string{
		titleStyle.Render("Summary"),
		"",
		fmt.Sprintf("Focus score      %s", score),
		fmt.Sprintf("Filled           %d/%d", s.TotalFilled, day.SlotsPerDay),
		fmt.Sprintf("Productive       %s (%d)", successStyle.Render(formatHours(s.ProductiveHours)), s.ProductiveBlocks),
		fmt.Sprintf("Distracted       %s (%d)", errorStyle.Render(formatHours(s.DistractHours)), s.DistractBlocks),
		fmt.Sprintf("Distract ratio   %s", formatPercent(s.DistractRatio)),
		fmt.Sprintf("Deep streak      %d min", s.DeepStreakMinutes()),
		fmt.Sprintf("Context switches %d", s.ContextSwitches),
		fmt.Sprintf("Avg focus        %s", avg),
	}
	if s.UnresolvedBlocks > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("Unknown codes    %d", s.UnresolvedBlocks)))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (d dayModel) renderSlotPanel(v controller.View) string {
	b := v.Snapshot.Blocks[d.cursor]
	lines := []string{titleStyle.Render(fmt.Sprintf("Slot %d  %s", b.Slot, b.StartTime)), ""}

	if code := b.CategoryCode(); code == "" {
		lines = append(lines, mutedStyle.Render("empty"))
	} else {
		label := "unknown category"
		if c, ok := v.Catalog.Lookup(code); ok {
			label = fmt.Sprintf("%s (%+d)", c.Label, c.Weight)
		}
		lines = append(lines, categoryStyle(v.Catalog, code).Render(code)+" "+label)
	}
	if b.Focus != nil {
		lines = append(lines, fmt.Sprintf("focus %d", *b.Focus))
	}
	if b.Memo != nil {
		lines = append(lines, highlightStyle.Render(*b.Memo))
	}
	if v.IsSaving(d.cursor) {
		lines = append(lines, warningStyle.Render("saving…"))
	}
	lines = append(lines, "", mutedStyle.Render("enter: edit  c: clear  ←/→: day  t: today"))
	return panelStyle.Width(40).Render(strings.Join(lines, "\n"))
}
