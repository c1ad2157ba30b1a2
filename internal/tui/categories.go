package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/summary"
)

type categoriesModel struct {
	ctrl   *controller.Controller
	width  int
	height int
	cursor int
}

func newCategoriesModel(c *controller.Controller) categoriesModel {
	return categoriesModel{ctrl: c}
}

func (p *categoriesModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p categoriesModel) update(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		n := p.ctrl.View().Catalog.Len()
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < n-1 {
				p.cursor++
			}
		}
	}
	return p, nil
}

func (p categoriesModel) view() string {
	w := p.width - 4
	v := p.ctrl.View()
	title := titleStyle.Render("Categories")

	if v.Catalog.Len() == 0 {
		return panelStyle.Width(w).Render(title + "\n\n" + mutedStyle.Render("The catalog is empty."))
	}

	used := make(map[string]int)
	for _, sh := range summary.Distribution(v.Snapshot, v.Catalog) {
		used[sh.Code] = sh.Blocks
	}
	recentSet := make(map[string]bool, len(v.Recent))
	for _, code := range v.Recent {
		recentSet[code] = true
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-10s %-22s %6s  %-12s %6s", "", "Code", "Label", "Weight", "Kind", v.Date[5:])))

	for i, c := range v.Catalog.All() {
		dot := categoryStyle(v.Catalog, c.Code).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		star := " "
		if recentSet[c.Code] {
			star = "★"
		}
		count := ""
		if n := used[c.Code]; n > 0 {
			count = fmt.Sprintf("%d", n)
		}
		row := style.Render(fmt.Sprintf("%s%s%s %-10s %-22s %+6d  %-12s %6s",
			cursor, dot, star, c.Code, c.Label, c.Weight, kindOf(c), count))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ★ recently used  ↑/↓: move"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
