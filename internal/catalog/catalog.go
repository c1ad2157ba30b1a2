// Package catalog holds the ordered, static list of activity categories
// and their focus weights.
package catalog

import (
	"fmt"
	"sort"
)

// Category is one entry of the catalog.
type Category struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Weight     int    `json:"weight"`
	Color      string `json:"color"`
	OrderIndex int    `json:"order_index"`
}

func (c Category) Productive() bool  { return c.Weight > 0 }
func (c Category) Neutral() bool     { return c.Weight == 0 }
func (c Category) Distracting() bool { return c.Weight < 0 }

// Catalog is an immutable, order_index-sorted set of categories.
type Catalog struct {
	list   []Category
	byCode map[string]int
}

// New builds a catalog, rejecting empty or duplicate codes.
func New(categories []Category) (Catalog, error) {
	list := make([]Category, len(categories))
	copy(list, categories)
	sort.SliceStable(list, func(i, j int) bool { return list[i].OrderIndex < list[j].OrderIndex })

	byCode := make(map[string]int, len(list))
	for i, c := range list {
		if c.Code == "" {
			return Catalog{}, fmt.Errorf("category at order %d has empty code", c.OrderIndex)
		}
		if _, dup := byCode[c.Code]; dup {
			return Catalog{}, fmt.Errorf("duplicate category code %q", c.Code)
		}
		byCode[c.Code] = i
	}
	return Catalog{list: list, byCode: byCode}, nil
}

// Lookup resolves a category code.
func (c Catalog) Lookup(code string) (Category, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Category{}, false
	}
	return c.list[i], true
}

// All returns the categories in display order.
func (c Catalog) All() []Category {
	out := make([]Category, len(c.list))
	copy(out, c.list)
	return out
}

func (c Catalog) Len() int { return len(c.list) }

var defaults = []Category{
	{Code: "STUDY", Label: "Study", Weight: 3, Color: "#7AA2F7", OrderIndex: 1},
	{Code: "ENGLISH", Label: "English", Weight: 4, Color: "#2EC4B6", OrderIndex: 2},
	{Code: "AI", Label: "AI learning", Weight: 4, Color: "#6C63FF", OrderIndex: 3},
	{Code: "WORK_LOG", Label: "Work", Weight: 4, Color: "#3498DB", OrderIndex: 4},
	{Code: "BLOG", Label: "Blog", Weight: 3, Color: "#9B59B6", OrderIndex: 5},
	{Code: "PET_WALK", Label: "Walk", Weight: 2, Color: "#2ECC71", OrderIndex: 6},
	{Code: "FARM", Label: "Farming", Weight: 2, Color: "#27AE60", OrderIndex: 7},
	{Code: "HOUSE", Label: "Housework", Weight: 1, Color: "#F1C40F", OrderIndex: 8},
	{Code: "ADMIN", Label: "Admin", Weight: 1, Color: "#E67E22", OrderIndex: 9},
	{Code: "HEALTH", Label: "Health", Weight: 2, Color: "#1ABC9C", OrderIndex: 10},
	{Code: "EAT", Label: "Meal", Weight: 0, Color: "#BDC3C7", OrderIndex: 11},
	{Code: "REST", Label: "Rest", Weight: 0, Color: "#95A5A6", OrderIndex: 12},
	{Code: "SLEEP", Label: "Sleep", Weight: 0, Color: "#414868", OrderIndex: 13},
	{Code: "VIDEO", Label: "Video", Weight: -2, Color: "#F39C12", OrderIndex: 14},
	{Code: "SNS", Label: "Social media", Weight: -3, Color: "#FF6B6B", OrderIndex: 15},
	{Code: "LOST", Label: "Lost time", Weight: -4, Color: "#E74C3C", OrderIndex: 16},
}

// Default returns the built-in 16-entry catalog.
func Default() Catalog {
	c, err := New(defaults)
	if err != nil {
		panic(err)
	}
	return c
}
