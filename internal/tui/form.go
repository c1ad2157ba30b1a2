package tui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
)

// formValues are the raw strings behind the edit form. An empty string
// means the field is unset.
type formValues struct {
	category string
	focus    string
	memo     string
}

func valuesOf(b day.Block) formValues {
	v := formValues{category: b.CategoryCode()}
	if b.Focus != nil {
		v.focus = strconv.Itoa(*b.Focus)
	}
	if b.Memo != nil {
		v.memo = *b.Memo
	}
	return v
}

func parseFocus(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < day.MinFocus || n > day.MaxFocus {
		return nil, errs.Errorf("parse focus", errs.InvalidArgument, "focus must be %d-%d", day.MinFocus, day.MaxFocus)
	}
	return &n, nil
}

func validateFocus(s string) error {
	_, err := parseFocus(s)
	return err
}

func validateMemo(s string) error {
	if utf8.RuneCountInString(s) > day.MaxMemoLen {
		return fmt.Errorf("memo is limited to %d characters", day.MaxMemoLen)
	}
	return nil
}

// update builds the partial write that turns orig into v. Fields equal
// to orig are left absent so concurrent writers of other fields keep
// their values.
func (v formValues) update(orig day.Block) (day.Update, error) {
	var u day.Update

	if v.category != orig.CategoryCode() {
		if v.category == "" {
			u.Category = day.Null[string]()
		} else {
			u.Category = day.Set(v.category)
		}
	}

	focus, err := parseFocus(v.focus)
	if err != nil {
		return day.Update{}, err
	}
	switch {
	case focus == nil && orig.Focus != nil:
		u.Focus = day.Null[int]()
	case focus != nil && (orig.Focus == nil || *orig.Focus != *focus):
		u.Focus = day.Set(*focus)
	}

	memo := strings.TrimSpace(v.memo)
	var origMemo string
	if orig.Memo != nil {
		origMemo = *orig.Memo
	}
	if memo != origMemo {
		if memo == "" {
			u.Memo = day.Null[string]()
		} else {
			u.Memo = day.Set(memo)
		}
	}
	return u, u.Validate()
}

// categoryOptions lists recent codes first, then the rest of the catalog
// in order. A current code missing from the catalog stays selectable so
// an edit of focus or memo does not drop it.
func categoryOptions(cat catalog.Catalog, recentCodes []string, current string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("(none)", "")}
	seen := make(map[string]bool)

	for _, code := range recentCodes {
		c, ok := cat.Lookup(code)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		opts = append(opts, huh.NewOption(fmt.Sprintf("★ %s (%s)", c.Label, c.Code), c.Code))
	}
	for _, c := range cat.All() {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s, %+d)", c.Label, c.Code, c.Weight), c.Code))
	}
	if current != "" && !seen[current] {
		opts = append(opts, huh.NewOption(current+" (unknown)", current))
	}
	return opts
}

// editForm pairs a huh form with the block it edits. The value pointers
// survive copies of the enclosing model.
type editForm struct {
	form   *huh.Form
	orig   day.Block
	values *formValues
}

func newEditForm(orig day.Block, start formValues, cat catalog.Catalog, recentCodes []string) editForm {
	v := start
	f := editForm{orig: orig, values: &v}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions(cat, recentCodes, orig.CategoryCode())...).
				Value(&v.category),
			huh.NewInput().
				Title(fmt.Sprintf("Focus (%d-%d, blank for none)", day.MinFocus, day.MaxFocus)).
				Validate(validateFocus).
				Value(&v.focus),
			huh.NewInput().
				Title("Memo").
				CharLimit(day.MaxMemoLen).
				Validate(validateMemo).
				Value(&v.memo),
		).Title(fmt.Sprintf("%s %s", orig.Date, orig.StartTime)),
	).WithShowHelp(true).WithShowErrors(true)
	return f
}
