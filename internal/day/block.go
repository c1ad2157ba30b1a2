package day

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sadopc/focusring/internal/errs"
)

const (
	MinFocus   = 1
	MaxFocus   = 5
	MaxMemoLen = 200
)

// Block is what was recorded in one slot of one date. Nil fields are
// unfilled.
type Block struct {
	Date      string     `json:"date"`
	Slot      int        `json:"slot_index"`
	StartTime string     `json:"start_time"`
	Category  *string    `json:"category"`
	Focus     *int       `json:"focus"`
	Memo      *string    `json:"memo"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// EmptyBlock is the state of a slot that was never written.
func EmptyBlock(date string, slot int) Block {
	return Block{Date: date, Slot: slot, StartTime: StartTime(slot)}
}

// Filled reports whether a category is set.
func (b Block) Filled() bool { return b.Category != nil }

// CategoryCode returns the category or "".
func (b Block) CategoryCode() string {
	if b.Category == nil {
		return ""
	}
	return *b.Category
}

// Field is one optional member of an Update: absent (keep), set to a
// value, or set to null (clear).
type Field[T any] struct {
	present bool
	value   *T
}

// Set returns a field that writes v.
func Set[T any](v T) Field[T] { return Field[T]{present: true, value: &v} }

// Null returns a field that clears the stored value.
func Null[T any]() Field[T] { return Field[T]{present: true} }

// Present reports whether the field takes part in the update.
func (f Field[T]) Present() bool { return f.present }

// Value returns the written value; ok is false when absent or null.
func (f Field[T]) Value() (v T, ok bool) {
	if !f.present || f.value == nil {
		return v, false
	}
	return *f.value, true
}

// IsNull reports a present field that clears the value.
func (f Field[T]) IsNull() bool { return f.present && f.value == nil }

func (f Field[T]) apply(dst **T) {
	if !f.present {
		return
	}
	if f.value == nil {
		*dst = nil
		return
	}
	v := *f.value
	*dst = &v
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if string(data) == "null" {
		f.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = &v
	return nil
}

// Update is a partial write to a Block. Absent fields leave the stored
// value untouched.
type Update struct {
	Category Field[string]
	Focus    Field[int]
	Memo     Field[string]
}

// ClearAll nulls category, focus and memo.
func ClearAll() Update {
	return Update{Category: Null[string](), Focus: Null[int](), Memo: Null[string]()}
}

// Empty reports an update with no present fields.
func (u Update) Empty() bool {
	return !u.Category.Present() && !u.Focus.Present() && !u.Memo.Present()
}

// Validate checks focus and memo bounds.
func (u Update) Validate() error {
	if f, ok := u.Focus.Value(); ok && (f < MinFocus || f > MaxFocus) {
		return errs.Errorf("validate update", errs.InvalidArgument, "focus %d out of range [%d,%d]", f, MinFocus, MaxFocus)
	}
	if m, ok := u.Memo.Value(); ok && utf8.RuneCountInString(m) > MaxMemoLen {
		return errs.Errorf("validate update", errs.InvalidArgument, "memo longer than %d characters", MaxMemoLen)
	}
	if c, ok := u.Category.Value(); ok && c == "" {
		return errs.Errorf("validate update", errs.InvalidArgument, "category code is empty")
	}
	return nil
}

// Apply merges u into b and stamps UpdatedAt.
func (u Update) Apply(b Block, now time.Time) Block {
	u.Category.apply(&b.Category)
	u.Focus.apply(&b.Focus)
	u.Memo.apply(&b.Memo)
	ts := now.UTC()
	b.UpdatedAt = &ts
	return b
}

// MarshalJSON emits only present fields; cleared fields are null.
func (u Update) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3)
	if u.Category.Present() {
		m["category"] = u.Category
	}
	if u.Focus.Present() {
		m["focus"] = u.Focus
	}
	if u.Memo.Present() {
		m["memo"] = u.Memo
	}
	return json.Marshal(m)
}

func (u *Update) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = Update{}
	if v, ok := raw["category"]; ok {
		if err := u.Category.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("category: %w", err)
		}
	}
	if v, ok := raw["focus"]; ok {
		if err := u.Focus.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
	}
	if v, ok := raw["memo"]; ok {
		if err := u.Memo.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("memo: %w", err)
		}
	}
	return nil
}
