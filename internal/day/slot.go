// Package day models one calendar day as 80 fifteen-minute slots and the
// Block recorded in each of them.
package day

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/focusring/internal/errs"
)

const (
	SlotsPerDay  = 80
	SlotMinutes  = 15
	DayStartHour = 4

	// DateLayout is the wire and storage format of a date.
	DateLayout = "2006-01-02"
)

// ValidateSlot rejects slot indexes outside [0, SlotsPerDay).
func ValidateSlot(slot int) error {
	if slot < 0 || slot >= SlotsPerDay {
		return errs.Errorf("validate slot", errs.InvalidArgument, "slot index %d out of range [0,%d)", slot, SlotsPerDay)
	}
	return nil
}

// StartTime formats the wall-clock start of slot as "HH:MM". Slot 0 is
// 04:00 and the clock wraps at 24:00.
func StartTime(slot int) string {
	total := DayStartHour*60 + slot*SlotMinutes
	total %= 24 * 60
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// SlotForTime maps "HH:MM" to the slot containing it. Times before the
// day start belong to the tail of the previous day's window and are only
// valid if that window reaches them.
func SlotForTime(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, errs.Errorf("parse time", errs.InvalidArgument, "time %q is not HH:MM", s)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errs.Errorf("parse time", errs.InvalidArgument, "time %q is not HH:MM", s)
	}

	minutes := h*60 + m
	start := DayStartHour * 60
	if minutes < start {
		minutes += 24 * 60
	}
	slot := (minutes - start) / SlotMinutes
	if slot >= SlotsPerDay {
		return 0, errs.Errorf("parse time", errs.InvalidArgument, "time %q is outside the tracked window", s)
	}
	return slot, nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errs.Errorf("parse date", errs.InvalidArgument, "date %q is not YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DateRange lists every date from..to inclusive.
func DateRange(from, to string) ([]string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, errs.Errorf("date range", errs.InvalidArgument, "start %s is after end %s", from, to)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates, nil
}
