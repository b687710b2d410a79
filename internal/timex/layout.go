// Package timex holds the timestamp layouts used by gophcal and a JSON-friendly
// Duration type for configuration files.
//
// All schedule times are naive local times. They are persisted as sortable
// "yyyy-MM-dd HH:mm:ss" strings and shown to the user as "HH:mm dd/MM/yyyy".
// Parsing always happens in time.Local, so a value written and read back on
// the same machine is identical at second precision.
package timex

import (
	"fmt"
	"time"
)

const (
	// StorageLayout is the persisted, lexicographically sortable form.
	StorageLayout = "2006-01-02 15:04:05"
	// DisplayLayout is the user facing form (HH:mm dd/MM/yyyy).
	DisplayLayout = "15:04 02/01/2006"
	// DateLayout is the date component of StorageLayout.
	DateLayout = "2006-01-02"
)

// FormatStorage renders t with StorageLayout. Sub-second precision is dropped.
func FormatStorage(t time.Time) string {
	return t.Format(StorageLayout)
}

// ParseStorage parses a StorageLayout string as local time.
func ParseStorage(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StorageLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatDisplay renders t with DisplayLayout.
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

// ParseDisplay parses user input in DisplayLayout as local time.
func ParseDisplay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DisplayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected HH:mm dd/MM/yyyy, got %q", s)
	}
	return t, nil
}

// FormatDate renders the date component of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a yyyy-MM-dd date at local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected yyyy-MM-dd, got %q", s)
	}
	return t, nil
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Truncate drops everything below one second.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
