package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultReminderMinutes is the lead time used when a reminder is enabled
// without an explicit value.
const DefaultReminderMinutes = 15

// Schedule is a user-owned, time-boxed calendar entry.
type Schedule struct {
	ID              int64
	UserID          int64
	Title           string
	Description     string
	Note            string
	StartTime       time.Time
	EndTime         time.Time
	IsReminder      bool
	ReminderMinutes int
	Category        Category
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReminderAt is the moment the reminder should fire.
func (s Schedule) ReminderAt() time.Time {
	return s.StartTime.Add(-time.Duration(s.ReminderMinutes) * time.Minute)
}

// Overview is a one-line summary used in listings.
func (s Schedule) Overview(layout string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d  %s - %s  [%s]  %s",
		s.ID, s.StartTime.Format(layout), s.EndTime.Format(layout), s.Category, s.Title)
	if s.IsReminder {
		fmt.Fprintf(&b, "  (remind %d min before)", s.ReminderMinutes)
	}
	return b.String()
}

// Filter selects schedules for the query engine. A zero Date means no date
// filter, an empty or All Category means no category filter.
type Filter struct {
	Date     time.Time
	Category Category
	Keyword  string
}
