package models

import (
	"strings"
	"time"
)

// Notification is emitted by the reminder scheduler for a due schedule and
// rendered by the presentation layer.
type Notification struct {
	ID          string
	ScheduleID  int64
	UserID      int64
	Title       string
	Description string
	Note        string
	StartTime   time.Time
	ReminderAt  time.Time
	FiredAt     time.Time
}

// Text renders the notification body. layout formats the start time.
func (n Notification) Text(layout string) string {
	var b strings.Builder
	b.WriteString("Time: ")
	b.WriteString(n.StartTime.Format(layout))
	b.WriteString("\n")
	if n.Description != "" {
		b.WriteString("\nDescription: ")
		b.WriteString(n.Description)
		b.WriteString("\n")
	}
	if n.Note != "" {
		b.WriteString("\nNote: ")
		b.WriteString(n.Note)
		b.WriteString("\n")
	}
	return b.String()
}
