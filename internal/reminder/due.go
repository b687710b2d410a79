package reminder

import (
	"time"

	"github.com/dmitrijs2005/gophcal/internal/models"
)

// IsDue reports whether the reminder of s falls in the detection window of a
// tick running at now: the whole minutes until the reminder time, truncated
// toward zero, must be 0 or 1.
func IsDue(s models.Schedule, now time.Time) bool {
	if !s.IsReminder {
		return false
	}
	m := int64(s.ReminderAt().Sub(now) / time.Minute)
	return m >= 0 && m <= 1
}
