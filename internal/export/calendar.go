// Package export renders a user's schedules as an iCalendar file and hands
// it to a Sink (local directory or S3 compatible bucket).
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	productID = "-//gophcal//EN"

	// floating local time, no TZID
	floatingLayout = "20060102T150405"

	propNote = "X-GOPHCAL-NOTE"
)

// uidNamespace scopes the name-based UIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dmitrijs2005/gophcal"))

// EventUID is stable for a schedule id so re-imports update instead of
// duplicating events.
func EventUID(scheduleID int64) string {
	return uuid.NewSHA1(uidNamespace, []byte(strconv.FormatInt(scheduleID, 10))).String()
}

// BuildCalendar returns a VCALENDAR with one VEVENT per schedule. stamp is
// written as DTSTAMP.
func BuildCalendar(list []models.Schedule, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, s := range list {
		cal.Children = append(cal.Children, toEvent(s, stamp))
	}
	return cal
}

func toEvent(s models.Schedule, stamp time.Time) *ical.Component {
	ev := ical.NewComponent(ical.CompEvent)
	ev.Props.SetText(ical.PropUID, EventUID(s.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.Set(floating(ical.PropDateTimeStart, s.StartTime))
	ev.Props.Set(floating(ical.PropDateTimeEnd, s.EndTime))
	ev.Props.SetText(ical.PropSummary, s.Title)

	if s.Description != "" {
		ev.Props.SetText(ical.PropDescription, s.Description)
	}
	if s.Note != "" {
		ev.Props.SetText(propNote, s.Note)
	}
	if s.Category != "" {
		ev.Props.SetText(ical.PropCategories, string(s.Category))
	}

	if s.IsReminder {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, s.Title)

		trigger := ical.NewProp(ical.PropTrigger)
		trigger.SetValueType(ical.ValueDuration)
		trigger.Value = fmt.Sprintf("-PT%dM", s.ReminderMinutes)
		alarm.Props.Set(trigger)

		ev.Children = append(ev.Children, alarm)
	}

	return ev
}

func floating(name string, t time.Time) *ical.Prop {
	p := ical.NewProp(name)
	p.Value = t.Format(floatingLayout)
	return p
}

// Encode serializes cal.
func Encode(cal *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
