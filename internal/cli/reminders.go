package cli

import (
	"context"
	"strconv"
	"time"
)

const defaultUpcomingMinutes = 60

// Upcoming reports how many reminders fire within the next N minutes.
func (a *App) Upcoming(ctx context.Context, args []string) error {
	minutes := defaultUpcomingMinutes
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return invalid("%q is not a positive number of minutes", args[0])
		}
		minutes = n
	}

	n, err := a.reminders.UpcomingCount(ctx, a.session.UserID, time.Duration(minutes)*time.Minute)
	if err != nil {
		return err
	}
	a.printf("%d reminder(s) in the next %d minutes\n", n, minutes)
	return nil
}

// Remind shows the reminder of a schedule right away.
func (a *App) Remind(ctx context.Context, args []string) error {
	id, err := a.scheduleID(args, "remind")
	if err != nil {
		return err
	}
	s, err := a.schedules.Get(ctx, a.session, id)
	if err != nil {
		return err
	}
	return a.reminders.Notify(*s)
}

func (a *App) Export(ctx context.Context) error {
	where, err := a.exporter.Export(ctx, a.session)
	if err != nil {
		return err
	}
	a.printf("Calendar exported to %s\n", where)
	return nil
}
