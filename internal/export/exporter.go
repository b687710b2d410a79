package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
)

// Lister returns every schedule of the session user.
type Lister interface {
	ListAll(ctx context.Context, sess *models.Session) ([]models.Schedule, error)
}

type Exporter struct {
	schedules Lister
	sink      Sink
	log       logging.Logger
	now       func() time.Time
}

func NewExporter(l Lister, sink Sink, log logging.Logger) *Exporter {
	return &Exporter{schedules: l, sink: sink, log: log, now: time.Now}
}

// Export writes the user's calendar to the sink and returns its location.
func (e *Exporter) Export(ctx context.Context, sess *models.Session) (string, error) {
	list, err := e.schedules.ListAll(ctx, sess)
	if err != nil {
		return "", err
	}

	now := e.now()
	data, err := Encode(BuildCalendar(list, now))
	if err != nil {
		return "", err
	}

	name := FileName(sess.UserID, now)
	where, err := e.sink.Put(ctx, name, data)
	if err != nil {
		e.log.Error(ctx, "calendar export failed", "user_id", sess.UserID, "error", err)
		return "", err
	}

	e.log.Info(ctx, "calendar exported", "user_id", sess.UserID, "events", len(list), "location", where)
	return where, nil
}

// FileName names an export by user id so usernames never reach a path.
func FileName(userID int64, at time.Time) string {
	return fmt.Sprintf("gophcal-%d-%s.ics", userID, at.Format("20060102-150405"))
}
