package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcal/internal/timex"
	"github.com/dmitrijs2005/gophcal/internal/validation"
)

// ScheduleService manages the schedules of the session user and answers
// filtered queries over them.
type ScheduleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewScheduleService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ScheduleService {
	if log == nil {
		log = logging.Nop{}
	}
	return &ScheduleService{db: db, repomanager: m, log: log.With("service", "schedule")}
}

// prepare normalises s for persistence and validates it. Ownership always
// comes from the session, never from the caller's struct.
func prepare(sess *models.Session, s *models.Schedule) error {
	s.UserID = sess.UserID
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.Note = strings.TrimSpace(s.Note)
	s.StartTime = timex.Truncate(s.StartTime)
	s.EndTime = timex.Truncate(s.EndTime)

	if s.Category == "" {
		s.Category = models.DefaultCategory
	}
	if s.IsReminder && s.ReminderMinutes == 0 {
		s.ReminderMinutes = models.DefaultReminderMinutes
	}

	return validation.ValidateSchedule(s)
}

// Add validates and stores s and returns its id.
func (s *ScheduleService) Add(ctx context.Context, sess *models.Session, sched *models.Schedule) (int64, error) {
	if err := requireSession(sess); err != nil {
		return 0, err
	}
	if err := prepare(sess, sched); err != nil {
		return 0, err
	}

	id, err := s.repomanager.Schedules(s.db).Add(ctx, sched)
	if err != nil {
		return 0, s.storeErr(ctx, "add schedule", err)
	}

	s.log.Debug(ctx, "schedule added", "schedule_id", id, "user_id", sess.UserID)
	return id, nil
}

// Update rewrites a schedule of the session user. Missing and foreign ids
// both yield common.ErrorNotFound.
func (s *ScheduleService) Update(ctx context.Context, sess *models.Session, sched *models.Schedule) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := prepare(sess, sched); err != nil {
		return err
	}

	if err := s.repomanager.Schedules(s.db).Update(ctx, sched); err != nil {
		return s.storeErr(ctx, "update schedule", err)
	}
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context, sess *models.Session, id int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.repomanager.Schedules(s.db).Delete(ctx, id, sess.UserID); err != nil {
		return s.storeErr(ctx, "delete schedule", err)
	}
	return nil
}

func (s *ScheduleService) Get(ctx context.Context, sess *models.Session, id int64) (*models.Schedule, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	sched, err := s.repomanager.Schedules(s.db).GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, s.storeErr(ctx, "get schedule", err)
	}
	return sched, nil
}

// ListAll returns every schedule of the session user, earliest first.
func (s *ScheduleService) ListAll(ctx context.Context, sess *models.Session) ([]models.Schedule, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Schedules(s.db).GetAllByUser(ctx, sess.UserID)
	if err != nil {
		return nil, s.storeErr(ctx, "list schedules", err)
	}
	return list, nil
}

// ListByDate returns the schedules starting on date, earliest first.
func (s *ScheduleService) ListByDate(ctx context.Context, sess *models.Session, date time.Time) ([]models.Schedule, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Schedules(s.db).GetByDate(ctx, sess.UserID, date)
	if err != nil {
		return nil, s.storeErr(ctx, "list schedules by date", err)
	}
	return list, nil
}

// Search returns schedules whose title, description or note contain keyword,
// newest first.
func (s *ScheduleService) Search(ctx context.Context, sess *models.Session, keyword string) ([]models.Schedule, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Schedules(s.db).Search(ctx, sess.UserID, keyword)
	if err != nil {
		return nil, s.storeErr(ctx, "search schedules", err)
	}
	return list, nil
}

// DueForReminder returns reminder-enabled schedules of userID starting within
// [now, now+horizon]. It is the reminder scheduler's view of the store.
func (s *ScheduleService) DueForReminder(ctx context.Context, userID int64, now time.Time, horizon time.Duration) ([]models.Schedule, error) {
	list, err := s.repomanager.Schedules(s.db).GetDueForReminder(ctx, userID, now, horizon)
	if err != nil {
		return nil, s.storeErr(ctx, "due reminders", err)
	}
	return list, nil
}

// FilterSchedules combines keyword, date and category filters.
//
// A non-blank keyword selects the search results (newest first) which are
// then narrowed by date and category. Otherwise a set date selects that day
// and a missing date selects everything (earliest first); category narrows
// either. Category All or empty does not filter.
func (s *ScheduleService) FilterSchedules(ctx context.Context, sess *models.Session, f models.Filter) ([]models.Schedule, error) {
	keyword := strings.TrimSpace(f.Keyword)

	var (
		base []models.Schedule
		err  error
	)
	switch {
	case keyword != "":
		base, err = s.Search(ctx, sess, keyword)
		if err == nil && !f.Date.IsZero() {
			base = narrow(base, func(sc models.Schedule) bool {
				return timex.SameDate(sc.StartTime, f.Date)
			})
		}
	case !f.Date.IsZero():
		base, err = s.ListByDate(ctx, sess, f.Date)
	default:
		base, err = s.ListAll(ctx, sess)
	}
	if err != nil {
		return nil, err
	}

	if f.Category.IsFilter() {
		base = narrow(base, func(sc models.Schedule) bool {
			return sc.Category == f.Category
		})
	}
	return base, nil
}

// narrow keeps the elements matching keep, preserving order.
func narrow(list []models.Schedule, keep func(models.Schedule) bool) []models.Schedule {
	out := list[:0]
	for _, s := range list {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (s *ScheduleService) storeErr(ctx context.Context, op string, err error) error {
	return logStoreErr(ctx, s.log, op, err)
}
