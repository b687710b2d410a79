// Package reminder polls the schedule store for the session user and emits
// a notification when a reminder becomes due.
//
// The scheduler is either stopped or running for exactly one user. Ticks run
// on a background goroutine; notifications leave through a buffered channel
// that the presentation layer drains, so the scheduler never touches
// presentation state itself.
package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("notification queue is full")

const (
	DefaultInterval = 30 * time.Second
	DefaultHorizon  = 24 * time.Hour
	defaultBuffer   = 64
	minClaimTTL     = 5 * time.Minute
)

// Source lists reminder-enabled schedules of a user starting within
// [now, now+horizon].
type Source interface {
	DueForReminder(ctx context.Context, userID int64, now time.Time, horizon time.Duration) ([]models.Schedule, error)
}

type Options struct {
	Interval  time.Duration
	Horizon   time.Duration
	Buffer    int
	Now       func() time.Time
	Watermark Watermark
	Logger    logging.Logger
}

type Scheduler struct {
	source   Source
	interval time.Duration
	horizon  time.Duration
	now      func() time.Time
	wm       Watermark
	log      logging.Logger
	events   chan models.Notification

	mu     sync.Mutex
	userID int64
	cancel context.CancelFunc
	done   chan struct{}
}

func New(src Source, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Watermark == nil {
		opts.Watermark = NewMemoryWatermark()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}

	return &Scheduler{
		source:   src,
		interval: opts.Interval,
		horizon:  opts.Horizon,
		now:      opts.Now,
		wm:       opts.Watermark,
		log:      opts.Logger.With("component", "reminder"),
		events:   make(chan models.Notification, opts.Buffer),
	}
}

// Events delivers due notifications. The channel is never closed.
func (s *Scheduler) Events() <-chan models.Notification {
	return s.events
}

// Start begins polling for sess's user, replacing any running poller.
// The first tick runs immediately.
func (s *Scheduler) Start(sess *models.Session) error {
	if sess == nil || sess.UserID == 0 {
		return common.ErrorUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.userID = sess.UserID
	s.cancel = cancel
	s.done = done

	go s.run(ctx, sess.UserID, done)

	s.log.Info(ctx, "reminder scheduler started", "user_id", sess.UserID, "interval", s.interval)
	return nil
}

// Stop cancels polling and waits for an in-flight tick to finish.
// Stopping a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	s.log.Info(context.Background(), "reminder scheduler stopped", "user_id", s.userID)
	s.cancel = nil
	s.done = nil
	s.userID = 0
}

// Running returns the polled user id, if any.
func (s *Scheduler) Running() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, userID int64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if ctx.Err() == nil {
		s.safeTick(ctx, userID)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// both cases may be ready at once; cancellation wins
			if ctx.Err() != nil {
				return
			}
			s.safeTick(ctx, userID)
		}
	}
}

// safeTick runs one tick and keeps any failure inside it.
func (s *Scheduler) safeTick(ctx context.Context, userID int64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "reminder tick panicked", "user_id", userID, "panic", r)
		}
	}()

	if _, err := s.Tick(ctx, userID); err != nil && ctx.Err() == nil {
		s.log.Error(ctx, "reminder tick failed", "user_id", userID, "error", err)
	}
}

// Tick performs one polling pass for userID and returns the notifications it
// emitted. Occurrences already claimed in the watermark are skipped.
func (s *Scheduler) Tick(ctx context.Context, userID int64) ([]models.Notification, error) {
	now := s.now()

	list, err := s.source.DueForReminder(ctx, userID, now, s.horizon)
	if err != nil {
		return nil, err
	}

	var fired []models.Notification
	for _, sc := range list {
		if !IsDue(sc, now) {
			continue
		}

		key := watermarkKey(sc)
		ttl := sc.StartTime.Sub(now) + minClaimTTL
		if ttl < minClaimTTL {
			ttl = minClaimTTL
		}

		claimed, err := s.wm.Claim(ctx, key, ttl)
		if err != nil {
			// deliver without dedup
			s.log.Warn(ctx, "reminder watermark unavailable", "schedule_id", sc.ID, "error", err)
			claimed = true
		}
		if !claimed {
			continue
		}

		n := newNotification(sc, now)
		select {
		case s.events <- n:
			fired = append(fired, n)
			s.log.Debug(ctx, "reminder fired", "schedule_id", sc.ID, "user_id", userID)
		default:
			s.log.Warn(ctx, "notification queue full, will retry", "schedule_id", sc.ID)
			if err := s.wm.Release(ctx, key); err != nil {
				s.log.Warn(ctx, "release reminder watermark", "schedule_id", sc.ID, "error", err)
			}
		}
	}

	return fired, nil
}

// UpcomingCount returns how many reminders of userID fire strictly between
// now and now+within.
func (s *Scheduler) UpcomingCount(ctx context.Context, userID int64, within time.Duration) (int, error) {
	now := s.now()
	until := now.Add(within)

	list, err := s.source.DueForReminder(ctx, userID, now, s.horizon)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sc := range list {
		at := sc.ReminderAt()
		if at.After(now) && at.Before(until) {
			count++
		}
	}
	return count, nil
}

// Notify emits a notification for sc right away, bypassing the due check
// and the watermark.
func (s *Scheduler) Notify(sc models.Schedule) error {
	select {
	case s.events <- newNotification(sc, s.now()):
		return nil
	default:
		return ErrQueueFull
	}
}

func newNotification(sc models.Schedule, now time.Time) models.Notification {
	return models.Notification{
		ID:          uuid.NewString(),
		ScheduleID:  sc.ID,
		UserID:      sc.UserID,
		Title:       sc.Title,
		Description: sc.Description,
		Note:        sc.Note,
		StartTime:   sc.StartTime,
		ReminderAt:  sc.ReminderAt(),
		FiredAt:     now,
	}
}
