package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/timex"
)

// AuthService is the account surface the CLI drives.
type AuthService interface {
	Register(ctx context.Context, username, password, email string) error
	Login(ctx context.Context, username, password string) (*models.Session, error)
	ChangePassword(ctx context.Context, sess *models.Session, oldPassword, newPassword string) error
	UpdateEmail(ctx context.Context, sess *models.Session, email string) error
	CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error)
	RememberSession(ctx context.Context, sess *models.Session) error
	ResumeSession(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
}

// ScheduleService is the schedule surface the CLI drives.
type ScheduleService interface {
	Add(ctx context.Context, sess *models.Session, s *models.Schedule) (int64, error)
	Update(ctx context.Context, sess *models.Session, s *models.Schedule) error
	Delete(ctx context.Context, sess *models.Session, id int64) error
	Get(ctx context.Context, sess *models.Session, id int64) (*models.Schedule, error)
	ListAll(ctx context.Context, sess *models.Session) ([]models.Schedule, error)
	ListByDate(ctx context.Context, sess *models.Session, date time.Time) ([]models.Schedule, error)
	FilterSchedules(ctx context.Context, sess *models.Session, f models.Filter) ([]models.Schedule, error)
}

// Reminders is the scheduler surface the CLI drives.
type Reminders interface {
	Start(sess *models.Session) error
	Stop()
	Events() <-chan models.Notification
	UpcomingCount(ctx context.Context, userID int64, within time.Duration) (int, error)
	Notify(s models.Schedule) error
}

type Exporter interface {
	Export(ctx context.Context, sess *models.Session) (string, error)
}

// loginUpcomingWindow is the look-ahead reported right after login.
const loginUpcomingWindow = time.Hour

type App struct {
	auth      AuthService
	schedules ScheduleService
	reminders Reminders
	exporter  Exporter
	log       logging.Logger

	reader *bufio.Reader
	out    io.Writer

	session    *models.Session
	// activeUser mirrors session.UserID for the notification goroutine; 0 when logged out.
	activeUser atomic.Int64
	now        func() time.Time
}

func NewApp(as AuthService, ss ScheduleService, r Reminders, e Exporter, in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{
		auth:      as,
		schedules: ss,
		reminders: r,
		exporter:  e,
		log:       log,
		reader:    bufio.NewReader(in),
		out:       &syncWriter{w: out},
		now:       time.Now,
	}
}

// Run resumes a remembered session, prints reminders in the background and
// serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Welcome to gophcal (type 'help' for commands)")
	a.resume(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchNotifications(ctx)
	}()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	a.reminders.Stop()
	cancel()
	wg.Wait()
}

func (a *App) resume(ctx context.Context) {
	sess, err := a.auth.ResumeSession(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrNoSession) {
			a.println(describe(err))
		}
		return
	}
	a.startSession(ctx, sess)
	a.printf("Resumed session for %s\n", sess.Username)
}

func (a *App) startSession(ctx context.Context, sess *models.Session) {
	a.setSession(sess)
	if err := a.reminders.Start(sess); err != nil {
		a.log.Error(ctx, "start reminders", "user_id", sess.UserID, "error", err)
	}
}

func (a *App) setSession(sess *models.Session) {
	a.session = sess
	if sess == nil {
		a.activeUser.Store(0)
		return
	}
	a.activeUser.Store(sess.UserID)
}

// watchNotifications prints reminders for the logged in user until ctx is
// done. Events queued for another user are dropped.
func (a *App) watchNotifications(ctx context.Context) {
	events := a.reminders.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-events:
			if n.UserID != a.activeUser.Load() {
				a.log.Debug(ctx, "drop reminder for inactive user", "user_id", n.UserID, "schedule_id", n.ScheduleID)
				continue
			}
			a.printNotification(n)
		}
	}
}

func (a *App) printNotification(n models.Notification) {
	a.printf("\n*** Reminder: %s ***\n%s", n.Title, n.Text(timex.DisplayLayout))
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Username)
}

// syncWriter serializes writes from the REPL and the notification printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) prompt(text string) (string, error) {
	return GetSimpleText(a.reader, text, a.out)
}

// describe turns service errors into user facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return "Invalid input: " + detail(err)
	case errors.Is(err, common.ErrorAlreadyExists):
		return "Username or email is already taken"
	case errors.Is(err, common.ErrorUnauthorized):
		return "Not authorized"
	case errors.Is(err, common.ErrorNotFound):
		return "Schedule not found"
	case errors.Is(err, common.ErrStoreUnavailable):
		return "Storage is unavailable, please try again later"
	default:
		return "Error: " + err.Error()
	}
}

func detail(err error) string {
	msg, _ := strings.CutPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	return msg
}
