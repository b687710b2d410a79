package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/config"
	"github.com/dmitrijs2005/gophcal/internal/cryptox"
	"github.com/dmitrijs2005/gophcal/internal/export"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/reminder"
	"github.com/dmitrijs2005/gophcal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcal/internal/services"
	"github.com/dmitrijs2005/gophcal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// lockedBuffer is a bytes.Buffer safe for the notification goroutine.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

type stack struct {
	auth      *services.AuthService
	schedules *services.ScheduleService
	reminders *reminder.Scheduler
	exporter  *export.Exporter
	exportDir string
}

func newStack(t *testing.T) *stack {
	t.Helper()

	old := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = old })

	db, d, err := storage.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	m := repomanager.NewSQLRepositoryManager(d)
	ss := services.NewScheduleService(db, m, logging.Nop{})
	dir := filepath.Join(t.TempDir(), "export")

	st := &stack{
		auth:      services.NewAuthService(db, m, cryptox.NewBcryptHasher(bcrypt.MinCost), cfg, logging.Nop{}),
		schedules: ss,
		reminders: reminder.New(ss, reminder.Options{Interval: time.Hour}),
		exporter:  export.NewExporter(ss, export.NewFileSink(dir), logging.Nop{}),
		exportDir: dir,
	}
	t.Cleanup(st.reminders.Stop)
	return st
}

func (s *stack) app(input string, out *lockedBuffer) *App {
	return NewApp(s.auth, s.schedules, s.reminders, s.exporter, strings.NewReader(input), out, logging.Nop{})
}

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

var register = []string{"register", "alice", "alice@x.com", "pw123456", "pw123456"}
var login = []string{"login", "alice", "pw123456"}

func TestApp_FullSession(t *testing.T) {
	st := newStack(t)
	out := &lockedBuffer{}

	var in []string
	in = append(in, register...)
	in = append(in, login...)
	in = append(in,
		"add", "Standup", "daily sync", "", "09:30 15/03/2030", "09:45 15/03/2030", "Work", "y", "5",
		"add", "Gym", "", "", "18:00 15/03/2030", "19:00 15/03/2030", "", "",
		"list",
		"show 1",
		"filter keyword=gym",
		"filter date=2030-03-15 category=Work",
		"edit 2", "", "", "bring towel", "", "", "Sports", "",
		"show 2",
		"delete 1",
		"delete 1",
		"whoami",
		"export",
		"logout",
		"exit",
	)

	st.app(lines(in...), out).Run(context.Background())
	s := out.String()

	assert.Contains(t, s, "Registered. You can login now.")
	assert.Contains(t, s, "Welcome, alice!")
	assert.Contains(t, s, "Schedule #1 added")
	assert.Contains(t, s, "Schedule #2 added")
	assert.Contains(t, s, "#1  09:30 15/03/2030 - 09:45 15/03/2030  [Work]  Standup  (remind 5 min before)")
	assert.Contains(t, s, "#2  18:00 15/03/2030 - 19:00 15/03/2030  [Other]  Gym")
	assert.Contains(t, s, "Reminder: 5 min before (09:25 15/03/2030)")
	assert.Contains(t, s, "Description: daily sync")
	assert.Contains(t, s, "Schedule #2 updated")
	assert.Contains(t, s, "[Sports]  Gym")
	assert.Contains(t, s, "Note: bring towel")
	assert.Contains(t, s, "Schedule #1 deleted")
	assert.Contains(t, s, "Schedule not found")
	assert.Contains(t, s, "alice <alice@x.com>")
	assert.Contains(t, s, "Calendar exported to "+st.exportDir)
	assert.Contains(t, s, "Logged out")
	assert.Contains(t, s, "Bye!")

	entries, err := os.ReadDir(st.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, running := st.reminders.Running()
	assert.False(t, running)
}

func TestApp_LoginFailuresLookAlike(t *testing.T) {
	st := newStack(t)
	out := &lockedBuffer{}

	var in []string
	in = append(in, register...)
	in = append(in, "login", "alice", "wrongpass", "login", "bob", "pw123456", "exit")
	st.app(lines(in...), out).Run(context.Background())

	assert.Equal(t, 2, strings.Count(out.String(), "Invalid username or password"))
}

func TestApp_RegisterValidationAndDuplicate(t *testing.T) {
	st := newStack(t)
	out := &lockedBuffer{}

	var in []string
	in = append(in, register...)
	in = append(in, register...)
	in = append(in, "register", "al", "alice@x.com", "pw123456", "pw123456")
	in = append(in, "register", "carol", "carol@x.com", "pw123456", "pw654321")
	in = append(in, "exit")
	st.app(lines(in...), out).Run(context.Background())

	s := out.String()
	assert.Contains(t, s, "Username or email is already taken")
	assert.Contains(t, s, "Invalid input: ")
	assert.Contains(t, s, "passwords do not match")
}

func TestApp_AddRejectsBadInput(t *testing.T) {
	st := newStack(t)
	out := &lockedBuffer{}

	var in []string
	in = append(in, register...)
	in = append(in, login...)
	in = append(in,
		"add", "Bad", "", "", "tomorrow",
		"add", "Backwards", "", "", "10:00 15/03/2030", "09:00 15/03/2030", "", "",
		"list", "exit",
	)
	st.app(lines(in...), out).Run(context.Background())

	s := out.String()
	assert.Contains(t, s, "Invalid input: expected HH:mm dd/MM/yyyy")
	assert.Contains(t, s, "must not be before start time")
	assert.Contains(t, s, "No schedules")
}

func TestApp_ResumesRememberedSession(t *testing.T) {
	st := newStack(t)

	first := &lockedBuffer{}
	var in []string
	in = append(in, register...)
	in = append(in, login...)
	in = append(in, "exit")
	st.app(lines(in...), first).Run(context.Background())

	second := &lockedBuffer{}
	st.app(lines("whoami", "logout", "exit"), second).Run(context.Background())
	assert.Contains(t, second.String(), "Resumed session for alice")
	assert.Contains(t, second.String(), "alice <alice@x.com>")

	third := &lockedBuffer{}
	st.app(lines("whoami", "exit"), third).Run(context.Background())
	assert.NotContains(t, third.String(), "Resumed session")
	assert.Contains(t, third.String(), "Please login first")
}

func TestApp_RemindDeliversNotification(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()

	require.NoError(t, st.auth.Register(ctx, "alice", "pw123456", "alice@x.com"))
	sess, err := st.auth.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	start := time.Date(2030, 3, 15, 9, 30, 0, 0, time.Local)
	id, err := st.schedules.Add(ctx, sess, &models.Schedule{
		Title: "Standup", Note: "room 2", StartTime: start, EndTime: start.Add(15 * time.Minute),
	})
	require.NoError(t, err)

	out := &lockedBuffer{}
	a := st.app("", out)
	a.setSession(sess)

	require.NoError(t, a.Remind(ctx, []string{"#" + strconv.FormatInt(id, 10)}))

	n := <-st.reminders.Events()
	a.printNotification(n)
	assert.Contains(t, out.String(), "*** Reminder: Standup ***")
	assert.Contains(t, out.String(), "Time: 09:30 15/03/2030")
	assert.Contains(t, out.String(), "Note: room 2")
}

func TestApp_WatchNotificationsSkipsOtherUsers(t *testing.T) {
	st := newStack(t)
	out := &lockedBuffer{}
	a := st.app("", out)
	a.setSession(&models.Session{UserID: 1, Username: "alice"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.watchNotifications(ctx)
	}()

	start := time.Date(2030, 3, 15, 9, 30, 0, 0, time.Local)
	require.NoError(t, st.reminders.Notify(models.Schedule{ID: 7, UserID: 2, Title: "Bob standup", StartTime: start}))
	require.NoError(t, st.reminders.Notify(models.Schedule{ID: 8, UserID: 1, Title: "Alice standup", StartTime: start}))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "*** Reminder: Alice standup ***")
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.NotContains(t, out.String(), "Bob standup")
}

func TestApp_LogoutSilencesNotifications(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	require.NoError(t, st.auth.Register(ctx, "alice", "pw123456", "alice@x.com"))
	sess, err := st.auth.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	out := &lockedBuffer{}
	a := st.app("", out)
	a.setSession(sess)
	require.NoError(t, a.Logout(ctx))
	assert.Equal(t, int64(0), a.activeUser.Load())

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.watchNotifications(wctx)
	}()

	require.NoError(t, st.reminders.Notify(models.Schedule{ID: 1, UserID: sess.UserID, Title: "Late standup"}))
	require.Eventually(t, func() bool { return len(st.reminders.Events()) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.NotContains(t, out.String(), "Late standup")
}

func TestApp_UpcomingArgs(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	require.NoError(t, st.auth.Register(ctx, "alice", "pw123456", "alice@x.com"))
	sess, err := st.auth.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	out := &lockedBuffer{}
	a := st.app("", out)
	a.setSession(sess)

	require.NoError(t, a.Upcoming(ctx, nil))
	assert.Contains(t, out.String(), "0 reminder(s) in the next 60 minutes")

	err = a.Upcoming(ctx, []string{"soon"})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter([]string{"date=2024-03-15", "category=work", "keyword=team", "sync"})
	require.NoError(t, err)
	assert.Equal(t, 15, f.Date.Day())
	assert.Equal(t, models.CategoryWork, f.Category)
	assert.Equal(t, "team sync", f.Keyword)

	f, err = parseFilter([]string{"category=All"})
	require.NoError(t, err)
	assert.False(t, f.Category.IsFilter())

	_, err = parseFilter([]string{"color=red"})
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = parseFilter([]string{"date=15/03/2024"})
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = parseFilter([]string{"gym"})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Schedule not found", describe(common.ErrorNotFound))
	assert.Equal(t, "Storage is unavailable, please try again later", describe(common.ErrStoreUnavailable))
	assert.Equal(t, "Invalid input: title is required", describe(invalid("title is required")))
	assert.Equal(t, "Username or email is already taken", describe(common.ErrorAlreadyExists))
}
