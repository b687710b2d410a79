package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/config"
	"github.com/dmitrijs2005/gophcal/internal/cryptox"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcal/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// recordingLogger keeps the messages logged at Error level.
type recordingLogger struct {
	logging.Nop
	mu     sync.Mutex
	errors []string
}

func (r *recordingLogger) Error(_ context.Context, msg string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func (r *recordingLogger) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

type env struct {
	db        *sql.DB
	auth      *AuthService
	schedules *ScheduleService
	log       *recordingLogger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithHasher(t, cryptox.NewBcryptHasher(bcrypt.MinCost))
}

func newEnvWithHasher(t *testing.T, h cryptox.Hasher) *env {
	t.Helper()
	db, d, err := storage.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	log := &recordingLogger{}
	m := repomanager.NewSQLRepositoryManager(d)
	return &env{
		db:        db,
		auth:      NewAuthService(db, m, h, cfg, log),
		schedules: NewScheduleService(db, m, log),
		log:       log,
	}
}

func (e *env) login(t *testing.T, username string) *models.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.auth.Register(ctx, username, "pw123456", username+"@x.com"))
	sess, err := e.auth.Login(ctx, username, "pw123456")
	require.NoError(t, err)
	return sess
}

func (e *env) add(t *testing.T, sess *models.Session, s models.Schedule) int64 {
	t.Helper()
	if s.EndTime.IsZero() {
		s.EndTime = s.StartTime.Add(time.Hour)
	}
	id, err := e.schedules.Add(context.Background(), sess, &s)
	require.NoError(t, err)
	return id
}

func day(d, h, m int) time.Time {
	return time.Date(2024, 3, d, h, m, 0, 0, time.Local)
}

func idsOf(list []models.Schedule) []int64 {
	out := make([]int64, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}
