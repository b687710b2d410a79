package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func noEnv(string) (string, bool) { return "", false }

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "gophcal.db", c.DatabaseDSN)
	assert.Equal(t, "bcrypt", c.PasswordHasher)
	assert.Equal(t, 30*time.Second, c.ReminderInterval)
	assert.Equal(t, 24*time.Hour, c.ReminderHorizon)
	assert.Equal(t, WatermarkMemory, c.ReminderWatermark)
	assert.Equal(t, "slog", c.LogBackend)
	assert.Equal(t, SinkFile, c.ExportSink)
}

func TestParseEnv_ProcessEnvBeatsDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"GOPHCAL_DATABASE_DSN=from-file.db\nGOPHCAL_LOG_LEVEL=debug\nGOPHCAL_REDIS_DB=3\n"), 0o600))

	env := map[string]string{
		"GOPHCAL_DATABASE_DSN":      "from-env.db",
		"GOPHCAL_REMINDER_INTERVAL": "10s",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	got := defaults()
	require.NoError(t, parseEnv(&got, dotenv, lookup))

	want := defaults()
	want.DatabaseDSN = "from-env.db"
	want.LogLevel = "debug"
	want.RedisDB = 3
	want.ReminderInterval = 10 * time.Second

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnv_MissingFileIsFine(t *testing.T) {
	c := defaults()
	require.NoError(t, parseEnv(&c, filepath.Join(t.TempDir(), "absent.env"), noEnv))
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func TestParseEnv_BadValues(t *testing.T) {
	c := defaults()
	err := parseEnv(&c, "", func(k string) (string, bool) {
		if k == "GOPHCAL_SESSION_TTL" {
			return "soon", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "GOPHCAL_SESSION_TTL")

	c = defaults()
	err = parseEnv(&c, "", func(k string) (string, bool) {
		if k == "GOPHCAL_REDIS_DB" {
			return "one", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "GOPHCAL_REDIS_DB")
}

func TestParseJson_OverlaysOnlyPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_driver": "pgx",
		"database_dsn": "postgres://localhost/cal",
		"reminder_interval": "15s",
		"session_ttl": 3600000000000,
		"redis_db": 2
	}`), 0o600))

	got := defaults()
	require.NoError(t, parseJson(&got, []string{"-c", path}))

	want := defaults()
	want.DatabaseDriver = "pgx"
	want.DatabaseDSN = "postgres://localhost/cal"
	want.ReminderInterval = 15 * time.Second
	want.SessionTTL = time.Hour
	want.RedisDB = 2

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJson_Errors(t *testing.T) {
	c := defaults()
	assert.Error(t, parseJson(&c, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"reminder_interval": true}`), 0o600))
	assert.Error(t, parseJson(&c, []string{"--config=" + bad}))

	assert.NoError(t, parseJson(&c, nil))
}

func TestParseFlags(t *testing.T) {
	got := defaults()
	got.SessionTTL = 90 * time.Second

	err := parseFlags(&got, []string{"-d", "other.db", "-i", "5", "-w", "redis", "-o", "s3", "-unknown", "x", "-c", "cfg.json"})
	require.NoError(t, err)

	want := defaults()
	want.SessionTTL = 90 * time.Second
	want.DatabaseDSN = "other.db"
	want.ReminderInterval = 5 * time.Second
	want.ReminderWatermark = WatermarkRedis
	want.ExportSink = SinkS3

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFlags_BadValue(t *testing.T) {
	c := defaults()
	assert.Error(t, parseFlags(&c, []string{"-t", "abc"}))
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn": "json.db", "log_level": "warn"}`), 0o600))

	cfg, err := Load([]string{"-c", path, "-d", "flag.db"})
	require.NoError(t, err)

	assert.Equal(t, "flag.db", cfg.DatabaseDSN)
	assert.Equal(t, "warn", cfg.LogLevel)
}
