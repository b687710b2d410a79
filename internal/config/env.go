package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHCAL_"

// parseEnv overlays GOPHCAL_* variables. Values from dotenvPath fill in
// whatever the real environment leaves unset; a missing file is fine.
func parseEnv(cfg *Config, dotenvPath string, lookup func(string) (string, bool)) error {
	fileVars := map[string]string{}
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		if vars != nil {
			fileVars = vars
		}
	}

	get := func(name string) (string, bool) {
		if v, ok := lookup(envPrefix + name); ok {
			return v, true
		}
		v, ok := fileVars[envPrefix+name]
		return v, ok
	}

	strs := map[string]*string{
		"DATABASE_DRIVER":    &cfg.DatabaseDriver,
		"DATABASE_DSN":       &cfg.DatabaseDSN,
		"PASSWORD_HASHER":    &cfg.PasswordHasher,
		"SESSION_SECRET":     &cfg.SessionSecret,
		"REMINDER_WATERMARK": &cfg.ReminderWatermark,
		"REDIS_ADDR":         &cfg.RedisAddr,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"EXPORT_SINK":        &cfg.ExportSink,
		"EXPORT_DIR":         &cfg.ExportDir,
		"S3_BUCKET":          &cfg.S3Bucket,
		"S3_REGION":          &cfg.S3Region,
		"S3_BASE_ENDPOINT":   &cfg.S3BaseEndpoint,
		"S3_ACCESS_KEY":      &cfg.S3AccessKey,
		"S3_SECRET_KEY":      &cfg.S3SecretKey,
		"LOG_LEVEL":          &cfg.LogLevel,
		"LOG_BACKEND":        &cfg.LogBackend,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_TTL":       &cfg.SessionTTL,
		"REMINDER_INTERVAL": &cfg.ReminderInterval,
		"REMINDER_HORIZON":  &cfg.ReminderHorizon,
	}
	for name, dst := range durations {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	if v, ok := get("REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		cfg.RedisDB = n
	}

	return nil
}
