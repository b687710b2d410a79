package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophcal/internal/flagx"
	"github.com/dmitrijs2005/gophcal/internal/timex"
)

// JsonConfig is the on-disk shape of a config file. Durations accept "30s"
// strings or integer nanoseconds. Only fields present in the file override
// the current values.
type JsonConfig struct {
	DatabaseDriver    string          `json:"database_driver"`
	DatabaseDSN       string          `json:"database_dsn"`
	PasswordHasher    string          `json:"password_hasher"`
	SessionSecret     string          `json:"session_secret"`
	SessionTTL        *timex.Duration `json:"session_ttl"`
	ReminderInterval  *timex.Duration `json:"reminder_interval"`
	ReminderHorizon   *timex.Duration `json:"reminder_horizon"`
	ReminderWatermark string          `json:"reminder_watermark"`
	RedisAddr         string          `json:"redis_addr"`
	RedisPassword     string          `json:"redis_password"`
	RedisDB           *int            `json:"redis_db"`
	ExportSink        string          `json:"export_sink"`
	ExportDir         string          `json:"export_dir"`
	S3Bucket          string          `json:"s3_bucket"`
	S3Region          string          `json:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	S3AccessKey       string          `json:"s3_access_key"`
	S3SecretKey       string          `json:"s3_secret_key"`
	LogLevel          string          `json:"log_level"`
	LogBackend        string          `json:"log_backend"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(cfg)
	return nil
}

func (c *JsonConfig) apply(cfg *Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setString(&cfg.DatabaseDriver, c.DatabaseDriver)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.PasswordHasher, c.PasswordHasher)
	setString(&cfg.SessionSecret, c.SessionSecret)
	setString(&cfg.ReminderWatermark, c.ReminderWatermark)
	setString(&cfg.RedisAddr, c.RedisAddr)
	setString(&cfg.RedisPassword, c.RedisPassword)
	setString(&cfg.ExportSink, c.ExportSink)
	setString(&cfg.ExportDir, c.ExportDir)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, c.S3AccessKey)
	setString(&cfg.S3SecretKey, c.S3SecretKey)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.LogBackend, c.LogBackend)

	if c.SessionTTL != nil {
		cfg.SessionTTL = c.SessionTTL.Duration
	}
	if c.ReminderInterval != nil {
		cfg.ReminderInterval = c.ReminderInterval.Duration
	}
	if c.ReminderHorizon != nil {
		cfg.ReminderHorizon = c.ReminderHorizon.Duration
	}
	if c.RedisDB != nil {
		cfg.RedisDB = *c.RedisDB
	}
}
