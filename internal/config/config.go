// Package config assembles the runtime settings of the gophcal CLI from
// defaults, the environment (optionally seeded from a .env file), a JSON file
// and command-line flags. Later sources take precedence over earlier ones.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for gophcal.
//
// Durations are time.Duration values; on the command line SessionTTL is given
// in minutes and ReminderInterval in seconds.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string

	PasswordHasher string
	SessionSecret  string
	SessionTTL     time.Duration

	ReminderInterval  time.Duration
	ReminderHorizon   time.Duration
	ReminderWatermark string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ExportSink     string
	ExportDir      string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	LogLevel   string
	LogBackend string
}

const (
	WatermarkMemory = "memory"
	WatermarkRedis  = "redis"

	SinkFile = "file"
	SinkS3   = "s3"
)

// LoadDefaults populates c with development defaults.
// NOTE: SessionSecret must be overridden outside local use.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "gophcal.db"
	c.PasswordHasher = "bcrypt"
	c.SessionSecret = "secretKey"
	c.SessionTTL = 7 * 24 * time.Hour
	c.ReminderInterval = 30 * time.Second
	c.ReminderHorizon = 24 * time.Hour
	c.ReminderWatermark = WatermarkMemory
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisDB = 0
	c.ExportSink = SinkFile
	c.ExportDir = "export"
	c.S3Bucket = "calendars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// Load builds a Config from args (without the program name).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env", os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load applied to the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
