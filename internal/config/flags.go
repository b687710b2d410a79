package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/flagx"
)

// parseFlags applies the short command-line flags.
//
//	-e string   database driver (sqlite | pgx)
//	-d string   database DSN
//	-p string   password hasher (bcrypt | argon2id)
//	-s string   session token secret
//	-t int      session lifetime, minutes
//	-i int      reminder polling interval, seconds
//	-w string   reminder watermark (memory | redis)
//	-r string   redis address
//	-o string   export sink (file | s3)
//	-x string   export directory
//	-b string   S3 bucket
//	-l string   log level
//	-g string   log backend (slog | logrus)
//
// Unrelated arguments are dropped with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-e", "-d", "-p", "-s", "-t", "-i", "-w", "-r", "-o", "-x", "-b", "-l", "-g"})

	fs := flag.NewFlagSet("gophcal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "e", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.PasswordHasher, "p", cfg.PasswordHasher, "password hasher")
	fs.StringVar(&cfg.SessionSecret, "s", cfg.SessionSecret, "session secret")

	sessionTTL := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session lifetime (in minutes)")
	interval := fs.Int("i", int(cfg.ReminderInterval.Seconds()), "reminder interval (in seconds)")

	fs.StringVar(&cfg.ReminderWatermark, "w", cfg.ReminderWatermark, "reminder watermark")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.ExportSink, "o", cfg.ExportSink, "export sink")
	fs.StringVar(&cfg.ExportDir, "x", cfg.ExportDir, "export directory")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogBackend, "g", cfg.LogBackend, "log backend")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only explicit flags override, so sub-minute values from other sources survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		case "i":
			cfg.ReminderInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
