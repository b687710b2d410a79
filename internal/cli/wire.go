package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophcal/internal/config"
	"github.com/dmitrijs2005/gophcal/internal/cryptox"
	"github.com/dmitrijs2005/gophcal/internal/export"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/reminder"
	"github.com/dmitrijs2005/gophcal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcal/internal/services"
	"github.com/dmitrijs2005/gophcal/internal/storage"
)

// NewFromConfig opens the store and assembles the App. The returned close
// function releases the store and any redis connection and must be called
// once after Run.
func NewFromConfig(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, func(), error) {
	hasher, err := cryptox.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return nil, nil, err
	}

	sink, err := newSink(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, dialect, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closers := []func() error{db.Close}

	wm, closeWM, err := newWatermark(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if closeWM != nil {
		closers = append(closers, closeWM)
	}

	m := repomanager.NewSQLRepositoryManager(dialect)
	as := services.NewAuthService(db, m, hasher, cfg, log)
	ss := services.NewScheduleService(db, m, log)

	sched := reminder.New(ss, reminder.Options{
		Interval:  cfg.ReminderInterval,
		Horizon:   cfg.ReminderHorizon,
		Watermark: wm,
		Logger:    log,
	})
	exp := export.NewExporter(ss, sink, log)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn(ctx, "close", "error", err)
			}
		}
	}

	return NewApp(as, ss, sched, exp, in, out, log), closeAll, nil
}

func newWatermark(ctx context.Context, cfg *config.Config, log logging.Logger) (reminder.Watermark, func() error, error) {
	switch cfg.ReminderWatermark {
	case "", config.WatermarkMemory:
		return reminder.NewMemoryWatermark(), nil, nil
	case config.WatermarkRedis:
		rdb := reminder.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// scheduler falls back to delivering without dedup while redis is down
			log.Warn(ctx, "redis unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		return reminder.NewRedisWatermark(rdb, ""), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown reminder watermark %q", cfg.ReminderWatermark)
	}
}

func newSink(cfg *config.Config) (export.Sink, error) {
	switch cfg.ExportSink {
	case "", config.SinkFile:
		return export.NewFileSink(cfg.ExportDir), nil
	case config.SinkS3:
		return export.NewS3Sink(export.S3Settings{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.ExportSink)
	}
}
