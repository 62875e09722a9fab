package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/diagnosis/frontdesk/internal/database"
	"github.com/diagnosis/frontdesk/internal/platform/mailer"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/internal/repo/memory"
	"github.com/diagnosis/frontdesk/internal/repo/postgres"
	"github.com/diagnosis/frontdesk/internal/seed"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/config"
	pgdb "github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/robfig/cron/v3"
)

func openStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		pool, err := pgdb.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE %q (want memory or postgres)", cfg.Storage.Backend)
	}
}

func openCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.URL == "" {
		return cache.NewMemory(nil), nil
	}
	return cache.NewRedis(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, "frontdesk:")
}

func openBus(cfg *config.Config) (events.EventBus, error) {
	if cfg.NATS.URL == "" {
		return events.NewLocalBus(), nil
	}
	return events.NewNATSEventBus(cfg.NATS.URL)
}

func newMailer(cfg *config.Config) mailer.Service {
	m := mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	if m.Enabled {
		return m
	}
	logger.Info("MailerSend not configured, expiry reminders will be logged")
	return mailer.NewDevMailer()
}

// seedStore applies the seed file when it exists. Records already in the
// store are left alone.
func seedStore(ctx context.Context, cfg *config.Config, store repo.Store, auth service.AuthService) error {
	path := cfg.Storage.SeedFile
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("No seed file, starting empty", "file", path)
		return nil
	}

	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	if _, err := seed.Apply(ctx, f, store, auth, cfg.Desk.Location()); err != nil {
		return fmt.Errorf("applying seed %s: %w", path, err)
	}
	return nil
}

func scheduleSweep(schedule string, integrity service.IntegrityService) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		report, err := integrity.Reconcile(ctx)
		if err != nil {
			logger.Error("Integrity sweep failed", "error", err)
			return
		}
		if report.Healed > 0 || len(report.LongOpenVisits) > 0 {
			logger.Warn("Integrity sweep found drift",
				"checked", report.Checked,
				"healed", report.Healed,
				"long_open_visits", report.LongOpenVisits,
			)
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
