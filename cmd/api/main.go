package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/http/handlers"
	"github.com/diagnosis/frontdesk/internal/notify"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/logger"
	mw "github.com/diagnosis/frontdesk/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	clk := clock.System{}

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	c, err := openCache(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	eventBus, err := openBus(cfg)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize services
	authService := service.NewAuthService(store.Employees(), clk, cfg)
	integrityService := service.NewIntegrityService(store, eventBus, clk, cfg)
	svc := handlers.Services{
		Scans:     service.NewScanService(store, c, eventBus, clk, cfg),
		Occupancy: service.NewOccupancyService(store, eventBus, clk, cfg),
		Stats:     service.NewStatisticsService(store, c, clk, cfg),
		Customers: service.NewCustomerService(store, clk, cfg),
		Auth:      authService,
	}

	if err := seedStore(ctx, cfg, store, authService); err != nil {
		logger.Error("Failed to seed store", "file", cfg.Storage.SeedFile, "error", err)
		os.Exit(1)
	}
	if report, err := integrityService.Reconcile(ctx); err != nil {
		logger.Error("Startup integrity sweep failed", "error", err)
	} else {
		logger.Info("Startup integrity sweep", "checked", report.Checked, "healed", report.Healed)
	}

	sweeper, err := scheduleSweep(cfg.Desk.IntegritySchedule, integrityService)
	if err != nil {
		logger.Error("Invalid integrity schedule", "schedule", cfg.Desk.IntegritySchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	notifier := notify.NewNotifier(newMailer(cfg), c, clk, cfg.Desk.Location())
	if err := notifier.Start(eventBus); err != nil {
		logger.Error("Failed to subscribe notifier", "error", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("frontdesk"))
	r.Use(mw.TerminalID(cfg.Desk.TerminalID))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.CORSOrigins))
	r.Use(mw.Health)
	r.Mount("/", handlers.Routes(svc, c, clk, cfg))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down front desk service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Front desk service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting front desk service",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"terminal_id", cfg.Desk.TerminalID,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Front desk service error", "error", err)
		os.Exit(1)
	}
}
