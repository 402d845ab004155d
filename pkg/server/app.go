package server

import (
	"context"
	"fmt"

	"MomentumScan/internal/scheduler"
	"MomentumScan/pkg/config"
	xhttp "MomentumScan/pkg/http"
	applogger "MomentumScan/pkg/logger"
)

// App encapsulates the serve lifecycle: the HTTP API and the optional cron schedule.
type App struct {
	cfg       *config.Config
	server    *xhttp.Server
	scheduler *scheduler.Scheduler
	logger    *applogger.Logger
}

// New creates a new App. sched may be nil when scheduling is disabled.
func New(cfg *config.Config, srv *xhttp.Server, sched *scheduler.Scheduler, logger *applogger.Logger) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{cfg: cfg, server: srv, scheduler: sched, logger: logger}
}

// Run starts the application and blocks until ctx is done or the listener fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.server.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}
	a.logger.Info("http server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment))

	if a.scheduler != nil {
		a.scheduler.Start()
		if a.cfg.Schedule.RunOnStart {
			go a.scheduler.RunNow()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-a.server.Err():
		a.logger.Error("http server error", applogger.Error(err))
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the schedule first so no new run starts, then drains the HTTP server.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.logger.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return fmt.Errorf("http shutdown: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
