package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	applogger "MomentumScan/pkg/logger"
)

// Runner executes one screen.
type Runner interface {
	Run(ctx context.Context, market string, period repository.Period) (*models.ScreenReport, error)
}

// Config describes the periodic screen job.
type Config struct {
	Spec     string
	TimeZone string
	Markets  []string
	Period   repository.Period
}

// Scheduler runs screens for the configured markets on a cron spec with a seconds field.
// A tick that fires while the previous one is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    Config
	logger *applogger.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

func New(runner Runner, cfg Config, logger *applogger.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = applogger.Nop()
	}
	logger = logger.Named("scheduler")
	opts := []cron.Option{cron.WithSeconds(), cron.WithLogger(cronLogger{logger})}
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("schedule timezone %q: %w", cfg.TimeZone, err)
		}
		opts = append(opts, cron.WithLocation(loc))
	}
	if !repository.IsValidPeriod(cfg.Period) {
		cfg.Period = repository.DefaultPeriod()
	}
	opts = append(opts, cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: cron.New(opts...), runner: runner, cfg: cfg, logger: logger, ctx: ctx, cancel: cancel}
	id, err := s.cron.AddFunc(cfg.Spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("register screen job %q: %w", cfg.Spec, err)
	}
	s.entry = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		applogger.String("spec", s.cfg.Spec),
		applogger.Strings("markets", s.cfg.Markets),
		applogger.Time("next", s.Next()),
	)
}

// Stop cancels a running tick and waits for it to return, or for ctx to end.
// A later Start resumes ticking with a fresh context.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Next is the time of the next tick, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunNow executes one tick synchronously.
func (s *Scheduler) RunNow() { s.tick() }

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	for _, market := range s.cfg.Markets {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		report, err := s.runner.Run(ctx, market, s.cfg.Period)
		if err != nil {
			s.logger.Error("scheduled screen failed", applogger.String("market", market), applogger.Error(err))
			continue
		}
		s.logger.Info("scheduled screen done",
			applogger.String("market", market),
			applogger.String("run_id", report.RunID),
			applogger.Int("ranked", len(report.Ranked)),
			applogger.Int("failed", report.Failed),
			applogger.Duration("took_ms", time.Since(start)),
		)
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct{ l *applogger.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug("cron "+msg, applogger.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error("cron "+msg, applogger.Error(err), applogger.Any("kv", kv))
}
