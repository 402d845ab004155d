package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	applogger "MomentumScan/pkg/logger"
	"MomentumScan/pkg/metrics"

	"github.com/google/uuid"
)

// ErrEmptyUniverse means the universe source produced no symbols for the requested tag.
var ErrEmptyUniverse = errors.New("universe resolved no symbols")

// ScreenUseCase runs one screening pass: universe, batch analysis, ranking and the optional sinks.
type ScreenUseCase struct {
	universe   repository.UniverseSource
	scheduler  *BatchScheduler
	aggregator ResultAggregator
	sentiment  repository.SentimentIndexProvider
	store      repository.ResultStore
	publisher  repository.ReportPublisher
	cache      repository.ReportCache
	cacheTTL   time.Duration
	sinkTTL    time.Duration
	metrics    repository.Metrics
	logger     *applogger.Logger
	now        func() time.Time
	newID      func() string
}

// ScreenOption configures ScreenUseCase.
type ScreenOption func(*ScreenUseCase)

func WithSentiment(p repository.SentimentIndexProvider) ScreenOption {
	return func(uc *ScreenUseCase) { uc.sentiment = p }
}

func WithResultStore(s repository.ResultStore) ScreenOption {
	return func(uc *ScreenUseCase) { uc.store = s }
}

func WithReportPublisher(p repository.ReportPublisher) ScreenOption {
	return func(uc *ScreenUseCase) { uc.publisher = p }
}

// WithReportCache keeps the latest report per market and period for ttl.
func WithReportCache(c repository.ReportCache, ttl time.Duration) ScreenOption {
	return func(uc *ScreenUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

func WithScreenMetrics(m repository.Metrics) ScreenOption {
	return func(uc *ScreenUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

func WithScreenLogger(l *applogger.Logger) ScreenOption {
	return func(uc *ScreenUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

func withClock(now func() time.Time) ScreenOption {
	return func(uc *ScreenUseCase) { uc.now = now }
}

func NewScreenUseCase(universe repository.UniverseSource, scheduler *BatchScheduler, opts ...ScreenOption) *ScreenUseCase {
	uc := &ScreenUseCase{
		universe:   universe,
		scheduler:  scheduler,
		aggregator: NewResultAggregator(),
		sinkTTL:    10 * time.Second,
		metrics:    metrics.Nop{},
		logger:     applogger.Nop(),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Markets lists the tags the universe source understands.
func (uc *ScreenUseCase) Markets() []string { return uc.universe.Tags() }

// Run screens market for period. Only an empty universe is an error; per-symbol failures are in the report.
func (uc *ScreenUseCase) Run(ctx context.Context, market string, period repository.Period) (*models.ScreenReport, error) {
	market = strings.ToLower(strings.TrimSpace(market))
	if !repository.IsValidPeriod(period) {
		period = repository.DefaultPeriod()
	}
	started := uc.now()

	symbols, err := uc.universe.Universe(ctx, market)
	if len(symbols) == 0 {
		uc.metrics.RecordError("universe")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEmptyUniverse, market, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyUniverse, market)
	}
	if err != nil {
		uc.logger.Warn("universe partially resolved", applogger.String("market", market), applogger.Error(err))
	}
	uc.logger.Info("screen started",
		applogger.String("market", market),
		applogger.String("period", string(period)),
		applogger.Int("symbols", len(symbols)),
	)

	sentCh := make(chan models.Sentiment, 1)
	go func() { sentCh <- uc.Sentiment(ctx, repository.Period1Mo) }()

	rr := uc.scheduler.Run(ctx, symbols, period)
	ranked := uc.aggregator.Rank(rr.Results)

	report := &models.ScreenReport{
		RunID:      uc.newID(),
		Market:     market,
		Period:     string(period),
		StartedAt:  started,
		FinishedAt: uc.now(),
		Total:      rr.Total(),
		Succeeded:  len(rr.Results),
		Failed:     len(rr.Failures),
		Ranked:     ranked,
		Failures:   SortFailures(rr.Failures),
		Sentiment:  <-sentCh,
	}

	uc.metrics.RecordRun(market, report.Succeeded, report.Failed)
	uc.metrics.RecordLatency("screen", report.FinishedAt.Sub(started).Seconds())
	for _, r := range ranked {
		uc.metrics.RecordScore(market, r.Symbol, r.Score)
	}
	uc.logger.Info("screen finished",
		applogger.String("run_id", report.RunID),
		applogger.String("market", market),
		applogger.Int("succeeded", report.Succeeded),
		applogger.Int("failed", report.Failed),
		applogger.Duration("took_ms", report.FinishedAt.Sub(started)),
	)

	uc.deliver(report)
	return report, nil
}

// Latest returns the cached report of the last run for market and period.
func (uc *ScreenUseCase) Latest(ctx context.Context, market string, period repository.Period) (*models.ScreenReport, bool, error) {
	if uc.cache == nil {
		return nil, false, nil
	}
	return uc.cache.GetLatest(ctx, strings.ToLower(strings.TrimSpace(market)), period)
}

// Sentiment returns the index snapshot, or the neutral fallback when the provider is missing or fails.
func (uc *ScreenUseCase) Sentiment(ctx context.Context, period repository.Period) models.Sentiment {
	fallback := models.Sentiment{Value: models.NeutralSentiment, Label: models.SentimentLabel(models.NeutralSentiment), Fallback: true}
	if uc.sentiment == nil {
		return fallback
	}
	v, rating, err := uc.sentiment.Current(ctx)
	if err != nil {
		uc.metrics.RecordError("sentiment")
		uc.logger.Warn("sentiment unavailable, using neutral value", applogger.Error(err))
		return fallback
	}
	s := models.Sentiment{Value: v, Label: models.SentimentLabel(v), Rating: rating}
	hist, err := uc.sentiment.History(ctx, period)
	if err != nil {
		uc.logger.Debug("sentiment history unavailable", applogger.Error(err))
	} else {
		s.History = hist
	}
	return s
}

// deliver hands the report to the optional sinks. Sink failures are logged and counted only.
func (uc *ScreenUseCase) deliver(report *models.ScreenReport) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.sinkTTL)
	defer cancel()

	if uc.cache != nil {
		if err := uc.cache.SetLatest(ctx, report, uc.cacheTTL); err != nil {
			uc.metrics.RecordError("report_cache")
			uc.logger.Warn("report cache write failed", applogger.Error(err))
		}
	}
	if uc.store != nil {
		if err := uc.store.SaveReport(ctx, report); err != nil {
			uc.metrics.RecordError("store")
			uc.logger.Error("report store failed", applogger.String("run_id", report.RunID), applogger.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishReport(ctx, report.WithoutSeries()); err != nil {
			uc.metrics.RecordError("publish")
			uc.logger.Error("report publish failed", applogger.String("run_id", report.RunID), applogger.Error(err))
		}
	}
}
