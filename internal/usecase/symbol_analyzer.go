package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/domain/service"
	applogger "MomentumScan/pkg/logger"
	"MomentumScan/pkg/metrics"

	"github.com/shopspring/decimal"
)

// DefaultMinBars is the shortest extended series that is analyzed.
const DefaultMinBars = 125

// Analyzer turns one symbol into an outcome. Implementations never return without a result or a failure.
type Analyzer interface {
	Analyze(ctx context.Context, sym models.Symbol, period repository.Period) models.Outcome
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, sym models.Symbol, period repository.Period) models.Outcome

func (f AnalyzerFunc) Analyze(ctx context.Context, sym models.Symbol, period repository.Period) models.Outcome {
	return f(ctx, sym, period)
}

// SymbolAnalyzer fetches an extended series, computes indicators on it and scores the display window.
type SymbolAnalyzer struct {
	provider repository.PriceSeriesProvider
	resolver repository.SymbolNameResolver
	engine   service.IndicatorEngine
	scorer   service.Scorer
	minBars  int
	withMA   bool
	metrics  repository.Metrics
	logger   *applogger.Logger
}

// AnalyzerOption configures SymbolAnalyzer.
type AnalyzerOption func(*SymbolAnalyzer)

// WithNameResolver sets the resolver used when the universe carries no name.
func WithNameResolver(r repository.SymbolNameResolver) AnalyzerOption {
	return func(a *SymbolAnalyzer) { a.resolver = r }
}

// WithMinBars overrides DefaultMinBars.
func WithMinBars(n int) AnalyzerOption {
	return func(a *SymbolAnalyzer) {
		if n > 0 {
			a.minBars = n
		}
	}
}

// WithMovingAverages attaches the display-window averages to every result.
func WithMovingAverages(on bool) AnalyzerOption {
	return func(a *SymbolAnalyzer) { a.withMA = on }
}

func WithAnalyzerMetrics(m repository.Metrics) AnalyzerOption {
	return func(a *SymbolAnalyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithAnalyzerLogger(l *applogger.Logger) AnalyzerOption {
	return func(a *SymbolAnalyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewSymbolAnalyzer(
	provider repository.PriceSeriesProvider,
	engine service.IndicatorEngine,
	scorer service.Scorer,
	opts ...AnalyzerOption,
) *SymbolAnalyzer {
	a := &SymbolAnalyzer{
		provider: provider,
		engine:   engine,
		scorer:   scorer,
		minBars:  DefaultMinBars,
		metrics:  metrics.Nop{},
		logger:   applogger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never panics and never returns an empty outcome.
func (a *SymbolAnalyzer) Analyze(ctx context.Context, sym models.Symbol, period repository.Period) (out models.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = models.Failed(sym.Code, models.FailureUnknown, fmt.Sprintf("panic: %v", r))
		}
		a.observe(out, time.Since(start))
	}()

	if !repository.IsValidPeriod(period) {
		period = repository.DefaultPeriod()
	}

	series, err := a.provider.Fetch(ctx, sym.Code, repository.ExtendedFetchPeriod(period))
	if err != nil {
		kind := models.FailureFetch
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = models.FailureTimeout
		}
		return models.Failed(sym.Code, kind, err.Error())
	}
	if series.Len() == 0 {
		return models.Failed(sym.Code, models.FailureFetch, "empty price series")
	}
	if series.Len() < a.minBars {
		return models.Failed(sym.Code, models.FailureInsufficientData,
			fmt.Sprintf("insufficient data: %d bars, need %d", series.Len(), a.minBars))
	}

	// Indicators need the full history; trimming first would starve MA125.
	ind := a.engine.Compute(series)
	days := repository.DisplayDays(period)
	view := series.Tail(days)
	viewInd := ind.Tail(days)

	sig := a.engine.Evaluate(view, viewInd)
	last, _ := view.Last()
	if math.IsNaN(last.Close) || math.IsInf(last.Close, 0) {
		return models.Failed(sym.Code, models.FailureUnknown, "latest close is not a finite number")
	}

	res := &models.AnalysisResult{
		Symbol:  sym.Code,
		Name:    a.displayName(ctx, sym),
		Price:   decimal.NewFromFloat(last.Close).Round(2).InexactFloat64(),
		Signals: sig,
		Score:   a.scorer.Score(sig),
		Period:  string(period),
		Series:  view,
	}
	if a.withMA {
		res.MA = models.NewMAView(viewInd)
	}
	return models.Succeeded(res)
}

func (a *SymbolAnalyzer) displayName(ctx context.Context, sym models.Symbol) string {
	if sym.Name != "" {
		return sym.Name
	}
	if a.resolver == nil {
		return sym.Code
	}
	name := safeResolve(ctx, a.resolver, sym.Code)
	if name == "" {
		return sym.Code
	}
	return name
}

// safeResolve shields the analysis from a misbehaving resolver.
func safeResolve(ctx context.Context, r repository.SymbolNameResolver, symbol string) (name string) {
	defer func() {
		if rec := recover(); rec != nil {
			name = symbol
		}
	}()
	return r.Resolve(ctx, symbol)
}

func (a *SymbolAnalyzer) observe(out models.Outcome, took time.Duration) {
	a.metrics.RecordLatency("analyze", took.Seconds())
	if out.Failure != nil {
		a.metrics.RecordAnalysis("failure", string(out.Failure.Kind))
		a.logger.Debug("analysis failed",
			applogger.String("symbol", out.Failure.Symbol),
			applogger.String("kind", string(out.Failure.Kind)),
			applogger.String("message", out.Failure.Message),
			applogger.Duration("took_ms", took),
		)
		return
	}
	a.metrics.RecordAnalysis("success", "")
	a.logger.Debug("analysis done",
		applogger.String("symbol", out.Result.Symbol),
		applogger.Int("score", out.Result.Score),
		applogger.Duration("took_ms", took),
	)
}
