package repository

import (
	"context"
	"time"

	"MomentumScan/internal/domain/models"
)

// PriceSeriesProvider returns ascending daily bars covering period.
type PriceSeriesProvider interface {
	Fetch(ctx context.Context, symbol string, period Period) (models.PriceSeries, error)
}

// SymbolNameResolver returns a display name. It never fails; the symbol itself is the fallback.
type SymbolNameResolver interface {
	Resolve(ctx context.Context, symbol string) string
}

// SentimentIndexProvider supplies the market mood index shown next to a run.
type SentimentIndexProvider interface {
	Current(ctx context.Context) (value float64, rating string, err error)
	History(ctx context.Context, period Period) ([]models.SentimentPoint, error)
}

// UniverseSource lists the symbols of a market or sector tag. A partial or empty list is not an error.
type UniverseSource interface {
	Universe(ctx context.Context, tag string) ([]models.Symbol, error)
	Tags() []string
}

// ResultStore persists finished runs.
type ResultStore interface {
	SaveReport(ctx context.Context, r *models.ScreenReport) error
	Health(ctx context.Context) error
	Close() error
}

// ReportPublisher broadcasts finished runs.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.ScreenReport) error
	Close() error
}

// ReportCache keeps the latest report per market and period.
type ReportCache interface {
	GetLatest(ctx context.Context, market string, period Period) (*models.ScreenReport, bool, error)
	SetLatest(ctx context.Context, r *models.ScreenReport, ttl time.Duration) error
}

type Metrics interface {
	RecordAnalysis(outcome string, kind string)
	RecordScore(market, symbol string, score int)
	RecordRun(market string, succeeded, failed int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
