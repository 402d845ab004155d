package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

const (
	runsTable     = "screen_runs"
	resultsTable  = "screen_results"
	failuresTable = "screen_failures"
)

// Schema returns idempotent DDL for the screening tables.
func Schema(database string) []string {
	db := database
	if db == "" {
		db = "default"
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	run_id String, market LowCardinality(String), period LowCardinality(String),
	started_at DateTime64(3, 'UTC'), finished_at DateTime64(3, 'UTC'),
	total UInt32, succeeded UInt32, failed UInt32,
	sentiment Float64, sentiment_label String
) ENGINE = MergeTree ORDER BY (market, started_at)`, db, runsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	run_id String, market LowCardinality(String), period LowCardinality(String), finished_at DateTime64(3, 'UTC'),
	rank UInt32, symbol String, name String, price Float64, score UInt8,
	golden_cross UInt8, above_short_mas UInt8, support_125 UInt8, support_count UInt8, trend_stable UInt8
) ENGINE = MergeTree ORDER BY (market, symbol, finished_at)`, db, resultsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	run_id String, market LowCardinality(String), finished_at DateTime64(3, 'UTC'),
	symbol String, kind LowCardinality(String), message String
) ENGINE = MergeTree ORDER BY (market, finished_at)`, db, failuresTable),
	}
}

// ClickHouseResultStore persists screening reports to ClickHouse.
type ClickHouseResultStore struct {
	db        *sql.DB
	database  string
	chunkSize int
}

var _ repository.ResultStore = (*ClickHouseResultStore)(nil)

func NewClickHouseResultStore(db *sql.DB, database string) *ClickHouseResultStore {
	if database == "" {
		database = "default"
	}
	return &ClickHouseResultStore{db: db, database: database, chunkSize: 1000}
}

func (s *ClickHouseResultStore) table(name string) string {
	return s.database + "." + name
}

// SaveReport writes the run row, then ranked results and failures as multi-row inserts.
func (s *ClickHouseResultStore) SaveReport(ctx context.Context, r *models.ScreenReport) error {
	if r == nil {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (run_id, market, period, started_at, finished_at, total, succeeded, failed, sentiment, sentiment_label) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table(runsTable))
	if _, err := s.db.ExecContext(ctx, q,
		r.RunID, r.Market, r.Period, r.StartedAt, r.FinishedAt,
		uint32(r.Total), uint32(r.Succeeded), uint32(r.Failed),
		r.Sentiment.Value, r.Sentiment.Label,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	if err := s.insertResults(ctx, r); err != nil {
		return err
	}
	return s.insertFailures(ctx, r)
}

func (s *ClickHouseResultStore) insertResults(ctx context.Context, r *models.ScreenReport) error {
	const cols = "(run_id, market, period, finished_at, rank, symbol, name, price, score, golden_cross, above_short_mas, support_125, support_count, trend_stable)"
	for start := 0; start < len(r.Ranked); start += s.chunkSize {
		end := min(start+s.chunkSize, len(r.Ranked))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, rr := range r.Ranked[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			sig := rr.Signals
			args = append(args,
				r.RunID, r.Market, r.Period, r.FinishedAt,
				uint32(rr.Rank), rr.Symbol, rr.Name, rr.Price, uint8(rr.Score),
				flag(sig.GoldenCross), flag(sig.AboveShortMAs), flag(sig.Support125), uint8(sig.SupportCount), flag(sig.TrendStable),
			)
		}
		q := fmt.Sprintf("INSERT INTO %s %s VALUES %s", s.table(resultsTable), cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert results %s: %w", r.RunID, err)
		}
	}
	return nil
}

func (s *ClickHouseResultStore) insertFailures(ctx context.Context, r *models.ScreenReport) error {
	for start := 0; start < len(r.Failures); start += s.chunkSize {
		end := min(start+s.chunkSize, len(r.Failures))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, f := range r.Failures[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, r.RunID, r.Market, r.FinishedAt, f.Symbol, string(f.Kind), f.Message)
		}
		q := fmt.Sprintf("INSERT INTO %s (run_id, market, finished_at, symbol, kind, message) VALUES %s", s.table(failuresTable), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert failures %s: %w", r.RunID, err)
		}
	}
	return nil
}

func (s *ClickHouseResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseResultStore) Close() error { return nil }

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
