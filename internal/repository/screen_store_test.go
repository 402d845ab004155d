package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MomentumScan/internal/domain/models"
)

func sampleReport() *models.ScreenReport {
	at := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	return &models.ScreenReport{
		RunID:      "run-1",
		Market:     "kospi",
		Period:     "1y",
		StartedAt:  at,
		FinishedAt: at.Add(time.Minute),
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		Ranked: []models.RankedResult{
			{Rank: 1, AnalysisResult: models.AnalysisResult{Symbol: "005930.KS", Name: "Samsung", Price: 71000, Score: 75,
				Signals: models.Signals{GoldenCross: true, AboveShortMAs: true, TrendStable: true, SupportCount: 1}}},
			{Rank: 2, AnalysisResult: models.AnalysisResult{Symbol: "000660.KS", Name: "SK hynix", Price: 150000, Score: 25,
				Signals: models.Signals{Support125: true, SupportCount: 3}}},
		},
		Failures:  []models.AnalysisFailure{{Symbol: "035420.KS", Kind: models.FailureFetch, Message: "status 404"}},
		Sentiment: models.Sentiment{Value: 63, Label: "Greed"},
	}
}

func TestSaveReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewClickHouseResultStore(db, "momentum")
	r := sampleReport()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO momentum.screen_runs")).
		WithArgs("run-1", "kospi", "1y", r.StartedAt, r.FinishedAt, uint32(3), uint32(2), uint32(1), 63.0, "Greed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO momentum.screen_results")).
		WithArgs(
			"run-1", "kospi", "1y", r.FinishedAt, uint32(1), "005930.KS", "Samsung", 71000.0, uint8(75),
			uint8(1), uint8(1), uint8(0), uint8(1), uint8(1),
			"run-1", "kospi", "1y", r.FinishedAt, uint32(2), "000660.KS", "SK hynix", 150000.0, uint8(25),
			uint8(0), uint8(0), uint8(1), uint8(3), uint8(0),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO momentum.screen_failures")).
		WithArgs("run-1", "kospi", r.FinishedAt, "035420.KS", "fetch_error", "status 404").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveReport(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportChunksResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewClickHouseResultStore(db, "")
	store.chunkSize = 1
	r := sampleReport()
	r.Failures = nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO default.screen_runs")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO default.screen_results")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO default.screen_results")).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveReport(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewClickHouseResultStore(db, "momentum")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO momentum.screen_runs")).WillReturnError(errors.New("table missing"))

	err = store.SaveReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range Schema("momentum") {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}

type capturePublisher struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (c *capturePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	c.topic, c.key, c.value = topic, key, value
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

func TestKafkaReportPublisher(t *testing.T) {
	cp := &capturePublisher{}
	p := NewKafkaReportPublisher(cp, "momentum.reports")
	r := sampleReport()

	require.NoError(t, p.PublishReport(context.Background(), r))
	assert.Equal(t, "momentum.reports", cp.topic)
	assert.Equal(t, "kospi:1y", string(cp.key))
	assert.Same(t, r, cp.value)

	cp.err = errors.New("broker down")
	assert.Error(t, p.PublishReport(context.Background(), r))
	assert.NoError(t, p.PublishReport(context.Background(), nil))
}
