package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

type countingProvider struct {
	calls  int
	series models.PriceSeries
	err    error
}

func (p *countingProvider) Fetch(_ context.Context, symbol string, _ repository.Period) (models.PriceSeries, error) {
	p.calls++
	if p.err != nil {
		return models.PriceSeries{}, p.err
	}
	s := p.series
	s.Symbol = symbol
	return s, nil
}

func sampleSeries() models.PriceSeries {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return models.PriceSeries{Bars: []models.PriceBar{
		{Time: day, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: day.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 120},
	}}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("a", "x", 20*time.Millisecond)
	c.Set("b", "y", 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheBytesIgnoresOtherValues(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	c.Set("k", 42, 0)
	_, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

func TestTTLCacheSweepAndDelete(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	c := NewTTLCache(WithClock(func() time.Time { return now }))
	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	c.Set("keep", 3, 0)
	c.Set("gone", 4, 0)
	c.Delete("gone")

	now = now.Add(time.Minute)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCacheBytesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	in := []byte("abc")
	require.NoError(t, c.SetBytes(ctx, "k", in, 0))
	in[0] = 'x'

	out, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), out)
	out[1] = 'y'

	again, _, _ := c.GetBytes(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestSeriesCacheHitsStoreOnce(t *testing.T) {
	ctx := context.Background()
	p := &countingProvider{series: sampleSeries()}
	c := NewSeriesCache(p, NewTTLCache(), time.Minute, nil)

	first, err := c.Fetch(ctx, "005930.KS", repository.Period1Y)
	require.NoError(t, err)
	second, err := c.Fetch(ctx, "005930.ks", repository.Period1Y)
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, first.Len(), second.Len())
	assert.Equal(t, 11.5, second.Bars[1].Close)

	_, err = c.Fetch(ctx, "005930.KS", repository.Period3Y)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls, "period is part of the key")
}

func TestSeriesCacheDoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	p := &countingProvider{err: errors.New("boom")}
	c := NewSeriesCache(p, NewTTLCache(), time.Minute, nil)

	_, err := c.Fetch(ctx, "AAPL", repository.Period1Y)
	require.Error(t, err)
	_, err = c.Fetch(ctx, "AAPL", repository.Period1Y)
	require.Error(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestSeriesCacheFallsThroughOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()
	p := &countingProvider{series: sampleSeries()}
	c := NewSeriesCache(p, NewRedisCacheWithClient(db, "ms:"), time.Minute, nil)

	mock.ExpectGet("ms:series:AAPL:1y").SetErr(errors.New("connection refused"))
	b, _ := json.Marshal(models.PriceSeries{Symbol: "AAPL", Bars: sampleSeries().Bars})
	mock.ExpectSet("ms:series:AAPL:1y", b, time.Minute).SetVal("OK")

	s, err := c.Fetch(ctx, "AAPL", repository.Period1Y)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, p.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(db, "")
	mock.ExpectGet("missing").RedisNil()

	b, ok, err := rc.GetBytes(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheHealth(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(db, "")
	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(errors.New("connection refused"))

	assert.NoError(t, rc.Health(context.Background()))
	assert.Error(t, rc.Health(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	rc := NewReportCache(NewTTLCache())

	_, ok, err := rc.GetLatest(ctx, "kospi", repository.Period1Y)
	require.NoError(t, err)
	assert.False(t, ok)

	report := &models.ScreenReport{
		RunID:  "run-1",
		Market: "KOSPI",
		Period: "1y",
		Total:  1,
		Ranked: []models.RankedResult{{Rank: 1, AnalysisResult: models.AnalysisResult{Symbol: "005930.KS", Score: 75}}},
	}
	require.NoError(t, rc.SetLatest(ctx, report, time.Minute))

	got, ok, err := rc.GetLatest(ctx, "kospi", repository.Period1Y)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Ranked, 1)
	assert.Equal(t, 75, got.Ranked[0].Score)

	_, ok, err = rc.GetLatest(ctx, "kospi", repository.Period6Mo)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReportCacheRedisGetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewReportCache(NewRedisCacheWithClient(db, ""))
	mock.ExpectGet("report:sp500:1y").SetErr(errors.New("timeout"))

	_, ok, err := rc.GetLatest(context.Background(), "sp500", repository.Period1Y)
	require.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
