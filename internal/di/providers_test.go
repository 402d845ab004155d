package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "MomentumScan/internal/repository"
	"MomentumScan/internal/service/cache"
	"MomentumScan/internal/service/sentiment"
	"MomentumScan/pkg/config"
	applogger "MomentumScan/pkg/logger"
)

func TestInitializeWithDefaults(t *testing.T) {
	cfg := config.Default()

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	cleanup()

	uc, cleanup, err := InitializeScreen(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Contains(t, uc.Markets(), "kospi")
	assert.Contains(t, uc.Markets(), "nasdaq")
}

func TestDisabledBackendsFallBackToNoops(t *testing.T) {
	cfg := config.Default()
	log := applogger.Nop()

	client, cleanup, err := ProvideClickHouseClient(cfg, log)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, client)
	assert.IsType(t, internalrepo.NoopStore{}, ProvideResultStore(client))

	pub, cleanup2, err := ProvideReportPublisher(cfg, ProvideRegistry(), log)
	require.NoError(t, err)
	defer cleanup2()
	assert.IsType(t, internalrepo.NoopPublisher{}, pub)

	sched, err := ProvideScheduler(cfg, nil, log)
	require.NoError(t, err)
	assert.Nil(t, sched)
}

func TestProvideBytesCacheMemory(t *testing.T) {
	bc, cleanup, err := ProvideBytesCache(config.Default(), applogger.Nop())
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &cache.TTLCache{}, bc)
}

func TestProvideSentimentDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Sentiment.Enabled = false
	assert.Equal(t, sentiment.Static{Value: 50, Rating: "Neutral"}, ProvideSentiment(cfg))

	cfg.Sentiment.Enabled = true
	assert.IsType(t, &sentiment.CNN{}, ProvideSentiment(cfg))
}

func TestProvidePriceProviderWithoutSeriesCache(t *testing.T) {
	cfg := config.Default()
	log := applogger.Nop()
	y := ProvideYahooClient(cfg, ProvideBreaker(cfg), log)

	assert.IsType(t, &cache.SeriesCache{}, ProvidePriceProvider(cfg, y, cache.NewTTLCache(), log))

	cfg.Cache.SeriesTTL = 0
	assert.Same(t, y, ProvidePriceProvider(cfg, y, cache.NewTTLCache(), log))
}

func TestProvideSchedulerRejectsBadSpec(t *testing.T) {
	cfg := config.Default()
	cfg.Schedule.Enabled = true
	cfg.Schedule.Spec = "every day"

	_, err := ProvideScheduler(cfg, nil, applogger.Nop())
	require.Error(t, err)
}
