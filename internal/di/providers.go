package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/handler/api"
	internalrepo "MomentumScan/internal/repository"
	"MomentumScan/internal/scheduler"
	"MomentumScan/internal/service/breaker"
	"MomentumScan/internal/service/cache"
	"MomentumScan/internal/service/sentiment"
	"MomentumScan/internal/service/universe"
	"MomentumScan/internal/service/yahoo"
	"MomentumScan/internal/services/indicators"
	"MomentumScan/internal/services/scoring"
	"MomentumScan/internal/usecase"
	pkgch "MomentumScan/pkg/clickhouse"
	"MomentumScan/pkg/config"
	xhttp "MomentumScan/pkg/http"
	pkgkafka "MomentumScan/pkg/kafka"
	applogger "MomentumScan/pkg/logger"
	"MomentumScan/pkg/metrics"
	"MomentumScan/pkg/server"
)

// ProvideLogger builds the root logger from the logger section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry shared by every collector and /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

// ProvideBreaker guards the price upstream. Unknown symbols do not trip it.
func ProvideBreaker(cfg *config.Config) *breaker.Breaker {
	return breaker.New(breaker.Settings{
		Name:                "yahoo",
		Interval:            cfg.Breaker.Interval,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		MinRequests:         cfg.Breaker.MinRequests,
		FailureRatio:        cfg.Breaker.FailureRatio,
		IsSuccessful:        yahoo.IsSymbolError,
	})
}

// ProvideYahooClient creates the chart client used for prices and display names.
func ProvideYahooClient(cfg *config.Config, br *breaker.Breaker, logger *applogger.Logger) *yahoo.Client {
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Yahoo.Timeout))),
		yahoo.WithRateLimit(cfg.Yahoo.RatePerSec, cfg.Yahoo.Burst),
		yahoo.WithBreaker(br),
		yahoo.WithRetries(cfg.Yahoo.Retries, cfg.Yahoo.Backoff),
		yahoo.WithNameTTL(cfg.Yahoo.NameTTL),
		yahoo.WithLogger(logger),
	)
}

// ProvideBytesCache selects the in-memory or Redis backend.
func ProvideBytesCache(cfg *config.Config, logger *applogger.Logger) (cache.BytesCache, func(), error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewTTLCache(), func() {}, nil
	}

	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.Redis.Addr, err)
	}
	logger.Info("redis cache connected", applogger.String("addr", cfg.Cache.Redis.Addr))

	cleanup := func() {
		if err := rc.Close(); err != nil {
			logger.Warn("redis close error", applogger.Error(err))
		}
	}
	return rc, cleanup, nil
}

// ProvidePriceProvider puts the series cache in front of the chart client when series_ttl is set.
func ProvidePriceProvider(cfg *config.Config, y *yahoo.Client, bc cache.BytesCache, logger *applogger.Logger) repository.PriceSeriesProvider {
	if cfg.Cache.SeriesTTL <= 0 {
		return y
	}
	return cache.NewSeriesCache(y, bc, cfg.Cache.SeriesTTL, logger)
}

// ProvideReportCache keeps the latest report per market and period.
func ProvideReportCache(bc cache.BytesCache) repository.ReportCache {
	return cache.NewReportCache(bc)
}

// ProvideUniverse creates the market list source, with static tags from the universe section.
func ProvideUniverse(cfg *config.Config, logger *applogger.Logger) repository.UniverseSource {
	opts := []universe.Option{
		universe.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))),
		universe.WithNaverURL(cfg.Universe.NaverURL),
		universe.WithWikipediaURL(cfg.Universe.WikipediaURL),
		universe.WithLimit(cfg.Universe.Limit),
		universe.WithMemoTTL(cfg.Universe.MemoTTL),
		universe.WithLogger(logger),
	}
	for tag, codes := range cfg.Universe.Static {
		opts = append(opts, universe.WithStatic(tag, codes))
	}
	return universe.New(opts...)
}

// ProvideSentiment returns the CNN index client, or a neutral constant when disabled.
func ProvideSentiment(cfg *config.Config) repository.SentimentIndexProvider {
	if !cfg.Sentiment.Enabled {
		return sentiment.Static{Value: 50, Rating: "Neutral"}
	}
	return sentiment.NewCNN(
		sentiment.WithBaseURL(cfg.Sentiment.BaseURL),
		sentiment.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Sentiment.Timeout))),
		sentiment.WithCacheTTL(cfg.Sentiment.CacheTTL),
	)
}

// ProvideSymbolAnalyzer wires the indicator engine and scorer behind the price provider.
func ProvideSymbolAnalyzer(
	cfg *config.Config,
	provider repository.PriceSeriesProvider,
	y *yahoo.Client,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.SymbolAnalyzer {
	return usecase.NewSymbolAnalyzer(
		provider,
		indicators.NewEngine(),
		scoring.New(),
		usecase.WithNameResolver(y),
		usecase.WithMinBars(cfg.Screener.MinBars),
		usecase.WithMovingAverages(cfg.Screener.IncludeMA),
		usecase.WithAnalyzerMetrics(m),
		usecase.WithAnalyzerLogger(logger.Named("analyzer")),
	)
}

// ProvideBatchScheduler creates the bounded worker pool.
func ProvideBatchScheduler(cfg *config.Config, a *usecase.SymbolAnalyzer, m repository.Metrics, logger *applogger.Logger) *usecase.BatchScheduler {
	return usecase.NewBatchScheduler(a,
		usecase.WithWorkers(cfg.Screener.Workers),
		usecase.WithBatchSize(cfg.Screener.BatchSize),
		usecase.WithBatchPause(cfg.Screener.BatchPause),
		usecase.WithTimeouts(cfg.Screener.TaskTimeout, cfg.Screener.BatchTimeout),
		usecase.WithSchedulerMetrics(m),
		usecase.WithSchedulerLogger(logger.Named("batch")),
	)
}

// ProvideClickHouseClient connects to ClickHouse when enabled. It returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config, logger *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	logger.Info("clickhouse connected",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database))

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideResultStore persists runs to ClickHouse, or drops them when it is disabled.
func ProvideResultStore(client *pkgch.Client) repository.ResultStore {
	if client == nil {
		return internalrepo.NoopStore{}
	}
	return internalrepo.NewClickHouseResultStore(client.DB(), client.Database())
}

// ProvideReportPublisher publishes runs to Kafka, or drops them when it is disabled.
func ProvideReportPublisher(cfg *config.Config, reg *prometheus.Registry, logger *applogger.Logger) (repository.ReportPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAutoCreateTopic(cfg.Kafka.AutoCreate),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	logger.Info("kafka producer ready",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic))

	pub := internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideScreenUseCase assembles one screening pass with its sinks.
func ProvideScreenUseCase(
	cfg *config.Config,
	u repository.UniverseSource,
	bs *usecase.BatchScheduler,
	sent repository.SentimentIndexProvider,
	store repository.ResultStore,
	pub repository.ReportPublisher,
	rc repository.ReportCache,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.ScreenUseCase {
	return usecase.NewScreenUseCase(u, bs,
		usecase.WithSentiment(sent),
		usecase.WithResultStore(store),
		usecase.WithReportPublisher(pub),
		usecase.WithReportCache(rc, cfg.Cache.ReportTTL),
		usecase.WithScreenMetrics(m),
		usecase.WithScreenLogger(logger.Named("screen")),
	)
}

// ProvideHandler creates the echo API handler. Enabled backends are probed by /healthz.
func ProvideHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	uc *usecase.ScreenUseCase,
	client *pkgch.Client,
	bc cache.BytesCache,
) xhttp.Handler {
	opts := []api.HandlerOption{api.WithRunLimit(cfg.Server.RunsPerMinute, cfg.Server.RunBurst)}
	if client != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", client))
	}
	if hc, ok := bc.(api.HealthChecker); ok {
		opts = append(opts, api.WithHealthCheck("redis", hc))
	}
	return api.NewScreenEchoHandler(logger.Named("api"), uc, opts...)
}

// ProvideHTTPServer creates the echo server with /metrics served from reg.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, reg *prometheus.Registry, logger *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithLogger(logger.Named("http")),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideScheduler creates the cron job when schedule.enabled is set. It returns nil otherwise.
func ProvideScheduler(cfg *config.Config, uc *usecase.ScreenUseCase, logger *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	s, err := scheduler.New(uc, scheduler.Config{
		Spec:     cfg.Schedule.Spec,
		TimeZone: cfg.Schedule.TimeZone,
		Markets:  cfg.Schedule.Markets,
		Period:   repository.NormalizePeriod(cfg.Schedule.Period),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, sched *scheduler.Scheduler, logger *applogger.Logger) *server.App {
	return server.New(cfg, srv, sched, logger)
}
