package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"MomentumScan/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"5m"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"30s"`
		RunsPerMinute   float64       `yaml:"runs_per_minute" default:"6"`
		RunBurst        int           `yaml:"run_burst" default:"2"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Screener struct {
		Workers       int           `yaml:"workers" default:"8"`
		BatchSize     int           `yaml:"batch_size" default:"20"`
		BatchPause    time.Duration `yaml:"batch_pause" default:"1s"`
		TaskTimeout   time.Duration `yaml:"task_timeout" default:"30s"`
		BatchTimeout  time.Duration `yaml:"batch_timeout" default:"3m"`
		MinBars       int           `yaml:"min_bars" default:"125"`
		DefaultPeriod string        `yaml:"default_period" default:"1y"`
		DefaultTop    int           `yaml:"default_top" default:"20"`
		Markets       []string      `yaml:"markets" default:"[\"kospi\",\"kosdaq\",\"sp500\",\"nasdaq\"]"`
		IncludeMA     bool          `yaml:"include_ma" default:"true"`
	} `yaml:"screener"`
	Yahoo struct {
		BaseURL    string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Timeout    time.Duration `yaml:"timeout" default:"20s"`
		RatePerSec float64       `yaml:"rate_per_sec" default:"5"`
		Burst      int           `yaml:"burst" default:"5"`
		Retries    int           `yaml:"retries" default:"2"`
		Backoff    time.Duration `yaml:"backoff" default:"500ms"`
		NameTTL    time.Duration `yaml:"name_ttl" default:"24h"`
	} `yaml:"yahoo"`
	Breaker struct {
		ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"5"`
		MinRequests         uint32        `yaml:"min_requests" default:"20"`
		FailureRatio        float64       `yaml:"failure_ratio" default:"0.5"`
		Interval            time.Duration `yaml:"interval" default:"1m"`
		OpenTimeout         time.Duration `yaml:"open_timeout" default:"30s"`
	} `yaml:"breaker"`
	Universe struct {
		Limit        int                 `yaml:"limit" default:"50"`
		NaverURL     string              `yaml:"naver_url" default:"https://finance.naver.com/sise/sise_market_sum.nhn"`
		WikipediaURL string              `yaml:"wikipedia_url" default:"https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"`
		MemoTTL      time.Duration       `yaml:"memo_ttl" default:"6h"`
		Static       map[string][]string `yaml:"static"`
	} `yaml:"universe"`
	Sentiment struct {
		Enabled  bool          `yaml:"enabled" default:"true"`
		BaseURL  string        `yaml:"base_url" default:"https://production.dataviz.cnn.io/index/fearandgreed"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"10m"`
	} `yaml:"sentiment"`
	Cache struct {
		Backend   string        `yaml:"backend" default:"memory"`
		SeriesTTL time.Duration `yaml:"series_ttl" default:"15m"`
		ReportTTL time.Duration `yaml:"report_ttl" default:"24h"`
		Redis     struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"momentumscan:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"momentum"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		InitSchema       bool          `yaml:"init_schema" default:"true"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"momentumscan.reports"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchBytes   int           `yaml:"batch_bytes" default:"4194304"`
		AutoCreate   bool          `yaml:"auto_create_topic"`
	} `yaml:"kafka"`
	Schedule struct {
		Enabled    bool     `yaml:"enabled"`
		Spec       string   `yaml:"spec" default:"0 40 15 * * 1-5"`
		TimeZone   string   `yaml:"timezone" default:"Asia/Seoul"`
		Markets    []string `yaml:"markets" default:"[\"kospi\",\"kosdaq\"]"`
		Period     string   `yaml:"period" default:"1y"`
		RunOnStart bool     `yaml:"run_on_start"`
	} `yaml:"schedule"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file (if path is set), then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		c   *Config
		err error
	)
	if path != "" {
		c, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = Default()
	}

	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("MARKETS"); v != "" {
		c.Screener.Markets = splitList(v)
	}
	if v := getenv("PERIOD"); v != "" {
		c.Screener.DefaultPeriod = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	c.Screener.Workers = util.ParseIntDefault(getenv("WORKERS"), c.Screener.Workers)
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.Redis.Addr = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validPeriods = map[string]bool{"1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true, "3y": true, "5y": true, "max": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be >= 1")
	}
	if c.Screener.BatchSize < 1 {
		return fmt.Errorf("screener.batch_size must be >= 1")
	}
	if c.Screener.BatchPause < 0 {
		return fmt.Errorf("screener.batch_pause must not be negative")
	}
	if c.Screener.TaskTimeout <= 0 || c.Screener.BatchTimeout <= 0 {
		return fmt.Errorf("screener timeouts must be positive")
	}
	// Every task of a batch must get its full timeout even when each wave of workers hangs.
	waves := (c.Screener.BatchSize + c.Screener.Workers - 1) / c.Screener.Workers
	if budget := c.Screener.TaskTimeout * time.Duration(waves); budget > c.Screener.BatchTimeout {
		return fmt.Errorf("screener.batch_timeout %s is shorter than task_timeout x %d waves (%s)",
			c.Screener.BatchTimeout, waves, budget)
	}
	if c.Screener.MinBars < 1 {
		return fmt.Errorf("screener.min_bars must be >= 1")
	}
	if !validPeriods[c.Screener.DefaultPeriod] {
		return fmt.Errorf("screener.default_period '%s' is not supported", c.Screener.DefaultPeriod)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Schedule.Enabled {
		if c.Schedule.Spec == "" {
			return fmt.Errorf("schedule.spec is required when schedule is enabled")
		}
		if len(c.Schedule.Markets) == 0 {
			return fmt.Errorf("schedule.markets cannot be empty when schedule is enabled")
		}
		if !validPeriods[c.Schedule.Period] {
			return fmt.Errorf("schedule.period '%s' is not supported", c.Schedule.Period)
		}
	}
	return nil
}
