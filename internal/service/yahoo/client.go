package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/service/breaker"
	"MomentumScan/internal/service/cache"
	"MomentumScan/internal/service/ratelimit"
	xhttp "MomentumScan/pkg/http"
	applogger "MomentumScan/pkg/logger"
	"MomentumScan/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when Yahoo answers without any bars for a symbol.
var ErrNoData = errors.New("yahoo: no data returned")

// Client fetches daily bars and display names from the Yahoo Finance chart API.
// It implements repository.PriceSeriesProvider and repository.SymbolNameResolver.
type Client struct {
	http    *xhttp.Client
	baseURL string
	limiter *ratelimit.Limiter
	breaker *breaker.Breaker
	retries int
	backoff time.Duration
	names   *cache.TTLCache
	nameTTL time.Duration
	now     func() time.Time
	logger  *applogger.Logger
}

var (
	_ repository.PriceSeriesProvider = (*Client)(nil)
	_ repository.SymbolNameResolver  = (*Client)(nil)
)

// Option configures Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit bounds requests per second against the API host.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = ratelimit.New(rps, burst) }
}

func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithRetries retries 429 and 5xx responses with linear backoff.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
		c.backoff = backoff
	}
}

func WithNameTTL(d time.Duration) Option {
	return func(c *Client) { c.nameTTL = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		retries: 2,
		backoff: 500 * time.Millisecond,
		names:   cache.NewTTLCache(),
		nameTTL: 24 * time.Hour,
		now:     time.Now,
		logger:  applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(20 * time.Second))
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(0, 1)
	}
	if c.breaker == nil {
		c.breaker = breaker.New(breaker.Settings{
			Name:         "yahoo",
			Interval:     time.Minute,
			OpenTimeout:  30 * time.Second,
			IsSuccessful: IsSymbolError,
		})
	}
	return c
}

// Fetch returns daily bars covering period, oldest first.
func (c *Client) Fetch(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	res, err := c.chart(ctx, symbol, c.rangeParams(period))
	if err != nil {
		return models.PriceSeries{}, err
	}
	bars := res.bars()
	if len(bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	if name := res.displayName(); name != "" {
		c.names.Set(symbol, name, c.nameTTL)
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Resolve returns the long name Yahoo reports for symbol, or symbol itself on any failure.
func (c *Client) Resolve(ctx context.Context, symbol string) string {
	if v, ok := c.names.Get(symbol); ok {
		if s, _ := v.(string); s != "" {
			return s
		}
	}
	res, err := c.chart(ctx, symbol, map[string][]string{"range": {"5d"}, "interval": {"1d"}})
	if err != nil {
		c.logger.Debug("name lookup failed", applogger.String("symbol", symbol), applogger.Error(err))
		return symbol
	}
	name := res.displayName()
	if name == "" {
		name = symbol
	}
	c.names.Set(symbol, name, c.nameTTL)
	return name
}

func (c *Client) rangeParams(period repository.Period) map[string][]string {
	q := map[string][]string{"interval": {"1d"}, "includePrePost": {"false"}}
	if period == repository.PeriodMax {
		q["range"] = []string{"max"}
		return q
	}
	now := c.now()
	from := util.DaysBefore(now, repository.DisplayDays(period))
	q["period1"] = []string{strconv.FormatInt(from.Unix(), 10)}
	q["period2"] = []string{strconv.FormatInt(now.Unix(), 10)}
	return q
}

func (c *Client) chart(ctx context.Context, symbol string, query map[string][]string) (*chartResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("yahoo base url: %w", err)
	}
	host := u.Host

	v, err := c.breaker.Execute(func() (any, error) {
		return c.chartWithRetry(ctx, host, symbol, query)
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return nil, fmt.Errorf("yahoo %s: upstream unavailable: %w", symbol, err)
		}
		return nil, err
	}
	return v.(*chartResult), nil
}

func (c *Client) chartWithRetry(ctx context.Context, host, symbol string, query map[string][]string) (*chartResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("yahoo %s: %w", symbol, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
		if err := c.limiter.Wait(ctx, host); err != nil {
			return nil, fmt.Errorf("yahoo %s: rate limit wait: %w", symbol, err)
		}

		res, err := c.fetchChart(ctx, symbol, query)
		if err == nil {
			return res, nil
		}
		lastErr = err
		var se *xhttp.StatusError
		if !errors.As(err, &se) || !se.Retryable() {
			return nil, err
		}
		c.logger.Debug("yahoo retry", applogger.String("symbol", symbol), applogger.Int("status", se.Code), applogger.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (c *Client) fetchChart(ctx context.Context, symbol string, query map[string][]string) (*chartResult, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: query,
		Headers:     map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: unknown symbol: %w", symbol, err)
		}
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: api error: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	return &resp.Chart.Result[0], nil
}

// IsSymbolError reports errors caused by the symbol rather than the upstream being unhealthy.
func IsSymbolError(err error) bool {
	if err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
}
