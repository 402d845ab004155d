package sentiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/service/cache"
	xhttp "MomentumScan/pkg/http"
	"MomentumScan/pkg/util"
)

const DefaultBaseURL = "https://production.dataviz.cnn.io/index/fearandgreed"

type graphData struct {
	FearAndGreed struct {
		Score     float64 `json:"score"`
		Rating    string  `json:"rating"`
		Timestamp string  `json:"timestamp"`
	} `json:"fear_and_greed"`
	Historical struct {
		Data []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"data"`
	} `json:"fear_and_greed_historical"`
}

// CNN reads the Fear & Greed index from CNN's graph data endpoint.
type CNN struct {
	http    *xhttp.Client
	baseURL string
	memo    *cache.TTLCache
	ttl     time.Duration
	now     func() time.Time
}

var _ repository.SentimentIndexProvider = (*CNN)(nil)

type Option func(*CNN)

func WithBaseURL(u string) Option {
	return func(c *CNN) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *CNN) { c.http = h }
}

// WithCacheTTL memoizes responses per start date. Zero disables it.
func WithCacheTTL(d time.Duration) Option {
	return func(c *CNN) { c.ttl = d }
}

func withClock(now func() time.Time) Option {
	return func(c *CNN) { c.now = now }
}

func NewCNN(opts ...Option) *CNN {
	c := &CNN{
		baseURL: DefaultBaseURL,
		memo:    cache.NewTTLCache(),
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	return c
}

// Current returns today's score clamped to [0,100] and CNN's rating text.
func (c *CNN) Current(ctx context.Context) (float64, string, error) {
	g, err := c.graph(ctx, util.DayStart(c.now()))
	if err != nil {
		return 0, "", err
	}
	return clamp(g.FearAndGreed.Score), g.FearAndGreed.Rating, nil
}

// History returns daily points covering period, oldest first.
func (c *CNN) History(ctx context.Context, period repository.Period) ([]models.SentimentPoint, error) {
	from := util.DaysBefore(c.now(), repository.DisplayDays(period))
	g, err := c.graph(ctx, from)
	if err != nil {
		return nil, err
	}
	out := make([]models.SentimentPoint, 0, len(g.Historical.Data))
	for _, p := range g.Historical.Data {
		t := time.UnixMilli(int64(p.X)).UTC()
		if t.Before(from) {
			continue
		}
		out = append(out, models.SentimentPoint{Time: t, Value: clamp(p.Y)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (c *CNN) graph(ctx context.Context, from time.Time) (*graphData, error) {
	day := from.Format("2006-01-02")
	if c.ttl > 0 {
		if v, ok := c.memo.Get(day); ok {
			return v.(*graphData), nil
		}
	}
	var g graphData
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:     fmt.Sprintf("%s/graphdata/%s", c.baseURL, day),
		Headers: map[string]string{"Accept": "application/json", "Referer": "https://edition.cnn.com/"},
	}, &g)
	if err != nil {
		return nil, fmt.Errorf("fear and greed: %w", err)
	}
	if c.ttl > 0 {
		c.memo.Set(day, &g, c.ttl)
	}
	return &g, nil
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return models.NeutralSentiment
	}
	return math.Max(0, math.Min(100, v))
}
