package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/service/cache"
	xhttp "MomentumScan/pkg/http"
	applogger "MomentumScan/pkg/logger"
)

const (
	TagKOSPI  = "kospi"
	TagKOSDAQ = "kosdaq"
	TagSP500  = "sp500"
	TagNASDAQ = "nasdaq"

	DefaultLimit = 50

	DefaultNaverURL     = "https://finance.naver.com/sise/sise_market_sum.nhn"
	DefaultWikipediaURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
)

// Source resolves market tags into symbol lists by scraping public listings.
// Scrape failures degrade to a short fallback list for the market.
type Source struct {
	http         *xhttp.Client
	naverURL     string
	wikipediaURL string
	limit        int
	static       map[string][]models.Symbol
	memo         *cache.TTLCache
	memoTTL      time.Duration
	logger       *applogger.Logger
}

var _ repository.UniverseSource = (*Source)(nil)

// Option configures Source.
type Option func(*Source)

func WithHTTPClient(h *xhttp.Client) Option {
	return func(s *Source) { s.http = h }
}

func WithNaverURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.naverURL = u
		}
	}
}

func WithWikipediaURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.wikipediaURL = u
		}
	}
}

func WithLimit(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithStatic declares an additional tag backed by a fixed symbol list. It overrides built-in tags.
func WithStatic(tag string, codes []string) Option {
	return func(s *Source) {
		syms := make([]models.Symbol, 0, len(codes))
		for _, c := range codes {
			if c = strings.TrimSpace(c); c != "" {
				syms = append(syms, models.Symbol{Code: c})
			}
		}
		s.static[strings.ToLower(tag)] = syms
	}
}

// WithMemoTTL keeps scraped lists for d. Zero disables memoization.
func WithMemoTTL(d time.Duration) Option {
	return func(s *Source) { s.memoTTL = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Source {
	s := &Source{
		naverURL:     DefaultNaverURL,
		wikipediaURL: DefaultWikipediaURL,
		limit:        DefaultLimit,
		static:       make(map[string][]models.Symbol),
		memo:         cache.NewTTLCache(),
		logger:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = xhttp.NewClient(xhttp.WithTimeout(15 * time.Second))
	}
	return s
}

// Tags lists every tag Universe understands.
func (s *Source) Tags() []string {
	tags := []string{TagKOSPI, TagKOSDAQ, TagSP500, TagNASDAQ}
	extra := make([]string, 0, len(s.static))
	for t := range s.static {
		known := false
		for _, b := range tags {
			if b == t {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(tags, extra...)
}

// Universe returns the symbols for tag. Unknown tags yield an empty list and no error.
func (s *Source) Universe(ctx context.Context, tag string) ([]models.Symbol, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if syms, ok := s.static[tag]; ok {
		return clip(syms, s.limit), nil
	}

	if s.memoTTL > 0 {
		if v, ok := s.memo.Get(tag); ok {
			return v.([]models.Symbol), nil
		}
	}

	var (
		syms []models.Symbol
		err  error
	)
	switch tag {
	case TagKOSPI:
		syms, err = s.naver(ctx, 0, ".KS")
	case TagKOSDAQ:
		syms, err = s.naver(ctx, 1, ".KQ")
	case TagSP500:
		syms, err = s.wikipedia(ctx)
	case TagNASDAQ:
		syms = symbolsOf(nasdaqLargeCaps)
	default:
		return nil, nil
	}

	if err != nil || len(syms) == 0 {
		reason := "no rows"
		if err != nil {
			reason = err.Error()
		}
		s.logger.Warn("universe scrape failed, using fallback list",
			applogger.String("tag", tag), applogger.String("reason", reason))
		return symbolsOf(fallbacks[tag]), nil
	}

	syms = clip(syms, s.limit)
	if s.memoTTL > 0 {
		s.memo.Set(tag, syms, s.memoTTL)
	}
	return syms, nil
}

func (s *Source) get(ctx context.Context, rawURL string, query map[string][]string) ([]byte, error) {
	var body []byte
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         rawURL,
		QueryParams: query,
		Headers:     map[string]string{"Accept": "text/html"},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	return body, nil
}

func clip(syms []models.Symbol, n int) []models.Symbol {
	if n > 0 && len(syms) > n {
		return syms[:n]
	}
	return syms
}

func symbolsOf(codes []string) []models.Symbol {
	out := make([]models.Symbol, len(codes))
	for i, c := range codes {
		out[i] = models.Symbol{Code: c}
	}
	return out
}
