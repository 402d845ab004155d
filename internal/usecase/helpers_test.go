package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

var testDay0 = time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC)

// risingSeries returns n bars whose closes climb by one per bar and whose bodies open half a point lower.
func risingSeries(symbol string, n int) models.PriceSeries {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.PriceBar{
			Time:  testDay0.AddDate(0, 0, i),
			Open:  c - 0.5,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}
}

type stubProvider struct {
	mu      sync.Mutex
	series  map[string]models.PriceSeries
	errs    map[string]error
	periods map[string]repository.Period
	def     int
}

func newStubProvider(defaultBars int) *stubProvider {
	return &stubProvider{
		series:  map[string]models.PriceSeries{},
		errs:    map[string]error{},
		periods: map[string]repository.Period{},
		def:     defaultBars,
	}
}

func (p *stubProvider) Fetch(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.periods[symbol] = period
	if err, ok := p.errs[symbol]; ok {
		return models.PriceSeries{}, err
	}
	if s, ok := p.series[symbol]; ok {
		return s, nil
	}
	return risingSeries(symbol, p.def), nil
}

func (p *stubProvider) requested(symbol string) repository.Period {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.periods[symbol]
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, symbol string) string {
	if n, ok := m[symbol]; ok {
		return n
	}
	return symbol
}

type panicResolver struct{}

func (panicResolver) Resolve(context.Context, string) string { panic("resolver exploded") }

func symbolsN(n int) []models.Symbol {
	out := make([]models.Symbol, n)
	for i := range out {
		out[i] = models.Symbol{Code: fmt.Sprintf("S%03d", i)}
	}
	return out
}

func symbolsOf(codes ...string) []models.Symbol {
	out := make([]models.Symbol, len(codes))
	for i, c := range codes {
		out[i] = models.Symbol{Code: c}
	}
	return out
}

func okOutcome(sym models.Symbol, score int) models.Outcome {
	return models.Succeeded(&models.AnalysisResult{Symbol: sym.Code, Name: sym.Code, Score: score})
}

func outcomeSymbols(rr RunResult) (results, failures []string) {
	for _, r := range rr.Results {
		results = append(results, r.Symbol)
	}
	for _, f := range rr.Failures {
		failures = append(failures, f.Symbol)
	}
	return results, failures
}
