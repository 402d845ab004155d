package models

import "time"

// Symbol is one universe entry. Name may be empty when the source has none.
type Symbol struct {
	Code string `json:"symbol"`
	Name string `json:"name,omitempty"`
}

// RankedResult is an AnalysisResult with its 1-based position in the ranking.
type RankedResult struct {
	Rank int `json:"rank"`
	AnalysisResult
}

// SentimentPoint is one day of the sentiment index history.
type SentimentPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Sentiment is the pass-through market mood snapshot shown next to a run.
type Sentiment struct {
	Value    float64          `json:"value"`
	Label    string           `json:"label"`
	Rating   string           `json:"rating,omitempty"`
	Fallback bool             `json:"fallback,omitempty"`
	History  []SentimentPoint `json:"history,omitempty"`
}

// ScreenReport is the complete outcome of one screening run.
type ScreenReport struct {
	RunID      string            `json:"run_id"`
	Market     string            `json:"market"`
	Period     string            `json:"period"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Ranked     []RankedResult    `json:"ranked"`
	Failures   []AnalysisFailure `json:"failures,omitempty"`
	Sentiment  Sentiment         `json:"sentiment"`
}

// Top returns a copy of the report trimmed to the first n ranked results.
func (r *ScreenReport) Top(n int) *ScreenReport {
	if r == nil || n <= 0 || n >= len(r.Ranked) {
		return r
	}
	cp := *r
	cp.Ranked = r.Ranked[:n]
	return &cp
}

// WithoutSeries drops per-symbol series and averages, for sinks that only need the ranking.
func (r *ScreenReport) WithoutSeries() *ScreenReport {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Ranked = make([]RankedResult, len(r.Ranked))
	for i, rr := range r.Ranked {
		rr.Series = PriceSeries{Symbol: rr.Symbol}
		rr.MA = nil
		cp.Ranked[i] = rr
	}
	return &cp
}

// NeutralSentiment is the value used when the index is unavailable.
const NeutralSentiment = 50.0

// SentimentLabel names the band a sentiment value falls into.
func SentimentLabel(v float64) string {
	switch {
	case v >= 75:
		return "Extreme Greed"
	case v >= 55:
		return "Greed"
	case v >= 45:
		return "Neutral"
	case v >= 25:
		return "Fear"
	default:
		return "Extreme Fear"
	}
}
