package models

import (
	"math"
	"time"
)

// IndicatorSet holds moving averages aligned index-by-index with the source series.
// Undefined values are NaN.
type IndicatorSet struct {
	MA20  []float64 `json:"-"`
	MA60  []float64 `json:"-"`
	MA125 []float64 `json:"-"`
}

func (s IndicatorSet) Len() int { return len(s.MA20) }

// Tail keeps the last n points of every average, matching PriceSeries.Tail.
func (s IndicatorSet) Tail(n int) IndicatorSet {
	if n <= 0 || n >= len(s.MA20) {
		return s
	}
	from := len(s.MA20) - n
	return IndicatorSet{MA20: s.MA20[from:], MA60: s.MA60[from:], MA125: s.MA125[from:]}
}

// Signals are the four boolean facts plus the values the checks report alongside them.
type Signals struct {
	GoldenCross      bool       `json:"golden_cross"`
	GoldenCrossIndex int        `json:"-"`
	GoldenCrossDate  *time.Time `json:"golden_cross_date,omitempty"`
	AboveShortMAs    bool       `json:"above_short_mas"`
	Support125       bool       `json:"support_125"`
	SupportCount     int        `json:"support_count"`
	TrendStable      bool       `json:"trend_stable"`
}

// FlagCount returns how many of the four flags are set.
func (s Signals) FlagCount() int {
	n := 0
	for _, f := range []bool{s.GoldenCross, s.AboveShortMAs, s.Support125, s.TrendStable} {
		if f {
			n++
		}
	}
	return n
}

// AnalysisResult is the successful outcome for one symbol.
type AnalysisResult struct {
	Symbol  string      `json:"symbol"`
	Name    string      `json:"name"`
	Price   float64     `json:"price"`
	Signals Signals     `json:"signals"`
	Score   int         `json:"score"`
	Period  string      `json:"period"`
	Series  PriceSeries `json:"series"`
	MA      *MAView     `json:"ma,omitempty"`
}

// MAView carries the display-window averages for chart consumers. NaN becomes null.
type MAView struct {
	MA20  []*float64 `json:"ma20"`
	MA60  []*float64 `json:"ma60"`
	MA125 []*float64 `json:"ma125"`
}

// NewMAView converts an indicator set into its JSON friendly form.
func NewMAView(s IndicatorSet) *MAView {
	return &MAView{MA20: nullable(s.MA20), MA60: nullable(s.MA60), MA125: nullable(s.MA125)}
}

func nullable(in []float64) []*float64 {
	out := make([]*float64, len(in))
	for i, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

// FailureKind classifies why a symbol produced no result.
type FailureKind string

const (
	FailureInsufficientData FailureKind = "insufficient_data"
	FailureFetch            FailureKind = "fetch_error"
	FailureTimeout          FailureKind = "timeout"
	FailureUnknown          FailureKind = "unknown"
)

// AnalysisFailure is the failed outcome for one symbol.
type AnalysisFailure struct {
	Symbol  string      `json:"symbol"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f AnalysisFailure) Error() string {
	return string(f.Kind) + ": " + f.Symbol + ": " + f.Message
}

// Outcome holds exactly one of Result or Failure.
type Outcome struct {
	Result  *AnalysisResult
	Failure *AnalysisFailure
}

func Succeeded(r *AnalysisResult) Outcome { return Outcome{Result: r} }

func Failed(symbol string, kind FailureKind, msg string) Outcome {
	return Outcome{Failure: &AnalysisFailure{Symbol: symbol, Kind: kind, Message: msg}}
}

// Symbol returns the symbol the outcome belongs to.
func (o Outcome) Symbol() string {
	if o.Result != nil {
		return o.Result.Symbol
	}
	if o.Failure != nil {
		return o.Failure.Symbol
	}
	return ""
}

func (o Outcome) OK() bool { return o.Result != nil }
