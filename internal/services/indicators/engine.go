package indicators

import (
	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/service"
)

const (
	ShortWindow = 20
	MidWindow   = 60
	LongWindow  = 125

	CrossLookback   = 10
	SupportLookback = 5
	SupportMinBars  = 2
	TrendLookback   = 10
)

// Engine implements service.IndicatorEngine.
type Engine struct{}

var _ service.IndicatorEngine = (*Engine)(nil)

func NewEngine() *Engine { return &Engine{} }

// Compute returns the 20/60/125 bar averages of closing prices.
func (e *Engine) Compute(series models.PriceSeries) models.IndicatorSet {
	closes := series.Closes()
	return models.IndicatorSet{
		MA20:  SMA(closes, ShortWindow),
		MA60:  SMA(closes, MidWindow),
		MA125: SMA(closes, LongWindow),
	}
}

// Evaluate runs the four checks over series using the aligned averages in ind.
// Mismatched lengths yield all flags false.
func (e *Engine) Evaluate(series models.PriceSeries, ind models.IndicatorSet) models.Signals {
	sig := models.Signals{GoldenCrossIndex: -1}
	n := series.Len()
	if n == 0 || ind.Len() != n || len(ind.MA60) != n || len(ind.MA125) != n {
		return sig
	}

	if idx, ok := GoldenCross(ind.MA20, ind.MA60, ind.MA125); ok {
		t := series.Bars[idx].Time
		sig.GoldenCross = true
		sig.GoldenCrossIndex = idx
		sig.GoldenCrossDate = &t
	}

	last := series.Bars[n-1]
	sig.AboveShortMAs = AboveShortMAs(last.Close, ind.MA20[n-1], ind.MA60[n-1])

	sig.SupportCount = SupportCount(series.Bars, ind.MA125)
	sig.Support125 = sig.SupportCount >= SupportMinBars

	sig.TrendStable = TrendStable(ind.MA20, ind.MA60)
	return sig
}

// GoldenCross scans the last CrossLookback points oldest first and returns the index of the first
// bar where MA20 moves above MA60 while both are still under MA125.
func GoldenCross(ma20, ma60, ma125 []float64) (int, bool) {
	n := len(ma20)
	if len(ma60) != n || len(ma125) != n {
		return -1, false
	}
	start := n - CrossLookback
	if start < 0 {
		start = 0
	}
	for i := start + 1; i < n; i++ {
		prev20, prev60 := ma20[i-1], ma60[i-1]
		cur20, cur60, cur125 := ma20[i], ma60[i], ma125[i]
		if !defined(prev20) || !defined(prev60) || !defined(cur20) || !defined(cur60) || !defined(cur125) {
			continue
		}
		if prev20 <= prev60 && cur20 > cur60 && cur20 < cur125 && cur60 < cur125 {
			return i, true
		}
	}
	return -1, false
}

// AboveShortMAs is true when close is strictly above both averages.
func AboveShortMAs(close, ma20, ma60 float64) bool {
	if !defined(ma20) || !defined(ma60) {
		return false
	}
	return close > ma20 && close > ma60
}

// SupportCount counts bars among the last SupportLookback whose body low is strictly above MA125.
func SupportCount(bars []models.PriceBar, ma125 []float64) int {
	n := len(bars)
	if len(ma125) != n {
		return 0
	}
	start := n - SupportLookback
	if start < 0 {
		start = 0
	}
	count := 0
	for i := start; i < n; i++ {
		if defined(ma125[i]) && bars[i].BodyLow() > ma125[i] {
			count++
		}
	}
	return count
}

// TrendStable compares the two-point slope of MA20 and MA60 over the last TrendLookback bars.
// Both slopes must be positive and MA20 must end above MA60.
func TrendStable(ma20, ma60 []float64) bool {
	n := len(ma20)
	if n == 0 || len(ma60) != n {
		return false
	}
	first := n - TrendLookback
	if first < 0 {
		first = 0
	}
	last := n - 1
	if !defined(ma20[first]) || !defined(ma20[last]) || !defined(ma60[first]) || !defined(ma60[last]) {
		return false
	}
	slope20 := (ma20[last] - ma20[first]) / TrendLookback
	slope60 := (ma60[last] - ma60[first]) / TrendLookback
	return slope20 > 0 && slope60 > 0 && ma20[last] > ma60[last]
}
