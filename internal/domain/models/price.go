package models

import "time"

// PriceBar is one daily OHLC observation. Timestamps are UTC dates.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BodyLow is the lower edge of the candle body.
func (b PriceBar) BodyLow() float64 {
	if b.Open < b.Close {
		return b.Open
	}
	return b.Close
}

// PriceSeries holds bars for one symbol in ascending time order without duplicate timestamps.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns a series holding the most recent n bars, or the whole series when shorter.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(s.Bars) {
		return s
	}
	return PriceSeries{Symbol: s.Symbol, Bars: s.Bars[len(s.Bars)-n:]}
}
