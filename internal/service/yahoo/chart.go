package yahoo

import (
	"math"
	"sort"

	"MomentumScan/internal/domain/models"
	"MomentumScan/pkg/util"
)

// chartResponse is the response structure from the Yahoo Finance v8 chart API.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol     string `json:"symbol"`
		Currency   string `json:"currency"`
		LongName   string `json:"longName"`
		ShortName  string `json:"shortName"`
		GMTOffset  int    `json:"gmtoffset"`
		Exchange   string `json:"exchangeName"`
		Instrument string `json:"instrumentType"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func at(v []*float64, i int) (float64, bool) {
	if i >= len(v) || v[i] == nil || math.IsNaN(*v[i]) {
		return 0, false
	}
	return *v[i], true
}

// bars converts the columnar quote into ascending daily bars. Bars without a close are skipped
// and a later bar for the same day replaces an earlier one.
func (r chartResult) bars() []models.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]models.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c, ok := at(q.Close, i)
		if !ok || c <= 0 {
			continue // holidays and halted sessions come back as nulls
		}
		o, ok := at(q.Open, i)
		if !ok {
			o = c
		}
		h, ok := at(q.High, i)
		if !ok {
			h = math.Max(o, c)
		}
		l, ok := at(q.Low, i)
		if !ok {
			l = math.Min(o, c)
		}
		v, _ := at(q.Volume, i)
		out = append(out, models.PriceBar{
			Time:   util.TradingDay(ts, r.Meta.GMTOffset),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

func (r chartResult) displayName() string {
	if r.Meta.LongName != "" {
		return r.Meta.LongName
	}
	return r.Meta.ShortName
}
