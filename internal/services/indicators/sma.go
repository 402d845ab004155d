package indicators

import "math"

// SMA returns the trailing simple moving average of values over window, aligned with the input.
// Points with fewer than window values behind them are NaN, and any NaN inside a window propagates.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

func defined(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
