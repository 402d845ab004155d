package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runSymbols    *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	lastScore     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analysesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentumscan_analyses_total",
				Help: "Total number of symbol analyses by outcome",
			},
			[]string{"outcome", "kind"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentumscan_runs_total",
				Help: "Total number of screening runs",
			},
			[]string{"market"},
		),
		runSymbols: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "momentumscan_run_symbols",
				Help: "Symbols in the last run by outcome",
			},
			[]string{"market", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentumscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "momentumscan_last_score",
				Help: "Last composite score for a symbol",
			},
			[]string{"market", "symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "momentumscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis counts one finished analysis. kind is empty for successes.
func (r *Recorder) RecordAnalysis(outcome, kind string) {
	r.analysesTotal.WithLabelValues(outcome, kind).Inc()
}

// RecordScore records the latest score for a symbol.
func (r *Recorder) RecordScore(market, symbol string, score int) {
	r.lastScore.WithLabelValues(market, symbol).Set(float64(score))
}

// RecordRun records the totals of a finished run.
func (r *Recorder) RecordRun(market string, succeeded, failed int) {
	r.runsTotal.WithLabelValues(market).Inc()
	r.runSymbols.WithLabelValues(market, "succeeded").Set(float64(succeeded))
	r.runSymbols.WithLabelValues(market, "failed").Set(float64(failed))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAnalysis(string, string) {}
func (Nop) RecordScore(string, string, int) {}
func (Nop) RecordRun(string, int, int) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLatency(string, float64) {}
