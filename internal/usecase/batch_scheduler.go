package usecase

import (
	"context"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	applogger "MomentumScan/pkg/logger"
	"MomentumScan/pkg/metrics"
)

const (
	DefaultWorkers      = 8
	DefaultBatchSize    = 20
	DefaultBatchPause   = time.Second
	DefaultTaskTimeout  = 30 * time.Second
	DefaultBatchTimeout = 3 * time.Minute
)

// RunResult separates successes from failures. Every input symbol appears in exactly one of them.
type RunResult struct {
	Results  []models.AnalysisResult
	Failures []models.AnalysisFailure
}

func (r *RunResult) add(o models.Outcome) {
	if o.Result != nil {
		r.Results = append(r.Results, *o.Result)
		return
	}
	r.Failures = append(r.Failures, *o.Failure)
}

// Total is the number of symbols accounted for.
func (r RunResult) Total() int { return len(r.Results) + len(r.Failures) }

// BatchScheduler runs an Analyzer over a universe in sequential batches on a bounded worker pool.
type BatchScheduler struct {
	analyzer     Analyzer
	workers      int
	batchSize    int
	pause        time.Duration
	taskTimeout  time.Duration
	batchTimeout time.Duration
	metrics      repository.Metrics
	logger       *applogger.Logger
}

// SchedulerOption configures BatchScheduler.
type SchedulerOption func(*BatchScheduler)

func WithWorkers(n int) SchedulerOption {
	return func(s *BatchScheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithBatchSize(n int) SchedulerOption {
	return func(s *BatchScheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchPause sets the pause between batches. Zero disables it.
func WithBatchPause(d time.Duration) SchedulerOption {
	return func(s *BatchScheduler) {
		if d >= 0 {
			s.pause = d
		}
	}
}

// WithTimeouts sets the per-task and per-batch deadlines.
func WithTimeouts(task, batch time.Duration) SchedulerOption {
	return func(s *BatchScheduler) {
		if task > 0 {
			s.taskTimeout = task
		}
		if batch > 0 {
			s.batchTimeout = batch
		}
	}
}

func WithSchedulerMetrics(m repository.Metrics) SchedulerOption {
	return func(s *BatchScheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithSchedulerLogger(l *applogger.Logger) SchedulerOption {
	return func(s *BatchScheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewBatchScheduler(analyzer Analyzer, opts ...SchedulerOption) *BatchScheduler {
	s := &BatchScheduler{
		analyzer:     analyzer,
		workers:      DefaultWorkers,
		batchSize:    DefaultBatchSize,
		pause:        DefaultBatchPause,
		taskTimeout:  DefaultTaskTimeout,
		batchTimeout: DefaultBatchTimeout,
		metrics:      metrics.Nop{},
		logger:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run analyzes symbols batch by batch. Duplicate symbols are analyzed once.
// Symbols that cannot finish before a deadline, or that were never dispatched because ctx ended,
// are reported as timeout failures.
func (s *BatchScheduler) Run(ctx context.Context, symbols []models.Symbol, period repository.Period) RunResult {
	var rr RunResult
	symbols = uniqueSymbols(symbols)
	if len(symbols) == 0 {
		return rr
	}

	start := time.Now()
	pool := newWorkerPool(s.workers, s.batchSize, s.taskTimeout, s.analyzer)
	defer pool.close()

	batches := chunkSymbols(symbols, s.batchSize)
	for i, batch := range batches {
		if i > 0 && !sleepContext(ctx, s.pause) {
			s.abandon(&rr, batches[i:], ctx.Err())
			break
		}
		if err := ctx.Err(); err != nil {
			s.abandon(&rr, batches[i:], err)
			break
		}

		bStart := time.Now()
		ok, failed := s.runBatch(ctx, pool, batch, period, &rr)
		s.metrics.RecordLatency("batch", time.Since(bStart).Seconds())
		s.logger.Info("batch finished",
			applogger.Int("batch", i+1),
			applogger.Int("batches", len(batches)),
			applogger.Int("succeeded", ok),
			applogger.Int("failed", failed),
			applogger.Duration("took_ms", time.Since(bStart)),
		)
	}

	s.metrics.RecordLatency("schedule", time.Since(start).Seconds())
	return rr
}

// runBatch dispatches one batch and collects outcomes in completion order until all are in
// or the batch deadline passes.
func (s *BatchScheduler) runBatch(
	ctx context.Context,
	pool *workerPool,
	batch []models.Symbol,
	period repository.Period,
	rr *RunResult,
) (succeeded, failed int) {
	bctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	out := make(chan taskOutcome, len(batch))
	pending := make(map[string]struct{}, len(batch))
	for _, sym := range batch {
		pending[sym.Code] = struct{}{}
		pool.submit(task{ctx: bctx, symbol: sym, period: period, out: out})
	}

	record := func(o taskOutcome) {
		if _, ok := pending[o.symbol]; !ok {
			return
		}
		delete(pending, o.symbol)
		rr.add(o.outcome)
		if o.outcome.OK() {
			succeeded++
		} else {
			failed++
		}
	}

	for len(pending) > 0 {
		select {
		case o := <-out:
			record(o)
		case <-bctx.Done():
			// Keep anything that finished right at the deadline.
			for drained := false; !drained; {
				select {
				case o := <-out:
					record(o)
				default:
					drained = true
				}
			}
			reason := "abandoned: " + deadlineReason(bctx.Err())
			abandoned := len(pending)
			for _, sym := range batch {
				if _, ok := pending[sym.Code]; ok {
					record(taskOutcome{symbol: sym.Code, outcome: models.Failed(sym.Code, models.FailureTimeout, reason)})
				}
			}
			s.metrics.RecordError("batch_timeout")
			s.logger.Warn("batch deadline reached", applogger.Int("abandoned", abandoned))
		}
	}
	return succeeded, failed
}

func (s *BatchScheduler) abandon(rr *RunResult, batches [][]models.Symbol, err error) {
	reason := "not dispatched: " + deadlineReason(err)
	n := 0
	for _, batch := range batches {
		for _, sym := range batch {
			rr.add(models.Failed(sym.Code, models.FailureTimeout, reason))
			n++
		}
	}
	s.logger.Warn("run stopped before all batches were dispatched", applogger.Int("symbols", n), applogger.Error(err))
}

func uniqueSymbols(in []models.Symbol) []models.Symbol {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Symbol, 0, len(in))
	for _, s := range in {
		if s.Code == "" {
			continue
		}
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		out = append(out, s)
	}
	return out
}

func chunkSymbols(in []models.Symbol, size int) [][]models.Symbol {
	var out [][]models.Symbol
	for start := 0; start < len(in); start += size {
		end := start + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[start:end])
	}
	return out
}

// sleepContext waits for d or until ctx ends. It reports whether the full pause elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
