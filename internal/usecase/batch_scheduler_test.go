package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastScheduler(a Analyzer, opts ...SchedulerOption) *BatchScheduler {
	base := []SchedulerOption{WithBatchPause(0), WithTimeouts(2*time.Second, 10*time.Second)}
	return NewBatchScheduler(a, append(base, opts...)...)
}

func TestRunCoversEverySymbolExactlyOnce(t *testing.T) {
	symbols := symbolsN(45)
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(7))
	jitter := func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return time.Duration(rng.Intn(8)) * time.Millisecond
	}

	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		time.Sleep(jitter())
		if sym.Code[len(sym.Code)-1] == '3' {
			return models.Failed(sym.Code, models.FailureFetch, "flaky")
		}
		return okOutcome(sym, 50)
	})

	for round := 0; round < 3; round++ {
		rr := fastScheduler(a).Run(context.Background(), symbols, repository.Period1Y)
		results, failures := outcomeSymbols(rr)

		all := append(append([]string{}, results...), failures...)
		sort.Strings(all)
		want := make([]string, len(symbols))
		for i, s := range symbols {
			want[i] = s.Code
		}
		require.Equal(t, want, all, "round %d", round)
		assert.Len(t, failures, 5)
		assert.Equal(t, 45, rr.Total())
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	p := newStubProvider(200)
	p.errs["B"] = errors.New("provider down")
	p.errs["D"] = errors.New("provider down")

	rr := fastScheduler(newTestAnalyzer(p)).Run(context.Background(), symbolsOf("A", "B", "C", "D", "E"), repository.Period1Y)
	results, failures := outcomeSymbols(rr)
	sort.Strings(results)
	sort.Strings(failures)

	assert.Equal(t, []string{"A", "C", "E"}, results)
	assert.Equal(t, []string{"B", "D"}, failures)
	for _, f := range rr.Failures {
		assert.Equal(t, models.FailureFetch, f.Kind)
	}
}

func TestRunAbandonsTaskAtBatchDeadline(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		if sym.Code == "STUCK" {
			<-release // ignores ctx on purpose
		}
		return okOutcome(sym, 25)
	})
	s := NewBatchScheduler(a, WithBatchPause(0), WithTimeouts(time.Minute, 150*time.Millisecond))

	start := time.Now()
	rr := s.Run(context.Background(), symbolsOf("A", "STUCK", "B", "C"), repository.Period1Y)
	assert.Less(t, time.Since(start), 5*time.Second)

	results, failures := outcomeSymbols(rr)
	sort.Strings(results)
	assert.Equal(t, []string{"A", "B", "C"}, results)
	require.Equal(t, []string{"STUCK"}, failures)
	assert.Equal(t, models.FailureTimeout, rr.Failures[0].Kind)
}

func TestRunTaskTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		if sym.Code == "SLOW" {
			<-release
		}
		return okOutcome(sym, 25)
	})
	s := NewBatchScheduler(a, WithBatchPause(0), WithTimeouts(50*time.Millisecond, time.Minute))

	rr := s.Run(context.Background(), symbolsOf("A", "SLOW", "B"), repository.Period1Y)
	require.Len(t, rr.Failures, 1)
	assert.Equal(t, "SLOW", rr.Failures[0].Symbol)
	assert.Equal(t, models.FailureTimeout, rr.Failures[0].Kind)
	assert.Contains(t, rr.Failures[0].Message, "exceeded")
	assert.Len(t, rr.Results, 2)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int32
	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return okOutcome(sym, 0)
	})

	rr := fastScheduler(a, WithWorkers(3), WithBatchSize(10)).Run(context.Background(), symbolsN(25), repository.Period1Y)
	assert.Len(t, rr.Results, 25)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunBatchesAreSequential(t *testing.T) {
	var mu sync.Mutex
	finished := map[string]bool{}
	batchOf := func(code string) int {
		var idx int
		for i, s := range symbolsN(45) {
			if s.Code == code {
				idx = i
			}
		}
		return idx / 20
	}
	var violations int32

	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		b := batchOf(sym.Code)
		mu.Lock()
		done := 0
		for code := range finished {
			if batchOf(code) < b {
				done++
			}
		}
		mu.Unlock()
		if done < 20*b {
			atomic.AddInt32(&violations, 1)
		}
		time.Sleep(time.Millisecond)
		mu.Lock()
		finished[sym.Code] = true
		mu.Unlock()
		return okOutcome(sym, 0)
	})

	rr := fastScheduler(a).Run(context.Background(), symbolsN(45), repository.Period1Y)
	assert.Len(t, rr.Results, 45)
	assert.Zero(t, atomic.LoadInt32(&violations))
}

func TestRunPausesBetweenBatches(t *testing.T) {
	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		return okOutcome(sym, 0)
	})
	s := NewBatchScheduler(a, WithBatchSize(1), WithBatchPause(40*time.Millisecond))

	start := time.Now()
	rr := s.Run(context.Background(), symbolsOf("A", "B", "C"), repository.Period1Y)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Len(t, rr.Results, 3)
}

func TestRunDeduplicatesSymbols(t *testing.T) {
	var calls int32
	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		atomic.AddInt32(&calls, 1)
		return okOutcome(sym, 0)
	})
	rr := fastScheduler(a).Run(context.Background(), symbolsOf("A", "B", "A", "", "B"), repository.Period1Y)
	assert.Len(t, rr.Results, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRunCancelledBeforeDispatch(t *testing.T) {
	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		return okOutcome(sym, 0)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := fastScheduler(a).Run(ctx, symbolsN(30), repository.Period1Y)
	assert.Empty(t, rr.Results)
	require.Len(t, rr.Failures, 30)
	for _, f := range rr.Failures {
		assert.Equal(t, models.FailureTimeout, f.Kind)
	}
}

func TestRunRecoversAnalyzerPanic(t *testing.T) {
	a := AnalyzerFunc(func(ctx context.Context, sym models.Symbol, _ repository.Period) models.Outcome {
		if sym.Code == "BAD" {
			panic("bad symbol")
		}
		return okOutcome(sym, 0)
	})
	rr := fastScheduler(a).Run(context.Background(), symbolsOf("OK", "BAD"), repository.Period1Y)
	require.Len(t, rr.Failures, 1)
	assert.Equal(t, models.FailureUnknown, rr.Failures[0].Kind)
	assert.Len(t, rr.Results, 1)
}

func TestRunEmptyOutcomeBecomesFailure(t *testing.T) {
	a := AnalyzerFunc(func(context.Context, models.Symbol, repository.Period) models.Outcome {
		return models.Outcome{}
	})
	rr := fastScheduler(a).Run(context.Background(), symbolsOf("X"), repository.Period1Y)
	require.Len(t, rr.Failures, 1)
	assert.Equal(t, "X", rr.Failures[0].Symbol)
}
