package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

type task struct {
	ctx    context.Context
	symbol models.Symbol
	period repository.Period
	out    chan<- taskOutcome
}

type taskOutcome struct {
	symbol  string
	outcome models.Outcome
}

// workerPool runs analyses on a fixed number of goroutines for the lifetime of one run.
type workerPool struct {
	tasks       chan task
	analyzer    Analyzer
	taskTimeout time.Duration
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func newWorkerPool(workers, queue int, taskTimeout time.Duration, analyzer Analyzer) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{
		tasks:       make(chan task, queue),
		analyzer:    analyzer,
		taskTimeout: taskTimeout,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) submit(t task) {
	p.tasks <- t
}

// close stops accepting tasks and waits for the workers to drain the queue.
func (p *workerPool) close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}

func (p *workerPool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		// out is buffered for the whole batch, so this never blocks.
		t.out <- taskOutcome{symbol: t.symbol.Code, outcome: p.execute(t)}
	}
}

// execute bounds one analysis by the task timeout. An analysis that overruns is left
// to finish on its own goroutine and its late outcome is discarded.
func (p *workerPool) execute(t task) models.Outcome {
	if err := t.ctx.Err(); err != nil {
		return models.Failed(t.symbol.Code, models.FailureTimeout, "not started: "+deadlineReason(err))
	}

	ctx := t.ctx
	cancel := context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(t.ctx, p.taskTimeout)
	}
	defer cancel()

	done := make(chan models.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- models.Failed(t.symbol.Code, models.FailureUnknown, fmt.Sprintf("panic: %v", r))
			}
		}()
		done <- p.analyzer.Analyze(ctx, t.symbol, t.period)
	}()

	select {
	case out := <-done:
		return normalize(t.symbol.Code, out)
	case <-ctx.Done():
		if t.ctx.Err() != nil {
			return models.Failed(t.symbol.Code, models.FailureTimeout, deadlineReason(t.ctx.Err()))
		}
		return models.Failed(t.symbol.Code, models.FailureTimeout, fmt.Sprintf("analysis exceeded %s", p.taskTimeout))
	}
}

// normalize pins the outcome to the submitted symbol and fills empty outcomes.
func normalize(symbol string, out models.Outcome) models.Outcome {
	switch {
	case out.Result != nil && out.Failure != nil:
		return models.Failed(symbol, models.FailureUnknown, "analyzer returned both result and failure")
	case out.Result != nil:
		if out.Result.Symbol != symbol {
			r := *out.Result
			r.Symbol = symbol
			return models.Succeeded(&r)
		}
		return out
	case out.Failure != nil:
		if out.Failure.Symbol != symbol {
			f := *out.Failure
			f.Symbol = symbol
			return models.Outcome{Failure: &f}
		}
		return out
	default:
		return models.Failed(symbol, models.FailureUnknown, "analyzer returned no outcome")
	}
}

func deadlineReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline exceeded"
	}
	return "run cancelled"
}
