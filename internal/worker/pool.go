// Package worker fans batches of ingestion items across a bounded pool and
// aggregates their outcomes.
package worker

import (
	"context"
	"sync"

	"github.com/hivenet/teachhanna/internal/model"
)

// Job is one unit of batch work.
type Job interface {
	Execute(ctx context.Context) model.ItemResult
}

// Pool runs jobs on a bounded set of workers. Results flow through a single
// channel; no other state is shared between workers.
type Pool struct {
	workers   int
	jobs      chan Job
	results   chan model.ItemResult
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool of the given size. The pool stops dispatching when
// ctx is cancelled; in-flight jobs run to completion or time out on their
// own I/O deadlines.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan model.ItemResult, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Jobs submitted after cancellation are dropped.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Finish marks submission complete. The results channel closes once the
// workers drain the remaining jobs.
func (p *Pool) Finish() {
	close(p.jobs)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

// Results streams job outcomes as workers produce them. Callers must drain
// it concurrently with submission: the channel buffer is bounded, so a full
// buffer blocks the workers and, transitively, Submit.
func (p *Pool) Results() <-chan model.ItemResult {
	return p.results
}

// Wait finishes the pool and returns all remaining results.
func (p *Pool) Wait() []model.ItemResult {
	p.Finish()

	var results []model.ItemResult
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown cancels the pool and discards pending work.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
