package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hivenet/teachhanna/internal/model"
)

// countingJob records executions and returns a fixed result.
type countingJob struct {
	executed *int32
	duration time.Duration
	status   model.DeliveryStatus
}

func (j *countingJob) Execute(ctx context.Context) model.ItemResult {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
		}
	}
	status := j.status
	if status == "" {
		status = model.StatusDelivered
	}
	return model.ItemResult{Status: status}
}

func TestNewPool_MinimumWorkers(t *testing.T) {
	for _, workers := range []int{0, -1} {
		p := NewPool(context.Background(), workers)
		if p.workers != 1 {
			t.Errorf("NewPool(%d): expected 1 worker, got %d", workers, p.workers)
		}
	}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var executed int32
	count := 10
	for i := 0; i < count; i++ {
		pool.Submit(&countingJob{executed: &executed})
	}

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executions, got %d", count, executed)
	}
}

// boundedJob tracks the maximum number of concurrent executions.
type boundedJob struct {
	current *int32
	max     *int32
	mu      *sync.Mutex
}

func (j *boundedJob) Execute(ctx context.Context) model.ItemResult {
	cur := atomic.AddInt32(j.current, 1)
	j.mu.Lock()
	if cur > *j.max {
		*j.max = cur
	}
	j.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(j.current, -1)
	return model.ItemResult{Status: model.StatusDelivered}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var current, max int32
	var mu sync.Mutex
	for i := 0; i < 12; i++ {
		pool.Submit(&boundedJob{current: &current, max: &max, mu: &mu})
	}
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	if max > 3 {
		t.Errorf("concurrency exceeded pool size: %d workers observed", max)
	}
	if max == 0 {
		t.Error("no jobs observed running")
	}
}

func TestPool_ResultsStreamWhileSubmitting(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	var executed int32
	count := 30
	go func() {
		for i := 0; i < count; i++ {
			pool.Submit(&countingJob{executed: &executed})
		}
		pool.Finish()
	}()

	collected := 0
	for range pool.Results() {
		collected++
	}

	if collected != count {
		t.Errorf("expected %d results, got %d", count, collected)
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executions, got %d", count, executed)
	}
}

func TestPool_CancelledContextDropsSubmissions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()
	cancel()

	// Give workers a moment to observe cancellation.
	time.Sleep(10 * time.Millisecond)

	var executed int32
	submitted := 0
	for i := 0; i < 5; i++ {
		if pool.Submit(&countingJob{executed: &executed}) {
			submitted++
		}
	}

	pool.Shutdown()
	if got := atomic.LoadInt32(&executed); int(got) > submitted {
		t.Errorf("executed %d jobs but only %d were accepted", got, submitted)
	}
}
