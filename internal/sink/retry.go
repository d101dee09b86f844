package sink

import (
	"context"
	"math/rand"
	"time"

	"github.com/hivenet/teachhanna/internal/model"
)

// sinkSleepFunc is the sleep used between retry attempts (injectable for tests).
var sinkSleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Retrier wraps a sink with bounded, sequential retries. Transient outcomes
// are retried with exponential backoff and full jitter; permanent outcomes
// surface immediately. A transient failure after the service already
// accepted the payload can duplicate the record on retry; deduplication is
// the downstream service's responsibility.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// SendResult is the terminal result of delivering one fact through a Retrier.
type SendResult struct {
	Outcome  Outcome
	Attempts int
	Err      error
}

// Do sends the fact through s, retrying transient failures up to MaxAttempts
// total attempts. Attempts for one fact are strictly sequential.
func (r Retrier) Do(ctx context.Context, s Sink, fact *model.Fact) SendResult {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		outcome, err := s.Send(ctx, fact)
		if outcome != OutcomeTransient || attempt >= maxAttempts {
			return SendResult{Outcome: outcome, Attempts: attempt, Err: err}
		}

		// Full jitter over the current exponential window.
		sleep := time.Duration(rand.Int63n(int64(delay) + 1))
		if sleepErr := sinkSleepFunc(ctx, sleep); sleepErr != nil {
			return SendResult{Outcome: OutcomeTransient, Attempts: attempt, Err: sleepErr}
		}

		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}
}
