// Package sink transmits canonical facts to the downstream knowledge
// service. The pipeline assumes nothing about the service beyond the
// success/transient/permanent failure taxonomy of its HTTP responses.
package sink

import (
	"context"

	"github.com/hivenet/teachhanna/internal/model"
)

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// OutcomeDelivered means the downstream service accepted the fact.
	OutcomeDelivered Outcome = iota
	// OutcomeTransient means the attempt failed in a retryable way
	// (network error, 5xx, throttling).
	OutcomeTransient
	// OutcomePermanent means the service rejected the fact and a retry
	// would fail the same way (4xx).
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	}
	return "unknown"
}

// Sink sends one fact to the downstream service. A single Send is one RPC
// attempt; retrying is the caller's concern.
type Sink interface {
	Send(ctx context.Context, fact *model.Fact) (Outcome, error)
}
