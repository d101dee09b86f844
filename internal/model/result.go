package model

import "fmt"

// DeliveryStatus is the terminal outcome for one batch item.
type DeliveryStatus string

const (
	StatusDelivered       DeliveryStatus = "delivered"
	StatusSkippedExcluded DeliveryStatus = "skipped_excluded"
	StatusSkippedInvalid  DeliveryStatus = "skipped_invalid"
	StatusFailedTransient DeliveryStatus = "failed_transient"
	StatusFailedPermanent DeliveryStatus = "failed_permanent"
)

// Stage marks where in the pipeline an item reached its outcome.
type Stage string

const (
	StageExclusion Stage = "exclusion"
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageDeliver   Stage = "deliver"
)

// ItemResult records the outcome for a single ingestion item. Results are
// aggregated into a BatchSummary and never persisted.
type ItemResult struct {
	Ref        string         `json:"ref"`
	Status     DeliveryStatus `json:"status"`
	Stage      Stage          `json:"stage"`
	Detail     string         `json:"detail,omitempty"`
	Violations []string       `json:"violations,omitempty"`
	Attempts   int            `json:"attempts,omitempty"`
}

// BatchSummary aggregates per-item outcomes for a whole batch run.
type BatchSummary struct {
	Total           int
	Delivered       int
	SkippedExcluded int
	SkippedInvalid  int
	FailedTransient int
	FailedPermanent int
	Items           []ItemResult
}

// Add records one item result and updates the per-status counts.
func (s *BatchSummary) Add(r ItemResult) {
	s.Total++
	s.Items = append(s.Items, r)

	switch r.Status {
	case StatusDelivered:
		s.Delivered++
	case StatusSkippedExcluded:
		s.SkippedExcluded++
	case StatusSkippedInvalid:
		s.SkippedInvalid++
	case StatusFailedTransient:
		s.FailedTransient++
	case StatusFailedPermanent:
		s.FailedPermanent++
	}
}

// Failed returns the number of items that reached a failure status.
func (s *BatchSummary) Failed() int {
	return s.FailedTransient + s.FailedPermanent
}

func (s *BatchSummary) String() string {
	return fmt.Sprintf("delivered %d, excluded %d, invalid %d, transient %d, permanent %d (total %d)",
		s.Delivered, s.SkippedExcluded, s.SkippedInvalid, s.FailedTransient, s.FailedPermanent, s.Total)
}
