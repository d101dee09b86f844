package worker

import (
	"context"

	"github.com/hivenet/teachhanna/internal/exclude"
	"github.com/hivenet/teachhanna/internal/model"
)

// ItemProcessor handles one exclusion-cleared raw input end to end.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, in model.RawInput) model.ItemResult
}

// Dispatcher orchestrates a batch: exclusion filtering, per-domain rate
// limiting, fan-out across the pool, and result aggregation. A single item's
// failure never aborts the batch.
type Dispatcher struct {
	excl        *exclude.List
	proc        ItemProcessor
	limiter     *Limiter // nil disables rate limiting
	concurrency int
}

// NewDispatcher creates a dispatcher over the given exclusion list and
// processor.
func NewDispatcher(excl *exclude.List, proc ItemProcessor, limiter *Limiter, concurrency int) *Dispatcher {
	return &Dispatcher{
		excl:        excl,
		proc:        proc,
		limiter:     limiter,
		concurrency: concurrency,
	}
}

type dispatchJob struct {
	input   model.RawInput
	excl    *exclude.List
	limiter *Limiter
	proc    ItemProcessor
}

func (j *dispatchJob) Execute(ctx context.Context) model.ItemResult {
	// Exclusion short-circuits before any network traffic. Manual facts
	// that reference a URL are checked too.
	if j.input.URL != "" && j.excl.IsExcluded(j.input.URL) {
		return model.ItemResult{
			Ref:    j.input.Ref(),
			Status: model.StatusSkippedExcluded,
			Stage:  model.StageExclusion,
			Detail: "domain excluded",
		}
	}

	if j.input.SourceType == model.SourceWeb && j.limiter != nil {
		if err := j.limiter.Wait(ctx, j.input.URL); err != nil {
			return model.ItemResult{
				Ref:    j.input.Ref(),
				Status: model.StatusFailedTransient,
				Stage:  model.StageFetch,
				Detail: err.Error(),
			}
		}
	}

	return j.proc.ProcessItem(ctx, j.input)
}

// Run processes all items with bounded concurrency and returns the aggregate
// summary. sharedTags and sharedEntities are unioned into every item's own
// sets. Cancelling ctx stops dispatching new items; in-flight items finish
// or time out. Item order in the summary is not guaranteed.
func (d *Dispatcher) Run(ctx context.Context, items []model.RawInput, sharedTags, sharedEntities []string) model.BatchSummary {
	var summary model.BatchSummary
	if len(items) == 0 {
		return summary
	}

	pool := NewPool(ctx, d.concurrency)
	pool.Start()

	// Submission runs alongside result collection: the pool's buffers are
	// bounded, so submitting the whole batch up front would block once the
	// workers fill the results channel.
	go func() {
		for _, in := range items {
			in.Tags = mergeSets(in.Tags, sharedTags)
			in.RelatedEntities = mergeSets(in.RelatedEntities, sharedEntities)
			ok := pool.Submit(&dispatchJob{
				input:   in,
				excl:    d.excl,
				limiter: d.limiter,
				proc:    d.proc,
			})
			if !ok {
				break
			}
		}
		pool.Finish()
	}()

	for result := range pool.Results() {
		summary.Add(result)
	}
	return summary
}

// mergeSets unions the shared values into the item's own, without mutating
// either slice. Normalization dedupes later.
func mergeSets(own, shared []string) []string {
	if len(shared) == 0 {
		return own
	}
	merged := make([]string, 0, len(own)+len(shared))
	merged = append(merged, own...)
	merged = append(merged, shared...)
	return merged
}
