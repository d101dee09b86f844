// Package pipeline runs one ingestion item through fetch, extraction,
// normalization and delivery.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hivenet/teachhanna/internal/extract"
	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/sink"
	"github.com/hivenet/teachhanna/internal/validate"
)

// Pipeline turns a single raw input into a delivered fact. Exclusion
// filtering happens before items reach the pipeline; everything after it
// lives here.
type Pipeline struct {
	fetcher    *Fetcher
	extractor  *extract.ContentExtractor
	normalizer *validate.Normalizer
	sink       sink.Sink
	retrier    sink.Retrier
}

// NewPipeline creates a pipeline delivering to s.
func NewPipeline(cfg *model.Config, s sink.Sink) (*Pipeline, error) {
	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extract.NewContentExtractor(cfg.HTTP.MaxTextRunes),
		normalizer: validate.NewNormalizer(cfg.Defaults.WebConfidence, cfg.Defaults.ManualConfidence),
		sink:       s,
		retrier: sink.Retrier{
			MaxAttempts: cfg.Sink.MaxRetries,
			BaseDelay:   cfg.Sink.BackoffBase,
			MaxDelay:    cfg.Sink.BackoffMax,
		},
	}, nil
}

// ProcessItem runs one exclusion-cleared input to its terminal outcome.
// Failures are captured in the result, never returned: a single bad item
// must not abort the batch.
func (p *Pipeline) ProcessItem(ctx context.Context, in model.RawInput) model.ItemResult {
	ref := in.Ref()

	if in.SourceType == model.SourceWeb {
		fetched, err := p.fetcher.Fetch(ctx, in.URL)
		if err != nil {
			return model.ItemResult{
				Ref:    ref,
				Status: model.StatusFailedTransient,
				Stage:  model.StageFetch,
				Detail: err.Error(),
			}
		}

		content, err := p.extractor.Extract(fetched.HTML, fetched.FinalURL)
		if err != nil {
			return model.ItemResult{
				Ref:    ref,
				Status: model.StatusFailedTransient,
				Stage:  model.StageFetch,
				Detail: fmt.Sprintf("parse markup: %v", err),
			}
		}

		in.Text = content.Text
		if in.Title == "" {
			in.Title = content.Title
		}
	}

	fact, err := p.normalizer.Normalize(in, time.Now())
	if err != nil {
		result := model.ItemResult{
			Ref:    ref,
			Status: model.StatusSkippedInvalid,
			Stage:  model.StageNormalize,
			Detail: err.Error(),
		}
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			result.Violations = verr.Fields()
		}
		return result
	}

	sent := p.retrier.Do(ctx, p.sink, fact)
	result := model.ItemResult{
		Ref:      ref,
		Stage:    model.StageDeliver,
		Attempts: sent.Attempts,
	}
	switch sent.Outcome {
	case sink.OutcomeDelivered:
		result.Status = model.StatusDelivered
	case sink.OutcomePermanent:
		result.Status = model.StatusFailedPermanent
	default:
		result.Status = model.StatusFailedTransient
	}
	if sent.Err != nil {
		result.Detail = sent.Err.Error()
	}
	return result
}
