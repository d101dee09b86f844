// Package validate builds canonical facts from raw ingestion input and
// enforces the fact schema invariants.
package validate

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hivenet/teachhanna/internal/model"
)

// FieldViolation names one schema rule broken by a raw input.
type FieldViolation struct {
	Field  string
	Reason string
}

// ValidationError carries every violated field for one input, so a single
// normalization call surfaces the complete defect list.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "invalid fact: " + strings.Join(parts, "; ")
}

// Fields returns the violated field names.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// Normalizer turns raw input into validated facts. It is pure: identical
// input with the same now instant yields identical facts, apart from the
// generated record ID.
type Normalizer struct {
	webConfidence    float64
	manualConfidence float64
}

// NewNormalizer creates a normalizer with the given confidence defaults for
// web and non-web input.
func NewNormalizer(webConfidence, manualConfidence float64) *Normalizer {
	return &Normalizer{
		webConfidence:    webConfidence,
		manualConfidence: manualConfidence,
	}
}

// Normalize validates in against the fact schema and returns the canonical
// fact. Missing timestamp defaults to now in UTC; missing confidence defaults
// per source type. All violations are collected before failing.
func (n *Normalizer) Normalize(in model.RawInput, now time.Time) (*model.Fact, error) {
	var violations []FieldViolation

	text := strings.TrimSpace(in.Text)
	if text == "" {
		violations = append(violations, FieldViolation{"text", "must not be empty"})
	}

	if !in.SourceType.Valid() {
		violations = append(violations, FieldViolation{"source_type", fmt.Sprintf("unknown value %q", string(in.SourceType))})
	}

	confidence := n.manualConfidence
	if in.SourceType == model.SourceWeb {
		confidence = n.webConfidence
	}
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if confidence < 0 || confidence > 1 {
		violations = append(violations, FieldViolation{"confidence", fmt.Sprintf("%g outside [0.0, 1.0]", confidence)})
	}

	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" && in.SourceType == model.SourceWeb {
		violations = append(violations, FieldViolation{"url", "required for web facts"})
	}
	if rawURL != "" {
		parsed, err := url.Parse(rawURL)
		if err != nil || !parsed.IsAbs() || parsed.Hostname() == "" {
			violations = append(violations, FieldViolation{"url", fmt.Sprintf("%q is not an absolute URL with a host", rawURL)})
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	timestamp := in.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	fact := &model.Fact{
		ID:              uuid.NewString(),
		Text:            text,
		SourceType:      in.SourceType,
		Confidence:      confidence,
		Timestamp:       timestamp.UTC(),
		Tags:            dedupe(in.Tags),
		RelatedEntities: dedupe(in.RelatedEntities),
	}

	if rawURL != "" {
		fact.URL = &rawURL
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		fact.Title = &title
	}
	if user := strings.TrimSpace(in.SourceUser); user != "" {
		fact.SourceUser = &user
	}

	return fact, nil
}

// dedupe trims, drops empties, and removes duplicates, keeping first-seen
// order. Always returns a non-nil slice so JSON encodes [] rather than null.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
