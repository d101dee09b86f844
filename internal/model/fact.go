package model

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies the ingestion path that produced a fact.
type SourceType string

const (
	SourceWeb            SourceType = "web"
	SourceManual         SourceType = "manual"
	SourceChatCorrection SourceType = "chat_correction"
	SourceAniDBMetadata  SourceType = "anidb_metadata"
)

// ParseSourceType converts a string into a known SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown source type: %q", s)
	}
	return st, nil
}

// Valid reports whether the value is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceWeb, SourceManual, SourceChatCorrection, SourceAniDBMetadata:
		return true
	}
	return false
}

// Fact is the canonical knowledge record delivered to the TeachHanna webhook.
// Field names match the unified Qdrant schema used by the downstream service.
// Absent optional fields serialize as explicit null; tags and related_entities
// are always arrays, never null.
type Fact struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	SourceType      SourceType `json:"source_type"`
	Confidence      float64    `json:"confidence"`
	Timestamp       time.Time  `json:"timestamp"`
	SourceUser      *string    `json:"sourceUser"`
	URL             *string    `json:"url"`
	Title           *string    `json:"title"`
	Tags            []string   `json:"tags"`
	RelatedEntities []string   `json:"related_entities"`
}

// RawInput is one ingestion item before normalization: either a URL to scrape
// (web) or a fully specified fact payload (manual, chat_correction,
// anidb_metadata). Zero Timestamp and nil Confidence are filled with defaults
// during normalization.
type RawInput struct {
	URL             string     `json:"url,omitempty"`
	Text            string     `json:"text,omitempty"`
	Title           string     `json:"title,omitempty"`
	SourceUser      string     `json:"sourceUser,omitempty"`
	SourceType      SourceType `json:"source_type"`
	Confidence      *float64   `json:"confidence,omitempty"`
	Timestamp       time.Time  `json:"timestamp,omitzero"`
	Tags            []string   `json:"tags,omitempty"`
	RelatedEntities []string   `json:"related_entities,omitempty"`
}

// Ref returns a short identifier for logs and batch summaries.
func (in RawInput) Ref() string {
	if in.URL != "" {
		return in.URL
	}
	runes := []rune(in.Text)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return in.Text
}
