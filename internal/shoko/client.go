// Package shoko queries a Shoko Server instance for enriched anime metadata
// with AniDB links, used to build anidb_metadata facts.
package shoko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hivenet/teachhanna/internal/model"
)

// Client talks to the Shoko Server v3 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the Shoko Server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Series is the subset of Shoko series data used to build facts.
type Series struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Year        int    `json:"year"`
	Episodes    int    `json:"episodeCount"`
	AniDBID     int    `json:"anidbId"`
}

// Healthy reports whether the server answers the series endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/series", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Search returns the best match for query, or nil when nothing matches.
func (c *Client) Search(ctx context.Context, query string) (*Series, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search shoko: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	var results []Series
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// anidbConfidence is the fixed confidence for anime metadata facts: the
// data is curated upstream but not hand-verified.
const anidbConfidence = 0.95

// FactInput builds an anidb_metadata ingestion item from a series.
func FactInput(s *Series) model.RawInput {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Type != "" {
		fmt.Fprintf(&b, " is a %s anime", strings.ToLower(s.Type))
	} else {
		b.WriteString(" is an anime")
	}
	if s.Year != 0 {
		fmt.Fprintf(&b, " from %d", s.Year)
	}
	if s.Episodes != 0 {
		fmt.Fprintf(&b, " with %d episodes", s.Episodes)
	}
	b.WriteString(".")
	if s.Description != "" {
		b.WriteString(" ")
		b.WriteString(s.Description)
	}

	confidence := anidbConfidence
	in := model.RawInput{
		Text:            b.String(),
		Title:           s.Name,
		SourceType:      model.SourceAniDBMetadata,
		Confidence:      &confidence,
		Tags:            []string{"anime", "anidb"},
		RelatedEntities: []string{s.Name},
	}
	if s.AniDBID != 0 {
		in.URL = fmt.Sprintf("https://anidb.net/?aid=%d", s.AniDBID)
	}
	return in
}
