package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hivenet/teachhanna/internal/exclude"
	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/sink"
	"github.com/hivenet/teachhanna/internal/worker"
)

// capturingWebhook records every fact payload it accepts.
type capturingWebhook struct {
	mu    sync.Mutex
	facts []map[string]any
}

func (c *capturingWebhook) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.facts = append(c.facts, payload)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (c *capturingWebhook) received() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.facts))
	copy(out, c.facts)
	return out
}

func newTestPipeline(t *testing.T, webhookURL string) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Robots.Enabled = false
	cfg.Cache.Enabled = false
	cfg.Sink.WebhookURL = webhookURL

	s, err := sink.NewWebhookSink(cfg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	p, err := NewPipeline(cfg, s)
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	return p
}

func TestPipeline_WebItemEndToEnd(t *testing.T) {
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>Laksa</title></head><body><p>Laksa is a spicy noodle dish.</p></body></html>`)
	}))
	defer pageServer.Close()

	webhook := &capturingWebhook{}
	webhookServer := httptest.NewServer(webhook.handler())
	defer webhookServer.Close()

	p := newTestPipeline(t, webhookServer.URL)
	result := p.ProcessItem(context.Background(), model.RawInput{
		URL:        pageServer.URL + "/laksa",
		SourceType: model.SourceWeb,
		Tags:       []string{"food"},
	})

	if result.Status != model.StatusDelivered {
		t.Fatalf("expected delivered, got %+v", result)
	}
	if result.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Attempts)
	}

	facts := webhook.received()
	if len(facts) != 1 {
		t.Fatalf("expected 1 delivered fact, got %d", len(facts))
	}
	fact := facts[0]
	if fact["source_type"] != "web" {
		t.Errorf("unexpected source_type: %v", fact["source_type"])
	}
	if fact["text"] != "Laksa is a spicy noodle dish." {
		t.Errorf("unexpected text: %v", fact["text"])
	}
	if fact["title"] != "Laksa" {
		t.Errorf("unexpected title: %v", fact["title"])
	}
	if fact["confidence"] != 0.8 {
		t.Errorf("expected web default confidence, got %v", fact["confidence"])
	}
}

func TestPipeline_FetchFailureIsPerItem(t *testing.T) {
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer pageServer.Close()

	webhook := &capturingWebhook{}
	webhookServer := httptest.NewServer(webhook.handler())
	defer webhookServer.Close()

	p := newTestPipeline(t, webhookServer.URL)
	result := p.ProcessItem(context.Background(), model.RawInput{
		URL:        pageServer.URL,
		SourceType: model.SourceWeb,
	})

	if result.Status != model.StatusFailedTransient || result.Stage != model.StageFetch {
		t.Errorf("expected transient fetch failure, got %+v", result)
	}
	if len(webhook.received()) != 0 {
		t.Error("failed extraction must not reach the sink")
	}
}

func TestPipeline_InvalidManualFactSkipped(t *testing.T) {
	webhook := &capturingWebhook{}
	webhookServer := httptest.NewServer(webhook.handler())
	defer webhookServer.Close()

	confidence := 1.4
	p := newTestPipeline(t, webhookServer.URL)
	result := p.ProcessItem(context.Background(), model.RawInput{
		Text:       "overconfident fact",
		SourceType: model.SourceManual,
		Confidence: &confidence,
	})

	if result.Status != model.StatusSkippedInvalid {
		t.Fatalf("expected skipped_invalid, got %+v", result)
	}
	if len(result.Violations) != 1 || result.Violations[0] != "confidence" {
		t.Errorf("expected violation list [confidence], got %v", result.Violations)
	}
	if len(webhook.received()) != 0 {
		t.Error("invalid fact must not reach the sink")
	}
}

func TestBatch_ExclusionEndToEnd(t *testing.T) {
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>A</title></head><body>content a</body></html>`)
	}))
	defer pageServer.Close()

	webhook := &capturingWebhook{}
	webhookServer := httptest.NewServer(webhook.handler())
	defer webhookServer.Close()

	artifact := filepath.Join(t.TempDir(), "excluded_domains.json")
	if err := os.WriteFile(artifact, []byte(`[{"domain": "blocked.com"}]`), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	excl, err := exclude.Load(artifact)
	if err != nil {
		t.Fatalf("load exclusions: %v", err)
	}

	p := newTestPipeline(t, webhookServer.URL)
	d := worker.NewDispatcher(excl, p, nil, 2)

	summary := d.Run(context.Background(), []model.RawInput{
		{URL: pageServer.URL + "/a", SourceType: model.SourceWeb},
		{URL: "https://blocked.com/b", SourceType: model.SourceWeb},
	}, nil, nil)

	if summary.Delivered != 1 || summary.SkippedExcluded != 1 {
		t.Errorf("expected {delivered: 1, excluded: 1}, got %s", summary.String())
	}
	if len(webhook.received()) != 1 {
		t.Errorf("expected exactly 1 sink delivery, got %d", len(webhook.received()))
	}
}
