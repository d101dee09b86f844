package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/util"
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 512

// WebhookSink posts facts as JSON to an n8n-style webhook endpoint.
type WebhookSink struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewWebhookSink creates a sink for the configured webhook. TLS options
// mirror the fetcher so self-signed n8n deployments work for both.
func NewWebhookSink(cfg *model.Config) (*WebhookSink, error) {
	tlsCfg, err := util.NewTLSConfig(cfg.HTTP.InsecureTLS, cfg.HTTP.CACertPath)
	if err != nil {
		return nil, err
	}

	return &WebhookSink{
		url:       cfg.Sink.WebhookURL,
		userAgent: cfg.HTTP.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Sink.Timeout,
			Transport: &http.Transport{
				Proxy:           util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
				TLSClientConfig: tlsCfg,
			},
		},
	}, nil
}

// Send posts the fact and classifies the response: 2xx delivered, 5xx and
// 429 transient, any other status permanent. Network errors are transient.
func (s *WebhookSink) Send(ctx context.Context, fact *model.Fact) (Outcome, error) {
	payload, err := json.Marshal(fact)
	if err != nil {
		return OutcomePermanent, fmt.Errorf("encode fact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return OutcomePermanent, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return OutcomeTransient, fmt.Errorf("post fact: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return OutcomeDelivered, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = resp.Status
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return OutcomeTransient, fmt.Errorf("webhook status %d: %s", resp.StatusCode, detail)
	}
	return OutcomePermanent, fmt.Errorf("webhook status %d: %s", resp.StatusCode, detail)
}
