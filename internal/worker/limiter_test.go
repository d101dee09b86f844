package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowPerDomain(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://a.example/x") {
		t.Error("first request for domain should be allowed")
	}
	if l.Allow("https://a.example/y") {
		t.Error("second immediate request for same domain should be limited")
	}
	// Different domain has its own budget.
	if !l.Allow("https://b.example/x") {
		t.Error("request for a different domain should be allowed")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.01, 1)

	// Consume the only token.
	if err := l.Wait(context.Background(), "https://slow.example/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://slow.example/"); err == nil {
		t.Error("expected context deadline error while waiting for rate budget")
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if l.Allow("://bad") {
		t.Error("unparseable URL should not be allowed")
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(1, 0)
	if l.defaultBurst != 1 {
		t.Errorf("expected default burst 1, got %d", l.defaultBurst)
	}
}
