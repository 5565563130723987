package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 4 {
		t.Errorf("expected default burst 4 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different provider has its own bucket
	if err := limiter.Wait(ctx, "gemini"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_ExhaustedBucket(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst of 1 is consumed; Allow must fail without blocking
	if limiter.Allow("openai") {
		t.Error("expected allow to fail (exhausted tokens)")
	}

	// Another provider is unaffected
	if !limiter.Allow("ollama") {
		t.Error("expected allow for a different provider")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default

	limiter.SetRate("slow", 0.1, 1)

	if !limiter.Allow("slow") {
		t.Error("first request should pass the burst")
	}
	if limiter.Allow("slow") {
		t.Error("second request should be throttled")
	}

	if !limiter.Allow("fast") {
		t.Error("other providers keep the default rate")
	}
}
