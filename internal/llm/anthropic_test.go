package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func anthropicMockServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key header, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("expected anthropic-version header")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": ` + jsonString(text) + `}],
			"model": "claude-3-5-sonnet-20241022",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 50, "output_tokens": 30}
		}`))
	}))
}

func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestAnthropicProvider_ExtractClaims(t *testing.T) {
	server := anthropicMockServer(t, `{"claims": ["She studied medicine."]}`)
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	resp, err := provider.ExtractClaims(context.Background(), ExtractRequest{
		Backstory: "She studied medicine in the capital.",
		MaxClaims: 5,
	})
	if err != nil {
		t.Fatalf("ExtractClaims failed: %v", err)
	}

	if len(resp.Claims) != 1 || resp.Claims[0] != "She studied medicine." {
		t.Errorf("unexpected claims: %v", resp.Claims)
	}
	if resp.TokensUsed != 80 {
		t.Errorf("expected 80 total tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_EvaluateChunk(t *testing.T) {
	server := anthropicMockServer(t, `{"findings": [{"claim_id": "c1", "polarity": "supports", "excerpt": "her medical bag", "confidence": 0.7}]}`)
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	resp, err := provider.EvaluateChunk(context.Background(), EvaluateRequest{
		ChunkText: "She reached for her medical bag.",
		Claims:    []ClaimRef{{ID: "c1", Text: "She studied medicine."}},
	})
	if err != nil {
		t.Fatalf("EvaluateChunk failed: %v", err)
	}

	if len(resp.Findings) != 1 || resp.Findings[0].Polarity != "supports" {
		t.Errorf("unexpected findings: %+v", resp.Findings)
	}
}

func TestAnthropicProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "Rate limited"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if _, err := provider.EvaluateChunk(context.Background(), EvaluateRequest{ChunkText: "x"}); err == nil {
		t.Error("expected error from rate-limited API")
	}
}

func TestAnthropicProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
