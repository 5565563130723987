package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func openaiMockServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index:        0,
					Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_ExtractClaims(t *testing.T) {
	server := openaiMockServer(t, `{"claims": ["He grew up at sea.", "He lost his brother."]}`)
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	resp, err := provider.ExtractClaims(context.Background(), ExtractRequest{
		Backstory: "He grew up at sea and lost his brother young.",
		MaxClaims: 10,
	})
	if err != nil {
		t.Fatalf("ExtractClaims failed: %v", err)
	}

	if len(resp.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %v", resp.Claims)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("expected 100 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_EvaluateChunk(t *testing.T) {
	server := openaiMockServer(t, `{"findings": [{"claim_id": "c1", "polarity": "contradicts", "excerpt": "he had never seen the ocean", "confidence": 0.95}]}`)
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	resp, err := provider.EvaluateChunk(context.Background(), EvaluateRequest{
		ChunkText: "Until that spring he had never seen the ocean.",
		Claims:    []ClaimRef{{ID: "c1", Text: "He grew up at sea."}},
	})
	if err != nil {
		t.Fatalf("EvaluateChunk failed: %v", err)
	}

	if len(resp.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(resp.Findings))
	}
	f := resp.Findings[0]
	if f.ClaimID != "c1" || f.Polarity != "contradicts" {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if _, err := provider.EvaluateChunk(context.Background(), EvaluateRequest{ChunkText: "x"}); err == nil {
		t.Error("expected error from failing API")
	}
}

func TestOpenAIProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
