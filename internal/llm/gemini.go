package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	apiKey string
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	return &GeminiProvider{
		apiKey: strings.TrimSpace(config.APIKey),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gemini API check failed (client creation): %v\n", err)
		return false
	}
	defer cl.Close()

	// Simple check: try to list models (lightweight API call)
	it := cl.ListModels(ctx)
	if _, err := it.Next(); err != nil && err != iterator.Done {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// ExtractClaims extracts backstory claims using the Gemini API
func (p *GeminiProvider) ExtractClaims(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	prompt := BuildExtractPrompt(req.Backstory, req.MaxClaims)

	content, model, tokens, err := p.complete(ctx, extractSystemPrompt, prompt, req.Model, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	return &ExtractResponse{
		Claims:     ParseClaimList(content, req.MaxClaims),
		Model:      model,
		TokensUsed: tokens,
	}, nil
}

// EvaluateChunk evaluates all claims against one chunk in a single call
func (p *GeminiProvider) EvaluateChunk(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	prompt := BuildEvaluatePrompt(req.ChunkText, req.Claims)

	content, model, tokens, err := p.complete(ctx, evaluateSystemPrompt, prompt, req.Model, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	findings, err := ParseFindings(content)
	if err != nil {
		return nil, fmt.Errorf("parse findings: %w", err)
	}

	return &EvaluateResponse{
		Findings:   findings,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}

// complete makes a single GenerateContent request.
// A fresh client per call keeps the provider stateless.
func (p *GeminiProvider) complete(ctx context.Context, system, prompt, reqModel string, reqMaxTokens int) (string, string, int, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", "", 0, fmt.Errorf("create client: %w", err)
	}
	defer cl.Close()

	// Determine model
	modelName := reqModel
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	// Determine max tokens
	maxTokens := reqMaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0.1), // Near-deterministic output for consistent verdicts
		MaxOutputTokens:  ptrInt32(int32(maxTokens)),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(system),
		},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", "", 0, err
	}

	content := strings.TrimSpace(firstText(resp))
	if content == "" {
		return "", "", 0, fmt.Errorf("empty response from Gemini")
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return content, modelName, tokens, nil
}

// firstText returns the first text part of the first candidate
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
