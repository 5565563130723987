package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	client := openai.NewClientWithConfig(clientConfig)

	return &OpenAIProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// ExtractClaims extracts backstory claims using the Chat Completions API
func (p *OpenAIProvider) ExtractClaims(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	prompt := BuildExtractPrompt(req.Backstory, req.MaxClaims)

	content, model, tokens, err := p.complete(ctx, extractSystemPrompt, prompt, req.Model, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	return &ExtractResponse{
		Claims:     ParseClaimList(content, req.MaxClaims),
		Model:      model,
		TokensUsed: tokens,
	}, nil
}

// EvaluateChunk evaluates all claims against one chunk in a single call
func (p *OpenAIProvider) EvaluateChunk(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	prompt := BuildEvaluatePrompt(req.ChunkText, req.Claims)

	content, model, tokens, err := p.complete(ctx, evaluateSystemPrompt, prompt, req.Model, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
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

// complete makes a single chat completion request
func (p *OpenAIProvider) complete(ctx context.Context, system, prompt, reqModel string, reqMaxTokens int) (string, string, int, error) {
	// Determine model
	model := reqModel
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini // Default to gpt-4o-mini
	}

	// Determine max tokens
	maxTokens := reqMaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	// Create timeout context
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1, // Near-deterministic output for consistent verdicts
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", "", 0, err
	}

	if len(resp.Choices) == 0 {
		return "", "", 0, fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), resp.Model, resp.Usage.TotalTokens, nil
}
