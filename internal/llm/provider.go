package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"alibi/internal/model"
)

// Provider defines the reasoning-service boundary. The pipeline issues
// exactly two kinds of requests through it: claim extraction and chunk
// evaluation. Any concrete backend (remote API, local model) can be
// substituted without touching pipeline logic.
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims turns a backstory into atomic, testable claim strings
	ExtractClaims(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// EvaluateChunk asks whether a chunk supports, contradicts, or is
	// silent on each claim, with verbatim excerpts as grounding
	EvaluateChunk(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for claim extraction
type ExtractRequest struct {
	// Backstory is the hypothetical character history to decompose
	Backstory string

	// MaxClaims bounds the claim set so it fits a single evaluator prompt window
	MaxClaims int

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the extracted claim strings
type ExtractResponse struct {
	Claims     []string
	Model      string
	TokensUsed int
}

// ClaimRef is the (id, text) pair sent to the evaluator
type ClaimRef struct {
	ID   string `json:"claim_id"`
	Text string `json:"text"`
}

// EvaluateRequest contains one chunk and the full claim set.
// Claims are batched into one call so the model sees all of them in
// the same context.
type EvaluateRequest struct {
	ChunkText string
	Claims    []ClaimRef
	Model     string
	MaxTokens int
}

// Finding is one per-claim verdict as reported by the model, before
// any grounding enforcement
type Finding struct {
	ClaimID    string  `json:"claim_id"`
	Polarity   string  `json:"polarity"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// EvaluateResponse contains the model's per-claim findings for one chunk
type EvaluateResponse struct {
	Findings   []Finding
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for remote providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}

// extractSystemPrompt constrains extraction to atomic, testable statements
const extractSystemPrompt = `You decompose a character backstory into atomic, independently verifiable claims. One fact or causal assertion per claim, no compound claims. Reference only information present in the backstory, never invent.`

// evaluateSystemPrompt constrains evaluation to grounded verdicts
const evaluateSystemPrompt = `You check a narrative excerpt against a list of backstory claims. For each claim decide: supports, contradicts, or neutral. Apply causal and temporal reasoning; silence is neutral, not contradiction. Every supports or contradicts verdict MUST quote a verbatim excerpt from the narrative text. Be conservative: only report clear, specific contradictions or support.`

// BuildExtractPrompt constructs the claim-extraction prompt
func BuildExtractPrompt(backstory string, maxClaims int) string {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	return fmt.Sprintf(`Extract the key testable claims from this character backstory.

BACKSTORY:
%s

List at most %d claims that could be verified or contradicted by the main narrative. Respond with JSON only:
{"claims": ["claim one", "claim two"]}`, backstory, maxClaims)
}

// BuildEvaluatePrompt constructs the chunk-evaluation prompt. All
// claims go into one call to amortize cost and share context.
func BuildEvaluatePrompt(chunkText string, claims []ClaimRef) string {
	var list strings.Builder
	for _, c := range claims {
		fmt.Fprintf(&list, "%s. %s\n", c.ID, c.Text)
	}

	return fmt.Sprintf(`You are analyzing a section of a novel for consistency with a character's hypothetical backstory.

NARRATIVE EXCERPT:
%s

BACKSTORY CLAIMS:
%s
For each claim, report whether this excerpt supports it, contradicts it, or says nothing relevant (neutral). Quote the exact narrative text for every non-neutral verdict. Respond with JSON only:
{"findings": [{"claim_id": "c1", "polarity": "supports|contradicts|neutral", "excerpt": "verbatim quote", "confidence": 0.9}]}`, chunkText, list.String())
}

// jsonBlockPattern matches the outermost JSON object in a response
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// numberedLinePattern matches "1. claim" / "2) claim" list items
var numberedLinePattern = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)

// ParseClaimList parses claim strings out of a model response.
// Accepts the requested JSON shape, a bare JSON array, or a numbered
// list; the service returning prose around the payload must not crash
// the run.
func ParseClaimList(raw string, maxClaims int) []string {
	raw = stripCodeFences(raw)

	var claims []string

	// Preferred shape: {"claims": [...]}
	if block := jsonBlockPattern.FindString(raw); block != "" {
		var wrapper struct {
			Claims []string `json:"claims"`
		}
		if err := json.Unmarshal([]byte(block), &wrapper); err == nil {
			claims = wrapper.Claims
		}
	}

	// Bare JSON array
	if len(claims) == 0 {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				claims = arr
			}
		}
	}

	// Numbered list
	if len(claims) == 0 {
		for _, line := range strings.Split(raw, "\n") {
			if m := numberedLinePattern.FindStringSubmatch(line); m != nil {
				claims = append(claims, m[1])
			}
		}
	}

	// Dedupe by normalized text and enforce the bound
	seen := make(map[string]bool)
	var unique []string
	for _, c := range claims {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
		if maxClaims > 0 && len(unique) >= maxClaims {
			break
		}
	}

	return unique
}

// ParseFindings parses per-claim findings out of a model response.
// Unknown polarities are normalized to neutral; a response with no
// recognizable JSON payload is an error the caller degrades from.
func ParseFindings(raw string) ([]Finding, error) {
	raw = stripCodeFences(raw)

	block := jsonBlockPattern.FindString(raw)
	if block == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var wrapper struct {
		Findings []Finding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(block), &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}

	findings := wrapper.Findings
	for i := range findings {
		findings[i].Polarity = normalizePolarity(findings[i].Polarity)
	}

	return findings, nil
}

// normalizePolarity maps free-form polarity strings to the three
// canonical values
func normalizePolarity(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "supports", "support", "supporting":
		return string(model.PolaritySupports)
	case "contradicts", "contradict", "contradiction", "contradicting":
		return string(model.PolarityContradicts)
	default:
		return string(model.PolarityNeutral)
	}
}

// stripCodeFences removes markdown code fences around a JSON payload
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
