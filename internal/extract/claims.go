package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alibi/internal/cache"
	"alibi/internal/llm"
	"alibi/internal/model"
)

// ClaimExtractor turns a backstory into a bounded set of atomic,
// independently verifiable claims. Extraction happens exactly once per
// run; the result is immutable input to chunk evaluation.
type ClaimExtractor struct {
	provider  llm.Provider
	cache     cache.Cache
	maxClaims int
	verbose   bool
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(provider llm.Provider, c cache.Cache, maxClaims int, verbose bool) *ClaimExtractor {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	return &ClaimExtractor{
		provider:  provider,
		cache:     c,
		maxClaims: maxClaims,
		verbose:   verbose,
	}
}

// Extract delegates semantic extraction to the reasoning service and
// degrades gracefully: a failed or empty service response falls back
// to heuristic sentence claims, and ultimately to the whole backstory
// as a single claim. It never aborts the run.
func (e *ClaimExtractor) Extract(ctx context.Context, backstory string) []model.Claim {
	if strings.TrimSpace(backstory) == "" {
		return nil
	}

	var texts []string
	source := model.ClaimSourceLLM

	if e.provider != nil {
		resp, err := e.callWithCache(ctx, llm.ExtractRequest{
			Backstory: backstory,
			MaxClaims: e.maxClaims,
		})
		if err != nil {
			if e.verbose {
				fmt.Printf("Warning: claim extraction failed, using heuristic fallback: %v\n", err)
			}
		} else {
			texts = resp.Claims
		}
	}

	if len(texts) == 0 {
		texts = heuristicClaims(backstory, e.maxClaims)
		source = model.ClaimSourceHeuristic
	}

	// Last resort: the entire backstory as one claim
	if len(texts) == 0 {
		texts = []string{strings.TrimSpace(backstory)}
		source = model.ClaimSourceFallback
	}

	return buildClaims(texts, source, e.maxClaims)
}

// callWithCache answers repeated extractions of the same backstory
// from the response cache instead of a new service call
func (e *ClaimExtractor) callWithCache(ctx context.Context, req llm.ExtractRequest) (*llm.ExtractResponse, error) {
	payload, _ := json.Marshal(req)
	key := cache.Key(e.provider.Name(), req.Model, string(payload))

	if e.cache != nil {
		if data, found := e.cache.Get(key); found {
			var resp llm.ExtractResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	resp, err := e.provider.ExtractClaims(ctx, req)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if data, merr := json.Marshal(resp); merr == nil {
			_ = e.cache.Set(key, data, 0)
		}
	}
	return resp, nil
}

// buildClaims assigns stable ids and removes duplicates by normalized text
func buildClaims(texts []string, source string, maxClaims int) []model.Claim {
	seen := make(map[string]bool)
	var claims []model.Claim

	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.Claim{
			ID:     fmt.Sprintf("c%d", len(claims)+1),
			Text:   text,
			Source: source,
		})
		if len(claims) >= maxClaims {
			break
		}
	}

	return claims
}

// heuristicClaims splits the backstory into sentence-level claims when
// the reasoning service yields nothing usable
func heuristicClaims(backstory string, maxClaims int) []string {
	sentences := splitSentences(backstory)

	var claims []string
	for _, s := range sentences {
		if len(s) < 20 {
			continue
		}
		claims = append(claims, s)
		if len(claims) >= maxClaims {
			break
		}
	}
	return claims
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	// Replace newlines with spaces
	text = strings.ReplaceAll(text, "\n", " ")

	// Split by sentence terminators
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		// Check for sentence terminators
		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on abbreviations
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	// Add remaining text if any
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
