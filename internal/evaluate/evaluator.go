package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"alibi/internal/cache"
	"alibi/internal/llm"
	"alibi/internal/model"
	"alibi/internal/worker"
)

const evaluateMaxRetries = 3

// evaluateSleepFunc is the sleep function used between retries (injectable for tests)
var evaluateSleepFunc = time.Sleep

// ChunkEvaluator asks the reasoning service whether one chunk supports,
// contradicts, or is silent on each claim. Claims are batched into one
// call per chunk; chunks are independent of each other. All service
// failure handling lives here: the pipeline above only ever sees a
// complete evidence list.
type ChunkEvaluator struct {
	provider llm.Provider
	limiter  *worker.Limiter
	cache    cache.Cache
	verbose  bool
}

// NewChunkEvaluator creates a new chunk evaluator
func NewChunkEvaluator(provider llm.Provider, limiter *worker.Limiter, c cache.Cache, verbose bool) *ChunkEvaluator {
	return &ChunkEvaluator{
		provider: provider,
		limiter:  limiter,
		cache:    c,
		verbose:  verbose,
	}
}

// Evaluate returns exactly one Evidence entry per claim for the chunk,
// plus whether the service call itself went through. Non-neutral
// verdicts must be grounded: a verdict whose excerpt cannot be located
// in the chunk is downgraded to neutral. A failed or malformed service
// call degrades to all-neutral evidence with ok=false - missing
// evidence biases toward "no contradiction", never toward a fabricated
// one.
func (e *ChunkEvaluator) Evaluate(ctx context.Context, chunk model.Chunk, claims []model.Claim) ([]model.Evidence, bool) {
	evidence := neutralEvidence(chunk.Index, claims)
	if e.provider == nil || len(claims) == 0 {
		return evidence, true
	}

	refs := make([]llm.ClaimRef, len(claims))
	position := make(map[string]int, len(claims))
	for i, c := range claims {
		refs[i] = llm.ClaimRef{ID: c.ID, Text: c.Text}
		position[c.ID] = i
	}

	resp, err := e.callWithRetry(ctx, llm.EvaluateRequest{
		ChunkText: chunk.Text,
		Claims:    refs,
	})
	if err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "Warning: chunk %d evaluation failed, recording neutral evidence: %v\n", chunk.Index, err)
		}
		return evidence, false
	}

	for _, f := range resp.Findings {
		idx, ok := position[f.ClaimID]
		if !ok {
			// Service invented a claim id; never let it reach aggregation
			continue
		}

		polarity := model.Polarity(f.Polarity)
		if polarity != model.PolaritySupports && polarity != model.PolarityContradicts {
			continue
		}

		excerpt, grounded := groundExcerpt(chunk.Text, f.Excerpt)
		if !grounded {
			// Grounding is mandatory, not advisory
			continue
		}

		evidence[idx] = model.Evidence{
			ClaimID:    f.ClaimID,
			ChunkIndex: chunk.Index,
			Polarity:   polarity,
			Excerpt:    excerpt,
			Confidence: clampConfidence(f.Confidence),
		}
	}

	return evidence, true
}

// callWithRetry checks the cache, respects the rate limit, and retries
// transient failures with exponential backoff
func (e *ChunkEvaluator) callWithRetry(ctx context.Context, req llm.EvaluateRequest) (*llm.EvaluateResponse, error) {
	key := e.cacheKey(req)
	if e.cache != nil {
		if data, found := e.cache.Get(key); found {
			var resp llm.EvaluateResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	var lastErr error
	for attempt := 0; attempt < evaluateMaxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, e.provider.Name()); err != nil {
				return nil, err
			}
		}

		resp, err := e.provider.EvaluateChunk(ctx, req)
		if err == nil {
			if e.cache != nil {
				if data, merr := json.Marshal(resp); merr == nil {
					_ = e.cache.Set(key, data, 0)
				}
			}
			return resp, nil
		}

		lastErr = err
		if !isRetryableError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < evaluateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			evaluateSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// cacheKey derives a stable key from the full request payload
func (e *ChunkEvaluator) cacheKey(req llm.EvaluateRequest) string {
	payload, _ := json.Marshal(req)
	return cache.Key(e.provider.Name(), req.Model, string(payload))
}

// neutralEvidence is the conservative baseline: one neutral entry per claim
func neutralEvidence(chunkIndex int, claims []model.Claim) []model.Evidence {
	evidence := make([]model.Evidence, len(claims))
	for i, c := range claims {
		evidence[i] = model.Evidence{
			ClaimID:    c.ID,
			ChunkIndex: chunkIndex,
			Polarity:   model.PolarityNeutral,
		}
	}
	return evidence
}

// groundExcerpt verifies the excerpt against the chunk text. Verbatim
// substrings pass as-is; near-verbatim matches (differing only in
// whitespace, case, or quote style) pass with the model's excerpt.
// Anything looser fails and the verdict is downgraded.
func groundExcerpt(chunkText, excerpt string) (string, bool) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return "", false
	}

	if strings.Contains(chunkText, excerpt) {
		return excerpt, true
	}

	if strings.Contains(normalizeForMatch(chunkText), normalizeForMatch(excerpt)) {
		return excerpt, true
	}

	return "", false
}

// normalizeForMatch collapses whitespace, lowercases, and flattens
// typographic quotes so formatting noise does not defeat grounding
func normalizeForMatch(s string) string {
	var sb strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(s) {
		switch r {
		case '‘', '’':
			r = '\''
		case '“', '”':
			r = '"'
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				sb.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}

// clampConfidence bounds a reported confidence to [0, 1]
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// isRetryableError checks error strings for transient service failures
func isRetryableError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "(500") ||
		strings.Contains(s, "(502") ||
		strings.Contains(s, "(503")
}
