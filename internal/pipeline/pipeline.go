package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"alibi/internal/aggregate"
	"alibi/internal/cache"
	"alibi/internal/chunk"
	"alibi/internal/evaluate"
	"alibi/internal/extract"
	"alibi/internal/judge"
	"alibi/internal/llm"
	"alibi/internal/model"
	"alibi/internal/worker"
)

// extractor turns a backstory into claims
type extractor interface {
	Extract(ctx context.Context, backstory string) []model.Claim
}

// evaluator checks one chunk against the claim set
type evaluator interface {
	Evaluate(ctx context.Context, c model.Chunk, claims []model.Claim) ([]model.Evidence, bool)
}

// Pipeline runs the full consistency check for one story: chunk the
// narrative, extract claims from the backstory, evaluate chunks
// concurrently, aggregate the evidence, judge. Each stage consumes
// only the previous stage's output, so a story check is a single
// forward pass.
type Pipeline struct {
	chunker     *chunk.Chunker
	chunkBudget int
	extractor   extractor
	evaluator   evaluator
	judge       *judge.Judge
	workers     int
	verbose     bool
}

// New wires a pipeline from configuration. The provider may be nil, in
// which case extraction falls back to heuristics and every chunk reads
// as neutral.
func New(cfg *model.Config, provider llm.Provider, limiter *worker.Limiter, c cache.Cache) *Pipeline {
	workers := cfg.Concurrency.ChunkWorkers
	if workers <= 0 {
		workers = 1
	}

	return &Pipeline{
		chunker:     chunk.NewChunker(cfg.Chunking.MaxChunkChars),
		chunkBudget: cfg.Sampling.ChunkBudget,
		extractor:   extract.NewClaimExtractor(provider, c, cfg.LLM.MaxClaims, cfg.Output.Verbose),
		evaluator:   evaluate.NewChunkEvaluator(provider, limiter, c, cfg.Output.Verbose),
		judge:       judge.NewJudge(),
		workers:     workers,
		verbose:     cfg.Output.Verbose,
	}
}

// Check runs the pipeline for one story and returns exactly one
// judgment. Degraded inputs and service failures resolve to a
// conservative consistent verdict; the only error path is an internal
// invariant breach surfaced by aggregation.
func (p *Pipeline) Check(ctx context.Context, story model.Story) (*model.Judgment, error) {
	if strings.TrimSpace(story.Narrative) == "" || strings.TrimSpace(story.Backstory) == "" {
		return &model.Judgment{
			StoryID:    story.ID,
			Prediction: model.PredictionConsistent,
			Rationale:  "missing narrative or backstory; nothing to contradict",
			DecidedAt:  time.Now().UTC(),
		}, nil
	}

	claims := p.extractor.Extract(ctx, story.Backstory)

	chunks := p.chunker.Chunk(story.Narrative)
	selection := chunk.Select(chunks, p.chunkBudget)

	coverage := model.Coverage{
		TotalChunks:     len(chunks),
		EvaluatedChunks: len(selection.Chunks),
		Sampled:         selection.Sampled,
		OmittedChunks:   selection.Omitted,
	}

	if len(claims) == 0 {
		return p.judge.Decide(story.ID, nil, nil, coverage), nil
	}

	evidence, failed := p.evaluateChunks(ctx, selection.Chunks, claims)
	coverage.FailedChunks = failed

	if p.verbose && failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: story %s: %d of %d chunk evaluations failed\n",
			story.ID, failed, len(selection.Chunks))
	}

	verdicts, err := aggregate.Aggregate(claims, evidence)
	if err != nil {
		return nil, fmt.Errorf("aggregating evidence for story %s: %w", story.ID, err)
	}

	return p.judge.Decide(story.ID, claims, verdicts, coverage), nil
}

// evaluateChunks fans the selected chunks out over a bounded worker
// set. Results land in a position-indexed slice, so the flattened
// evidence order is deterministic regardless of scheduling.
func (p *Pipeline) evaluateChunks(ctx context.Context, chunks []model.Chunk, claims []model.Claim) ([]model.Evidence, int) {
	results := make([][]model.Evidence, len(chunks))
	outcomes := make([]bool, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)

	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c model.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i], outcomes[i] = p.evaluator.Evaluate(ctx, c, claims)
		}(i, c)
	}
	wg.Wait()

	failed := 0
	var evidence []model.Evidence
	for i := range results {
		evidence = append(evidence, results[i]...)
		if !outcomes[i] {
			failed++
		}
	}
	return evidence, failed
}
