package model

import "time"

// Prediction values for the binary consistency decision
const (
	PredictionInconsistent = 0
	PredictionConsistent   = 1
)

// Judgment is the final output for one story: a binary consistency
// decision plus a rationale grounded in the collected evidence.
// Produced exactly once per run.
type Judgment struct {
	StoryID    string `json:"story_id"`
	Prediction int    `json:"prediction"` // 0 = inconsistent, 1 = consistent
	Rationale  string `json:"rationale"`

	Claims   []Claim             `json:"claims,omitempty"`   // Claims that were checked
	Verdicts []AggregatedVerdict `json:"verdicts,omitempty"` // Per-claim evidence summary, claim order
	Coverage Coverage            `json:"coverage"`           // How much of the narrative was examined

	DecidedAt time.Time `json:"decided_at"`
}

// Coverage records how much of the narrative the run actually examined,
// so partial-coverage caveats in the rationale stay honest.
type Coverage struct {
	TotalChunks     int  `json:"total_chunks"`
	EvaluatedChunks int  `json:"evaluated_chunks"`
	Sampled         bool `json:"sampled"`                  // Chunk budget forced sampling
	OmittedChunks   int  `json:"omitted_chunks,omitempty"` // Chunks skipped by the sampler
	FailedChunks    int  `json:"failed_chunks,omitempty"`  // Evaluations that degraded to all-neutral
}

// Partial reports whether any part of the narrative went unexamined
func (c Coverage) Partial() bool {
	return c.Sampled || c.FailedChunks > 0
}
