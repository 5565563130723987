package model

// Polarity classifies what a chunk says about a claim
type Polarity string

const (
	PolaritySupports    Polarity = "supports"    // Chunk corroborates the claim
	PolarityContradicts Polarity = "contradicts" // Chunk logically conflicts with the claim
	PolarityNeutral     Polarity = "neutral"     // Chunk is silent or irrelevant
)

// Evidence is a grounded signal tying one claim to one chunk.
// It is produced only by the chunk evaluator and never fabricated
// downstream. Non-neutral evidence must carry an excerpt that is a
// verbatim substring of its source chunk.
type Evidence struct {
	ClaimID    string   `json:"claim_id"`             // Claim this evidence refers to
	ChunkIndex int      `json:"chunk_index"`          // Chunk the excerpt came from
	Polarity   Polarity `json:"polarity"`             // supports, contradicts, neutral
	Excerpt    string   `json:"excerpt,omitempty"`    // Verbatim grounding quote
	Confidence float64  `json:"confidence,omitempty"` // Chunk-local confidence (0-1)
}

// AggregatedVerdict is the complete evidence summary for one claim
// across all evaluated chunks. Built solely by the aggregator and
// read-only afterward.
type AggregatedVerdict struct {
	ClaimID      string     `json:"claim_id"`
	ClaimText    string     `json:"claim_text"`
	Supports     []Evidence `json:"supports,omitempty"`
	Contradicts  []Evidence `json:"contradicts,omitempty"`
	NeutralCount int        `json:"neutral_count"`
}

// Supported reports whether at least one chunk corroborates the claim
func (v *AggregatedVerdict) Supported() bool {
	return len(v.Supports) > 0
}

// Contradicted reports whether at least one chunk conflicts with the claim
func (v *AggregatedVerdict) Contradicted() bool {
	return len(v.Contradicts) > 0
}
