package model

// Story pairs a long-form narrative with the hypothetical backstory
// being checked against it. Both texts are immutable for the duration
// of one pipeline run.
type Story struct {
	ID        string `json:"id"`        // Story identifier, unique per run
	Narrative string `json:"narrative"` // The long-form source text
	Backstory string `json:"backstory"` // The hypothetical character history
}

// Chunk is a contiguous span of the narrative.
// Spans are half-open [Start, End), non-overlapping, and cover the
// narrative in order.
type Chunk struct {
	Index     int    `json:"index"`               // Sequence index (0-based)
	Start     int    `json:"start"`               // Byte offset of the first character
	End       int    `json:"end"`                 // Byte offset past the last character
	Text      string `json:"text"`                // The chunk content
	Oversized bool   `json:"oversized,omitempty"` // Single paragraph exceeded the size budget
}
