package model

// Claim represents an atomic, falsifiable assertion derived from the backstory
type Claim struct {
	ID     string `json:"id"`               // Stable identifier within a run (e.g., "c1")
	Text   string `json:"text"`             // The claim text itself
	Source string `json:"source,omitempty"` // Which extraction path produced it
}

// Claim sources
const (
	ClaimSourceLLM       = "llm"       // Extracted by the reasoning service
	ClaimSourceHeuristic = "heuristic" // Sentence-split fallback
	ClaimSourceFallback  = "fallback"  // Whole backstory as a single claim
)
