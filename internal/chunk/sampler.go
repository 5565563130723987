package chunk

import (
	"alibi/internal/model"
)

// Selection is the sampler output: the chunks to evaluate plus enough
// bookkeeping for downstream consumers to attach a partial-coverage
// caveat to the rationale.
type Selection struct {
	Chunks  []model.Chunk
	Sampled bool // Whether the budget forced a subset
	Omitted int  // How many chunks were skipped
}

// Select returns the chunk sequence unchanged when it fits the budget.
// Otherwise it picks a deterministic, even-stride subset that preserves
// narrative order and spans the whole document, since contradictions
// can appear anywhere. A budget <= 0 means unlimited.
func Select(chunks []model.Chunk, budget int) Selection {
	if budget <= 0 || len(chunks) <= budget {
		return Selection{Chunks: chunks}
	}

	picked := make([]model.Chunk, 0, budget)
	for i := 0; i < budget; i++ {
		idx := i * len(chunks) / budget
		picked = append(picked, chunks[idx])
	}

	return Selection{
		Chunks:  picked,
		Sampled: true,
		Omitted: len(chunks) - budget,
	}
}
