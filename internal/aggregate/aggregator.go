package aggregate

import (
	"fmt"
	"sort"

	"alibi/internal/model"
)

// Aggregate merges per-chunk evidence into per-claim verdicts. This is
// deterministic bookkeeping with no reasoning, kept separate from the
// evaluator so its correctness is testable without any reasoning
// service. Verdicts come back in claim order; evidence inside each
// verdict is ordered by chunk index.
//
// Evidence referencing an unknown claim id is a contract breach
// between evaluator and aggregator and surfaces as an error rather
// than being silently dropped.
func Aggregate(claims []model.Claim, evidence []model.Evidence) ([]model.AggregatedVerdict, error) {
	verdicts := make([]model.AggregatedVerdict, len(claims))
	index := make(map[string]int, len(claims))
	for i, c := range claims {
		verdicts[i] = model.AggregatedVerdict{
			ClaimID:   c.ID,
			ClaimText: c.Text,
		}
		index[c.ID] = i
	}

	for _, ev := range evidence {
		i, ok := index[ev.ClaimID]
		if !ok {
			return nil, fmt.Errorf("evidence references unknown claim id %q", ev.ClaimID)
		}

		switch ev.Polarity {
		case model.PolaritySupports:
			verdicts[i].Supports = append(verdicts[i].Supports, ev)
		case model.PolarityContradicts:
			verdicts[i].Contradicts = append(verdicts[i].Contradicts, ev)
		case model.PolarityNeutral:
			verdicts[i].NeutralCount++
		default:
			return nil, fmt.Errorf("evidence for claim %q has invalid polarity %q", ev.ClaimID, ev.Polarity)
		}
	}

	for i := range verdicts {
		sortByChunk(verdicts[i].Supports)
		sortByChunk(verdicts[i].Contradicts)
	}

	return verdicts, nil
}

func sortByChunk(evidence []model.Evidence) {
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].ChunkIndex < evidence[j].ChunkIndex
	})
}
