package judge

import (
	"fmt"
	"strings"
	"time"

	"alibi/internal/model"
)

// Judge turns per-claim verdicts into the final binary decision. The
// policy is deliberately conservative and asymmetric: a single grounded
// contradiction flips the story to inconsistent, while absence of
// support never does. Missing or unexamined evidence always counts in
// favor of the backstory.
type Judge struct{}

// NewJudge creates a new judge
func NewJudge() *Judge {
	return &Judge{}
}

// Decide produces the judgment for one story. Rules, in priority order:
//
//  1. Any claim with contradicting evidence: inconsistent.
//  2. Every claim supported: consistent.
//  3. Otherwise (some claims unsupported but none contradicted):
//     consistent, because the narrative simply not mentioning a claim
//     is not a conflict.
//
// When coverage was partial the rationale says so, but the decision
// itself never changes on that account.
func (j *Judge) Decide(storyID string, claims []model.Claim, verdicts []model.AggregatedVerdict, coverage model.Coverage) *model.Judgment {
	judgment := &model.Judgment{
		StoryID:   storyID,
		Claims:    claims,
		Verdicts:  verdicts,
		Coverage:  coverage,
		DecidedAt: time.Now().UTC(),
	}

	if len(verdicts) == 0 {
		judgment.Prediction = model.PredictionConsistent
		judgment.Rationale = withCoverageCaveat("insufficient claims to evaluate; defaulting to consistent", coverage)
		return judgment
	}

	for i := range verdicts {
		v := &verdicts[i]
		if !v.Contradicted() {
			continue
		}
		first := v.Contradicts[0]
		judgment.Prediction = model.PredictionInconsistent
		judgment.Rationale = withCoverageCaveat(fmt.Sprintf(
			"contradiction: claim %q conflicts with the narrative: %q (chunk %d)",
			v.ClaimText, first.Excerpt, first.ChunkIndex), coverage)
		return judgment
	}

	judgment.Prediction = model.PredictionConsistent

	unsupported := 0
	excerpts := 0
	for i := range verdicts {
		if verdicts[i].Supported() {
			excerpts += len(verdicts[i].Supports)
		} else {
			unsupported++
		}
	}

	if unsupported == 0 {
		judgment.Rationale = withCoverageCaveat(fmt.Sprintf(
			"all %d claims supported by narrative evidence (%d supporting excerpts)",
			len(verdicts), excerpts), coverage)
		return judgment
	}

	judgment.Rationale = withCoverageCaveat(fmt.Sprintf(
		"no contradicting evidence found; %d of %d claims unsupported, treated as plausible",
		unsupported, len(verdicts)), coverage)
	return judgment
}

// withCoverageCaveat appends an honesty note when parts of the
// narrative went unexamined
func withCoverageCaveat(rationale string, c model.Coverage) string {
	if !c.Partial() {
		return rationale
	}

	var parts []string
	if c.Sampled {
		parts = append(parts, fmt.Sprintf("%d of %d chunks sampled", c.EvaluatedChunks, c.TotalChunks))
	}
	if c.FailedChunks > 0 {
		parts = append(parts, fmt.Sprintf("%d chunk evaluations failed", c.FailedChunks))
	}
	return rationale + " [partial coverage: " + strings.Join(parts, "; ") + "]"
}
