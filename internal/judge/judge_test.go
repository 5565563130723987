package judge

import (
	"strings"
	"testing"

	"alibi/internal/model"
)

func fullCoverage(n int) model.Coverage {
	return model.Coverage{TotalChunks: n, EvaluatedChunks: n}
}

func supported(id, text, excerpt string) model.AggregatedVerdict {
	return model.AggregatedVerdict{
		ClaimID:   id,
		ClaimText: text,
		Supports: []model.Evidence{
			{ClaimID: id, ChunkIndex: 0, Polarity: model.PolaritySupports, Excerpt: excerpt},
		},
	}
}

func unsupported(id, text string) model.AggregatedVerdict {
	return model.AggregatedVerdict{ClaimID: id, ClaimText: text, NeutralCount: 1}
}

func TestDecide_ContradictionWins(t *testing.T) {
	verdicts := []model.AggregatedVerdict{
		supported("c1", "She grew up in the capital.", "raised in the capital"),
		{
			ClaimID:   "c2",
			ClaimText: "She never learned to read.",
			Supports: []model.Evidence{
				{ClaimID: "c2", ChunkIndex: 1, Polarity: model.PolaritySupports, Excerpt: "signed with an X"},
			},
			Contradicts: []model.Evidence{
				{ClaimID: "c2", ChunkIndex: 4, Polarity: model.PolarityContradicts, Excerpt: "she read the letter aloud"},
			},
		},
	}

	j := NewJudge().Decide("s1", nil, verdicts, fullCoverage(5))

	if j.Prediction != model.PredictionInconsistent {
		t.Fatalf("a grounded contradiction must yield inconsistent, got %d", j.Prediction)
	}
	if !strings.HasPrefix(j.Rationale, "contradiction:") {
		t.Errorf("rationale must lead with the contradiction, got %q", j.Rationale)
	}
	if !strings.Contains(j.Rationale, "she read the letter aloud") {
		t.Errorf("rationale must cite the contradicting excerpt, got %q", j.Rationale)
	}
	if !strings.Contains(j.Rationale, "She never learned to read.") {
		t.Errorf("rationale must cite the contradicted claim, got %q", j.Rationale)
	}
}

func TestDecide_AllSupported(t *testing.T) {
	verdicts := []model.AggregatedVerdict{
		supported("c1", "He was a blacksmith.", "the smith's hammer"),
		supported("c2", "He lost an eye.", "his one good eye"),
	}

	j := NewJudge().Decide("s1", nil, verdicts, fullCoverage(3))

	if j.Prediction != model.PredictionConsistent {
		t.Fatalf("fully supported claims must yield consistent, got %d", j.Prediction)
	}
	if !strings.Contains(j.Rationale, "all 2 claims supported") {
		t.Errorf("unexpected rationale: %q", j.Rationale)
	}
}

func TestDecide_UnsupportedIsNotContradiction(t *testing.T) {
	verdicts := []model.AggregatedVerdict{
		supported("c1", "He was a blacksmith.", "the smith's hammer"),
		unsupported("c2", "He was born in a fishing village."),
		unsupported("c3", "His mother sang."),
	}

	j := NewJudge().Decide("s1", nil, verdicts, fullCoverage(3))

	if j.Prediction != model.PredictionConsistent {
		t.Fatalf("silence is not conflict; expected consistent, got %d", j.Prediction)
	}
	if !strings.Contains(j.Rationale, "2 of 3 claims unsupported") {
		t.Errorf("unexpected rationale: %q", j.Rationale)
	}
}

func TestDecide_NoVerdicts(t *testing.T) {
	j := NewJudge().Decide("s1", nil, nil, fullCoverage(0))

	if j.Prediction != model.PredictionConsistent {
		t.Fatalf("no claims must default to consistent, got %d", j.Prediction)
	}
	if !strings.Contains(j.Rationale, "insufficient claims") {
		t.Errorf("unexpected rationale: %q", j.Rationale)
	}
}

func TestDecide_PartialCoverageCaveat(t *testing.T) {
	verdicts := []model.AggregatedVerdict{unsupported("c1", "He traveled east.")}
	coverage := model.Coverage{
		TotalChunks:     40,
		EvaluatedChunks: 20,
		Sampled:         true,
		OmittedChunks:   20,
		FailedChunks:    2,
	}

	j := NewJudge().Decide("s1", nil, verdicts, coverage)

	if j.Prediction != model.PredictionConsistent {
		t.Fatalf("partial coverage must not change the decision, got %d", j.Prediction)
	}
	if !strings.Contains(j.Rationale, "partial coverage") {
		t.Errorf("rationale must disclose partial coverage, got %q", j.Rationale)
	}
	if !strings.Contains(j.Rationale, "20 of 40 chunks sampled") {
		t.Errorf("rationale must state the sampling ratio, got %q", j.Rationale)
	}
	if !strings.Contains(j.Rationale, "2 chunk evaluations failed") {
		t.Errorf("rationale must state failed evaluations, got %q", j.Rationale)
	}
}

func TestDecide_FullCoverageNoCaveat(t *testing.T) {
	verdicts := []model.AggregatedVerdict{supported("c1", "x", "y")}

	j := NewJudge().Decide("s1", nil, verdicts, fullCoverage(2))

	if strings.Contains(j.Rationale, "partial coverage") {
		t.Errorf("full coverage must not carry a caveat, got %q", j.Rationale)
	}
}

func TestDecide_PopulatesJudgmentFields(t *testing.T) {
	claims := []model.Claim{{ID: "c1", Text: "x"}}
	verdicts := []model.AggregatedVerdict{supported("c1", "x", "y")}

	j := NewJudge().Decide("story-7", claims, verdicts, fullCoverage(1))

	if j.StoryID != "story-7" {
		t.Errorf("expected story id carried through, got %q", j.StoryID)
	}
	if len(j.Claims) != 1 || len(j.Verdicts) != 1 {
		t.Error("judgment must carry the claims and verdicts it was decided on")
	}
	if j.DecidedAt.IsZero() {
		t.Error("judgment must be timestamped")
	}
}
