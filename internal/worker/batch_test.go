package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"alibi/internal/model"
)

// mockChecker implements Checker
type mockChecker struct {
	failIDs map[string]bool
}

func (c *mockChecker) Check(ctx context.Context, story model.Story) (*model.Judgment, error) {
	if c.failIDs[story.ID] {
		return nil, errors.New("check failed")
	}
	prediction := model.PredictionConsistent
	if strings.Contains(story.Backstory, "impossible") {
		prediction = model.PredictionInconsistent
	}
	return &model.Judgment{StoryID: story.ID, Prediction: prediction}, nil
}

func TestBatchProcessor_ProcessStories(t *testing.T) {
	stories := []model.Story{
		{ID: "c", Narrative: "n", Backstory: "plausible"},
		{ID: "a", Narrative: "n", Backstory: "impossible things"},
		{ID: "b", Narrative: "n", Backstory: "plausible"},
	}

	processor := NewBatchProcessor(&mockChecker{}, 2)
	results := processor.ProcessStories(context.Background(), stories)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results must come back sorted by story id regardless of scheduling
	for i, want := range []string{"a", "b", "c"} {
		if results[i].StoryID != want {
			t.Errorf("result %d: expected story %s, got %s", i, want, results[i].StoryID)
		}
	}

	if results[0].Judgment.Prediction != model.PredictionInconsistent {
		t.Error("expected story a to be judged inconsistent")
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	stories := []model.Story{
		{ID: "ok", Narrative: "n", Backstory: "b"},
		{ID: "broken", Narrative: "n", Backstory: "b"},
	}

	processor := NewBatchProcessor(&mockChecker{failIDs: map[string]bool{"broken": true}}, 2)
	results := processor.ProcessStories(context.Background(), stories)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, r := range results {
		switch r.StoryID {
		case "ok":
			if r.Err != nil || r.Judgment == nil {
				t.Errorf("story ok should succeed, got err=%v", r.Err)
			}
		case "broken":
			if r.Err == nil {
				t.Error("story broken should carry its error")
			}
		}
	}
}

// ctxChecker counts Check calls that observe a live context
type ctxChecker struct {
	liveCalls int32
}

func (c *ctxChecker) Check(ctx context.Context, story model.Story) (*model.Judgment, error) {
	if ctx.Err() == nil {
		atomic.AddInt32(&c.liveCalls, 1)
	}
	return nil, ctx.Err()
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &ctxChecker{}
	processor := NewBatchProcessor(checker, 2)
	processor.ProcessStories(ctx, []model.Story{
		{ID: "a", Narrative: "n", Backstory: "b"},
		{ID: "b", Narrative: "n", Backstory: "b"},
	})

	// The run-level timeout must reach the checks: no story may be
	// evaluated against a live context after the caller cancelled
	if n := atomic.LoadInt32(&checker.liveCalls); n != 0 {
		t.Errorf("%d story checks ran with a live context after cancellation", n)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{}, 2)
	results := processor.ProcessStories(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
