package worker

import (
	"context"
	"sort"

	"alibi/internal/model"
)

// Checker runs the consistency pipeline for one story
type Checker interface {
	Check(ctx context.Context, story model.Story) (*model.Judgment, error)
}

// StoryJob represents one story consistency check
type StoryJob struct {
	Story   model.Story
	Checker Checker
}

// Execute executes the story check
func (j *StoryJob) Execute(ctx context.Context) Result {
	judgment, err := j.Checker.Check(ctx, j.Story)
	return &StoryResult{
		StoryID:  j.Story.ID,
		Judgment: judgment,
		Err:      err,
	}
}

// StoryResult represents the result of a story check
type StoryResult struct {
	StoryID  string
	Judgment *model.Judgment
	Err      error
}

// GetError returns the error from the story result
func (r *StoryResult) GetError() error {
	return r.Err
}

// BatchProcessor checks multiple stories concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessStories checks multiple stories concurrently. Results are
// returned sorted by story id so the result sink is deterministic.
func (b *BatchProcessor) ProcessStories(ctx context.Context, stories []model.Story) []*StoryResult {
	if len(stories) == 0 {
		return []*StoryResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, story := range stories {
		pool.Submit(&StoryJob{
			Story:   story,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	storyResults := make([]*StoryResult, len(results))
	for i, result := range results {
		storyResults[i] = result.(*StoryResult)
	}

	sort.Slice(storyResults, func(i, j int) bool {
		return storyResults[i].StoryID < storyResults[j].StoryID
	})

	return storyResults
}
