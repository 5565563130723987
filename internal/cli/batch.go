package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"alibi/internal/model"
	"alibi/internal/pipeline"
	"alibi/internal/store"
	"alibi/internal/worker"
)

var (
	storyWorkers int
	csvPath      string
	jsonDir      string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dataset-dir>",
	Short: "Check every story in a dataset directory",
	Long: `Batch checks a directory of stories concurrently. Each story is a
file pair named <id>.narrative.txt (or .html) and <id>.backstory.txt
(or .html). Results are written as one CSV row per story, in story id
order.

Example:
  alibi batch ./dataset
  alibi batch ./dataset --workers 4 --output results.csv
  alibi batch ./dataset --json-dir ./reports --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&storyWorkers, "workers", 0, "concurrent stories (0 = config default)")
	batchCmd.Flags().StringVar(&csvPath, "output", "", "result CSV path (default: results.csv)")
	batchCmd.Flags().StringVar(&jsonDir, "json-dir", "", "write full JSON reports to this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total batch timeout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if storyWorkers > 0 {
		cfg.Concurrency.StoryWorkers = storyWorkers
	}
	if csvPath != "" {
		cfg.Output.CSVPath = csvPath
	}
	if jsonDir != "" {
		cfg.Output.JSONDir = jsonDir
	}

	stories, err := loadDataset(dir)
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		return fmt.Errorf("no stories found in %s (expected <id>.narrative.txt / <id>.backstory.txt pairs)", dir)
	}

	fmt.Fprintf(os.Stderr, "Checking %d stories with %d workers\n", len(stories), cfg.Concurrency.StoryWorkers)

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.StoryWorkers)
	results := processor.ProcessStories(ctx, stories)

	var judgments []*model.Judgment
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.StoryID, r.Err)
			continue
		}
		judgments = append(judgments, r.Judgment)

		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %d (%s)\n", r.StoryID, r.Judgment.Prediction, r.Judgment.Rationale)
		}
		if cfg.Output.JSONDir != "" {
			if err := pipeline.WriteJSONReport(cfg.Output.JSONDir, r.Judgment); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: writing report: %v\n", r.StoryID, err)
			}
		}
	}

	if err := pipeline.WriteCSV(cfg.Output.CSVPath, judgments); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d checked, %d failed, results in %s\n",
		len(judgments), failures, cfg.Output.CSVPath)

	if failures > 0 {
		return fmt.Errorf("%d of %d stories failed", failures, len(results))
	}
	return nil
}

// loadDataset reads every story pair from the directory up front, so
// unreadable files fail the run before any service calls are made
func loadDataset(dir string) ([]model.Story, error) {
	s := store.NewDirStore(dir)

	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}

	stories := make([]model.Story, 0, len(ids))
	for _, id := range ids {
		story, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, nil
}
