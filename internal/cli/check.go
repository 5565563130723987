package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"alibi/internal/model"
	"alibi/internal/pipeline"
	"alibi/internal/store"
)

var (
	narrativeFile string
	backstoryFile string
	storyID       string
	checkTimeout  time.Duration
	reportDir     string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check --narrative <file> --backstory <file>",
	Short: "Check one backstory against one narrative",
	Long: `Check runs the full consistency pipeline for a single story:
- Split the narrative into paragraph-aligned chunks
- Extract atomic claims from the backstory
- Evaluate every chunk against every claim
- Judge: 0 (inconsistent) or 1 (consistent), with a grounded rationale

Example:
  alibi check --narrative story.txt --backstory backstory.txt
  alibi check --narrative story.html --backstory backstory.txt --llm-provider gemini
  alibi check --narrative story.txt --backstory backstory.txt --report-dir ./reports`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&narrativeFile, "narrative", "", "narrative text file (required)")
	checkCmd.Flags().StringVar(&backstoryFile, "backstory", "", "backstory text file (required)")
	checkCmd.Flags().StringVar(&storyID, "id", "", "story id for output (default: narrative file name)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&reportDir, "report-dir", "", "write a full JSON report to this directory")

	_ = checkCmd.MarkFlagRequired("narrative")
	_ = checkCmd.MarkFlagRequired("backstory")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	story, err := loadStory(narrativeFile, backstoryFile, storyID)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking story: %s\n", story.ID)
		fmt.Fprintf(os.Stderr, "Narrative: %d chars, backstory: %d chars\n\n",
			len(story.Narrative), len(story.Backstory))
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	judgment, err := p.Check(ctx, story)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	printJudgment(judgment)

	if reportDir != "" {
		if err := pipeline.WriteJSONReport(reportDir, judgment); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", reportDir)
		}
	}

	return nil
}

// printJudgment writes the human-readable verdict to stdout
func printJudgment(j *model.Judgment) {
	label := "CONSISTENT"
	if j.Prediction == model.PredictionInconsistent {
		label = "INCONSISTENT"
	}
	fmt.Printf("%s\t%d\t%s\n", label, j.Prediction, j.Rationale)

	if verbose {
		fmt.Fprintf(os.Stderr, "\nClaims checked: %d\n", len(j.Claims))
		fmt.Fprintf(os.Stderr, "Chunks: %d total, %d evaluated, %d failed\n",
			j.Coverage.TotalChunks, j.Coverage.EvaluatedChunks, j.Coverage.FailedChunks)
		for _, v := range j.Verdicts {
			fmt.Fprintf(os.Stderr, "  [%s] support=%d contradict=%d neutral=%d  %s\n",
				v.ClaimID, len(v.Supports), len(v.Contradicts), v.NeutralCount, v.ClaimText)
		}
	}
}

// loadStory reads narrative and backstory files into a story, deriving
// an id from the narrative file name when none was given
func loadStory(narrativePath, backstoryPath, id string) (model.Story, error) {
	narrative, err := readStoryFile(narrativePath)
	if err != nil {
		return model.Story{}, fmt.Errorf("reading narrative: %w", err)
	}

	backstory, err := readStoryFile(backstoryPath)
	if err != nil {
		return model.Story{}, fmt.Errorf("reading backstory: %w", err)
	}

	if id == "" {
		id = trimStoryExt(narrativePath)
	}

	return model.Story{ID: id, Narrative: narrative, Backstory: backstory}, nil
}

// readStoryFile reads a text or HTML file; HTML is reduced to its
// visible text so chunking sees the same shape for both formats
func readStoryFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return store.VisibleText(string(data))
	default:
		return string(data), nil
	}
}

// trimStoryExt derives a story id from a file path
func trimStoryExt(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".narrative")
	return base
}
