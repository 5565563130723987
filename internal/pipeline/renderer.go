package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"alibi/internal/model"
)

// csvHeader is the stable result-sink schema
var csvHeader = []string{"Story ID", "Prediction", "Rationale"}

// WriteCSV writes one row per judgment to path, creating parent
// directories as needed. Rows follow the order of the input slice.
func WriteCSV(path string, judgments []*model.Judgment) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, j := range judgments {
		row := []string{j.StoryID, strconv.Itoa(j.Prediction), j.Rationale}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row for story %s: %w", j.StoryID, err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteJSONReport writes the full judgment (claims, verdicts, coverage)
// for one story as <dir>/<story id>.json, for inspection beyond the
// one-line CSV rationale.
func WriteJSONReport(dir string, j *model.Judgment) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report for story %s: %w", j.StoryID, err)
	}

	path := filepath.Join(dir, j.StoryID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
