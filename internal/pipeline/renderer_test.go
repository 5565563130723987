package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"alibi/internal/model"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")

	judgments := []*model.Judgment{
		{StoryID: "a1", Prediction: 0, Rationale: "contradiction: claim \"x\" conflicts with the narrative"},
		{StoryID: "a2", Prediction: 1, Rationale: "all 3 claims supported, with \"quoted, commas\""},
	}

	if err := WriteCSV(path, judgments); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Story ID" || rows[0][1] != "Prediction" || rows[0][2] != "Rationale" {
		t.Errorf("wrong header: %v", rows[0])
	}
	if rows[1][0] != "a1" || rows[1][1] != "0" {
		t.Errorf("wrong first row: %v", rows[1])
	}
	if rows[2][2] != judgments[1].Rationale {
		t.Errorf("rationale must survive CSV quoting, got %q", rows[2][2])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "Story ID,Prediction,Rationale\n" {
		t.Errorf("expected header-only file, got %q", string(data))
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()

	j := &model.Judgment{
		StoryID:    "b7",
		Prediction: 1,
		Rationale:  "no contradicting evidence found",
		Claims:     []model.Claim{{ID: "c1", Text: "x", Source: model.ClaimSourceLLM}},
		Coverage:   model.Coverage{TotalChunks: 4, EvaluatedChunks: 4},
	}

	if err := WriteJSONReport(dir, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "b7.json"))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var got model.Judgment
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if got.StoryID != "b7" || got.Prediction != 1 || len(got.Claims) != 1 {
		t.Errorf("report round-trip mismatch: %+v", got)
	}
}
