package chunk

import (
	"testing"

	"alibi/internal/model"
)

func makeChunks(n int) []model.Chunk {
	chunks := make([]model.Chunk, n)
	for i := range chunks {
		chunks[i] = model.Chunk{Index: i, Start: i * 10, End: (i + 1) * 10}
	}
	return chunks
}

func TestSelect_IdentityUnderBudget(t *testing.T) {
	chunks := makeChunks(5)

	sel := Select(chunks, 10)

	if sel.Sampled {
		t.Error("short sequences must never be sampled")
	}
	if sel.Omitted != 0 {
		t.Errorf("expected 0 omitted, got %d", sel.Omitted)
	}
	if len(sel.Chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(sel.Chunks))
	}
	for i := range chunks {
		if sel.Chunks[i] != chunks[i] {
			t.Errorf("chunk %d changed by identity selection", i)
		}
	}
}

func TestSelect_IdentityAtExactBudget(t *testing.T) {
	chunks := makeChunks(10)
	sel := Select(chunks, 10)
	if sel.Sampled || len(sel.Chunks) != 10 {
		t.Errorf("selection at exact budget must be identity, got sampled=%v len=%d", sel.Sampled, len(sel.Chunks))
	}
}

func TestSelect_StrideSampling(t *testing.T) {
	chunks := makeChunks(100)

	sel := Select(chunks, 10)

	if !sel.Sampled {
		t.Error("expected sampled flag when count exceeds budget")
	}
	if len(sel.Chunks) != 10 {
		t.Fatalf("expected 10 chunks, got %d", len(sel.Chunks))
	}
	if sel.Omitted != 90 {
		t.Errorf("expected 90 omitted, got %d", sel.Omitted)
	}

	// Order preserved and the subset spans the document, not a prefix
	for i := 1; i < len(sel.Chunks); i++ {
		if sel.Chunks[i].Index <= sel.Chunks[i-1].Index {
			t.Error("sampled chunks out of order")
		}
	}
	if sel.Chunks[0].Index != 0 {
		t.Errorf("expected first chunk in sample, got index %d", sel.Chunks[0].Index)
	}
	if last := sel.Chunks[len(sel.Chunks)-1].Index; last < 90 {
		t.Errorf("sample does not reach the end of the document, last index %d", last)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	chunks := makeChunks(57)

	a := Select(chunks, 20)
	b := Select(chunks, 20)

	if len(a.Chunks) != len(b.Chunks) {
		t.Fatal("sample sizes differ between runs")
	}
	for i := range a.Chunks {
		if a.Chunks[i].Index != b.Chunks[i].Index {
			t.Error("sampling is not deterministic")
		}
	}
}

func TestSelect_UnlimitedBudget(t *testing.T) {
	chunks := makeChunks(30)
	sel := Select(chunks, 0)
	if sel.Sampled || len(sel.Chunks) != 30 {
		t.Error("budget <= 0 must mean unlimited")
	}
}
