package chunk

import (
	"alibi/internal/model"
)

// Chunker splits a narrative into bounded, paragraph-respecting segments
type Chunker struct {
	maxChars int
}

// NewChunker creates a new chunker with the given size budget per chunk
func NewChunker(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &Chunker{maxChars: maxChars}
}

// Chunk splits the narrative on paragraph boundaries, greedily packing
// consecutive paragraphs until the size budget is reached. A single
// paragraph longer than the budget is emitted whole and flagged
// oversized; it is never split further. The returned spans are
// non-overlapping, ordered, and cover the narrative exactly.
func (c *Chunker) Chunk(narrative string) []model.Chunk {
	if narrative == "" {
		return []model.Chunk{}
	}

	spans := paragraphSpans(narrative)

	var chunks []model.Chunk
	curStart, curEnd := -1, -1

	flush := func(oversized bool) {
		if curStart < 0 {
			return
		}
		chunks = append(chunks, model.Chunk{
			Index:     len(chunks),
			Start:     curStart,
			End:       curEnd,
			Text:      narrative[curStart:curEnd],
			Oversized: oversized,
		})
		curStart, curEnd = -1, -1
	}

	for _, sp := range spans {
		paraLen := sp[1] - sp[0]

		// Oversized paragraph becomes its own chunk
		if paraLen > c.maxChars {
			flush(false)
			curStart, curEnd = sp[0], sp[1]
			flush(true)
			continue
		}

		if curStart < 0 {
			curStart, curEnd = sp[0], sp[1]
			continue
		}

		if sp[1]-curStart > c.maxChars {
			flush(false)
			curStart, curEnd = sp[0], sp[1]
			continue
		}

		curEnd = sp[1]
	}
	flush(false)

	return chunks
}

// paragraphSpans returns half-open [start, end) spans, one per
// paragraph, with blank-line delimiters attached to the preceding
// paragraph so the spans cover the text exactly. Both "\n" and "\r\n"
// count as line breaks; two or more in a row end a paragraph.
func paragraphSpans(text string) [][2]int {
	var spans [][2]int
	start := 0

	i := 0
	for i < len(text) {
		breaks, width := lineBreakRun(text, i)
		if breaks < 2 {
			if width > 0 {
				i += width
			} else {
				i++
			}
			continue
		}
		end := i + width
		spans = append(spans, [2]int{start, end})
		start = end
		i = end
	}

	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}

	return spans
}

// lineBreakRun measures the run of consecutive line breaks starting at
// i, counting "\n" and "\r\n" as one break each. Returns the break
// count and the run's width in bytes.
func lineBreakRun(text string, i int) (breaks, width int) {
	j := i
	for j < len(text) {
		if text[j] == '\n' {
			j++
			breaks++
			continue
		}
		if text[j] == '\r' && j+1 < len(text) && text[j+1] == '\n' {
			j += 2
			breaks++
			continue
		}
		break
	}
	return breaks, j - i
}
