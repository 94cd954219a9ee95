package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// WindowChunker splits a document into fixed-size windows of Size runes,
// advancing by Size-Overlap runes per step. Consecutive chunks overlap by
// exactly Overlap runes; the final chunk may be shorter than Size but is
// never empty. An empty document yields no chunks.
//
// Stripping the first Overlap runes of every chunk after the first and
// concatenating the rest reconstructs the document text exactly.
type WindowChunker struct {
	Size    int
	Overlap int
}

func (c WindowChunker) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// Split implements Chunker.
func (c WindowChunker) Split(doc Document) ([]Chunk, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	runes := []rune(doc.RawText)
	if len(runes) == 0 {
		return nil, nil
	}

	stride := c.Size - c.Overlap
	chunks := make([]Chunk, 0, len(runes)/stride+1)
	for start, seq := 0, 0; start < len(runes); start, seq = start+stride, seq+1 {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			ID:          ChunkID(doc.ID, seq),
			DocumentID:  doc.ID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Seq:         seq,
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// RecursiveChunker prefers paragraph and sentence boundaries over hard
// character cuts, delegating to langchaingo's recursive character splitter.
// Chunk offsets are located in the source text on a best-effort basis; the
// exact-overlap guarantee of WindowChunker does not apply here.
type RecursiveChunker struct {
	Size    int
	Overlap int
}

// Split implements Chunker.
func (c RecursiveChunker) Split(doc Document) ([]Chunk, error) {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return nil, fmt.Errorf("%w: need 0 <= overlap < size, got overlap=%d size=%d",
			ErrInvalidConfig, c.Overlap, c.Size)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.Size),
		textsplitter.WithChunkOverlap(c.Overlap),
	)
	parts, err := splitter.SplitText(doc.RawText)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	source := []rune(doc.RawText)
	chunks := make([]Chunk, 0, len(parts))
	searchFrom := 0
	for seq, part := range parts {
		if part == "" {
			continue
		}
		piece := []rune(part)
		start := indexRunes(source, piece, searchFrom)
		if start < 0 {
			// Splitter trimmed whitespace the source had; anchor to the
			// previous position rather than dropping the chunk.
			start = searchFrom
		}
		end := start + len(piece)
		if end > len(source) {
			end = len(source)
		}
		chunks = append(chunks, Chunk{
			ID:          ChunkID(doc.ID, seq),
			DocumentID:  doc.ID,
			Text:        part,
			StartOffset: start,
			EndOffset:   end,
			Seq:         seq,
		})
		searchFrom = start + 1
	}

	return chunks, nil
}

// indexRunes returns the first occurrence of needle in haystack at or after
// from, or -1.
func indexRunes(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
