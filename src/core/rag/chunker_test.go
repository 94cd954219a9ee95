package rag_test

import (
	"errors"
	"strings"
	"testing"

	"ragline/src/core/rag"
)

func TestWindowChunkerSplit(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		text        string
		wantOffsets [][2]int
	}{
		{
			name:    "document shorter than window",
			size:    100,
			overlap: 10,
			text:    "short text",
			wantOffsets: [][2]int{
				{0, 10},
			},
		},
		{
			name:    "document exactly one window",
			size:    10,
			overlap: 2,
			text:    "0123456789",
			wantOffsets: [][2]int{
				{0, 10},
			},
		},
		{
			name:    "three windows with overlap",
			size:    1024,
			overlap: 64,
			text:    strings.Repeat("a", 2500),
			wantOffsets: [][2]int{
				{0, 1024},
				{960, 1984},
				{1920, 2500},
			},
		},
		{
			name:    "no overlap",
			size:    4,
			overlap: 0,
			text:    "abcdefgh",
			wantOffsets: [][2]int{
				{0, 4},
				{4, 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := rag.WindowChunker{Size: tt.size, Overlap: tt.overlap}
			doc := rag.Document{ID: "doc1", RawText: tt.text}

			chunks, err := chunker.Split(doc)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}

			if len(chunks) != len(tt.wantOffsets) {
				t.Fatalf("Split() returned %d chunks, want %d", len(chunks), len(tt.wantOffsets))
			}

			runes := []rune(tt.text)
			for i, chunk := range chunks {
				want := tt.wantOffsets[i]
				if chunk.StartOffset != want[0] || chunk.EndOffset != want[1] {
					t.Errorf("chunk %d offsets = [%d, %d), want [%d, %d)",
						i, chunk.StartOffset, chunk.EndOffset, want[0], want[1])
				}
				if chunk.Seq != i {
					t.Errorf("chunk %d Seq = %d, want %d", i, chunk.Seq, i)
				}
				if chunk.DocumentID != doc.ID {
					t.Errorf("chunk %d DocumentID = %q, want %q", i, chunk.DocumentID, doc.ID)
				}
				if chunk.ID != rag.ChunkID(doc.ID, i) {
					t.Errorf("chunk %d ID = %q, want %q", i, chunk.ID, rag.ChunkID(doc.ID, i))
				}
				if got := string(runes[chunk.StartOffset:chunk.EndOffset]); chunk.Text != got {
					t.Errorf("chunk %d text does not match its offsets in the source", i)
				}
			}
		})
	}
}

func TestWindowChunkerSplitEmptyDocument(t *testing.T) {
	chunker := rag.WindowChunker{Size: 100, Overlap: 10}
	chunks, err := chunker.Split(rag.Document{ID: "doc1"})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Split() returned %d chunks for an empty document, want 0", len(chunks))
	}
}

func TestWindowChunkerSplitInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -1, overlap: 0},
		{name: "negative overlap", size: 10, overlap: -1},
		{name: "overlap equals size", size: 10, overlap: 10},
		{name: "overlap exceeds size", size: 10, overlap: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := rag.WindowChunker{Size: tt.size, Overlap: tt.overlap}
			_, err := chunker.Split(rag.Document{ID: "doc1", RawText: "some text"})
			if !errors.Is(err, rag.ErrInvalidConfig) {
				t.Errorf("Split() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestWindowChunkerReconstruction(t *testing.T) {
	// Concatenating the chunks minus each chunk's leading overlap must
	// reproduce the document exactly.
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80)
	chunker := rag.WindowChunker{Size: 128, Overlap: 32}

	chunks, err := chunker.Split(rag.Document{ID: "doc1", RawText: text})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	var sb strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk.Text)
		if i == 0 {
			sb.WriteString(chunk.Text)
			continue
		}
		sb.WriteString(string(runes[chunker.Overlap:]))
	}
	if sb.String() != text {
		t.Error("stripping overlaps and concatenating did not reconstruct the document")
	}
}

func TestWindowChunkerUnicode(t *testing.T) {
	// Offsets are rune offsets, so multi-byte characters count as one.
	text := strings.Repeat("héllo wörld ", 20)
	chunker := rag.WindowChunker{Size: 50, Overlap: 5}

	chunks, err := chunker.Split(rag.Document{ID: "doc1", RawText: text})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	runes := []rune(text)
	for i, chunk := range chunks {
		if got := string(runes[chunk.StartOffset:chunk.EndOffset]); chunk.Text != got {
			t.Errorf("chunk %d text does not match its rune offsets", i)
		}
	}
	last := chunks[len(chunks)-1]
	if last.EndOffset != len(runes) {
		t.Errorf("last chunk EndOffset = %d, want %d", last.EndOffset, len(runes))
	}
}

func TestRecursiveChunkerSplit(t *testing.T) {
	text := "First paragraph about one topic.\n\nSecond paragraph about another topic.\n\nThird paragraph closes the document."
	chunker := rag.RecursiveChunker{Size: 60, Overlap: 0}

	chunks, err := chunker.Split(rag.Document{ID: "doc1", RawText: text})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want at least 2", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
		if chunk.StartOffset > chunk.EndOffset {
			t.Errorf("chunk %d has inverted offsets [%d, %d)", i, chunk.StartOffset, chunk.EndOffset)
		}
	}
}

func TestRecursiveChunkerInvalidConfig(t *testing.T) {
	chunker := rag.RecursiveChunker{Size: 10, Overlap: 10}
	_, err := chunker.Split(rag.Document{ID: "doc1", RawText: "text"})
	if !errors.Is(err, rag.ErrInvalidConfig) {
		t.Errorf("Split() error = %v, want ErrInvalidConfig", err)
	}
}
