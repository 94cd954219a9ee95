package rag_test

import (
	"context"
	"errors"
	"testing"

	"ragline/src/core/rag"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

type fakeIndex struct {
	count   int
	results []rag.ScoredChunk
	added   [][]rag.Entry
}

func (f *fakeIndex) Add(ctx context.Context, entries []rag.Entry) error {
	f.added = append(f.added, entries)
	f.count += len(entries)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func TestNewRetrieverValidation(t *testing.T) {
	if _, err := rag.NewRetriever(nil, &fakeIndex{}); !errors.Is(err, rag.ErrInvalidConfig) {
		t.Errorf("NewRetriever(nil index) error = %v, want ErrInvalidConfig", err)
	}
	if _, err := rag.NewRetriever(&fakeEmbedder{}, nil); !errors.Is(err, rag.ErrInvalidConfig) {
		t.Errorf("NewRetriever(nil embedder) error = %v, want ErrInvalidConfig", err)
	}
}

func TestRetrieverRetrieve(t *testing.T) {
	results := []rag.ScoredChunk{
		{Chunk: rag.Chunk{ID: "doc1-0", Text: "best"}, Score: 0.9},
		{Chunk: rag.Chunk{ID: "doc1-1", Text: "second"}, Score: 0.5},
	}
	retriever, err := rag.NewRetriever(&fakeEmbedder{}, &fakeIndex{count: 2, results: results})
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	got, err := retriever.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve() returned %d results, want 2", len(got))
	}
	if got[0].Chunk.ID != "doc1-0" {
		t.Errorf("Retrieve() top result = %q, want %q", got[0].Chunk.ID, "doc1-0")
	}
}

func TestRetrieverRetrieveInvalidK(t *testing.T) {
	retriever, _ := rag.NewRetriever(&fakeEmbedder{}, &fakeIndex{count: 1})

	for _, k := range []int{0, -1} {
		if _, err := retriever.Retrieve(context.Background(), "query", k); !errors.Is(err, rag.ErrInvalidConfig) {
			t.Errorf("Retrieve(k=%d) error = %v, want ErrInvalidConfig", k, err)
		}
	}
}

func TestRetrieverRetrieveEmptyIndex(t *testing.T) {
	retriever, _ := rag.NewRetriever(&fakeEmbedder{}, &fakeIndex{count: 0})

	_, err := retriever.Retrieve(context.Background(), "query", 3)
	if !errors.Is(err, rag.ErrEmptyIndex) {
		t.Errorf("Retrieve() error = %v, want ErrEmptyIndex", err)
	}
}

func TestRetrieverRetrieveEmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("model not loaded")}
	retriever, _ := rag.NewRetriever(embedder, &fakeIndex{count: 1})

	_, err := retriever.Retrieve(context.Background(), "query", 3)
	if !errors.Is(err, rag.ErrEmbeddingFailure) {
		t.Errorf("Retrieve() error = %v, want ErrEmbeddingFailure", err)
	}
}
