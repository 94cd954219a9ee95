package index_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ragline/src/core/rag"
	"ragline/src/index"
)

func entry(id string, vector ...float32) rag.Entry {
	return rag.Entry{
		Chunk:  rag.Chunk{ID: id, DocumentID: "doc1", Text: "text " + id},
		Vector: vector,
	}
}

func TestNewMemoryMetric(t *testing.T) {
	for _, metric := range []index.Metric{index.MetricCosine, index.MetricDot} {
		if _, err := index.NewMemory(metric); err != nil {
			t.Errorf("NewMemory(%q) error = %v", metric, err)
		}
	}
	if _, err := index.NewMemory("euclidean"); !errors.Is(err, rag.ErrInvalidConfig) {
		t.Errorf("NewMemory(unknown) error = %v, want ErrInvalidConfig", err)
	}
}

func TestMemorySearchOrdering(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)
	err := m.Add(context.Background(), []rag.Entry{
		entry("far", 0, 1, 0),
		entry("near", 1, 0.1, 0),
		entry("exact", 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := m.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got[0].Chunk.ID != "exact" {
		t.Errorf("top result = %q, want %q", got[0].Chunk.ID, "exact")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores increase at position %d: %g > %g", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestMemorySearchTiesKeepInsertionOrder(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)
	// Parallel vectors score identically under cosine.
	err := m.Add(context.Background(), []rag.Entry{
		entry("first", 1, 0),
		entry("second", 2, 0),
		entry("third", 3, 0),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := m.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got[i].Chunk.ID != id {
			t.Errorf("result %d = %q, want %q", i, got[i].Chunk.ID, id)
		}
	}
}

func TestMemorySearchKBounds(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)
	m.Add(context.Background(), []rag.Entry{
		entry("a", 1, 0),
		entry("b", 0, 1),
	})

	t.Run("k larger than index", func(t *testing.T) {
		got, err := m.Search(context.Background(), []float32{1, 0}, 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Search() returned %d results, want 2", len(got))
		}
	})

	t.Run("k truncates", func(t *testing.T) {
		got, err := m.Search(context.Background(), []float32{1, 0}, 1)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Search() returned %d results, want 1", len(got))
		}
	})

	t.Run("k must be positive", func(t *testing.T) {
		if _, err := m.Search(context.Background(), []float32{1, 0}, 0); !errors.Is(err, rag.ErrInvalidConfig) {
			t.Errorf("Search(k=0) error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestMemorySearchEmptyIndex(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)

	got, err := m.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() on empty index returned %d results, want 0", len(got))
	}
}

func TestMemoryDimensionMismatch(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)
	if err := m.Add(context.Background(), []rag.Entry{entry("a", 1, 0, 0)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	t.Run("add rejects whole batch", func(t *testing.T) {
		err := m.Add(context.Background(), []rag.Entry{
			entry("b", 0, 1, 0),
			entry("c", 0, 1),
		})
		if !errors.Is(err, rag.ErrDimensionMismatch) {
			t.Fatalf("Add() error = %v, want ErrDimensionMismatch", err)
		}
		n, _ := m.Count(context.Background())
		if n != 1 {
			t.Errorf("Count() = %d after rejected batch, want 1", n)
		}
	})

	t.Run("search rejects wrong dimension", func(t *testing.T) {
		if _, err := m.Search(context.Background(), []float32{1, 0}, 1); !errors.Is(err, rag.ErrDimensionMismatch) {
			t.Errorf("Search() error = %v, want ErrDimensionMismatch", err)
		}
	})

	t.Run("zero-length vector rejected", func(t *testing.T) {
		fresh, _ := index.NewMemory(index.MetricCosine)
		if err := fresh.Add(context.Background(), []rag.Entry{entry("z")}); !errors.Is(err, rag.ErrDimensionMismatch) {
			t.Errorf("Add(zero-length) error = %v, want ErrDimensionMismatch", err)
		}
	})
}

func TestMemoryDotMetric(t *testing.T) {
	m, _ := index.NewMemory(index.MetricDot)
	m.Add(context.Background(), []rag.Entry{
		entry("small", 1, 0),
		entry("large", 3, 0),
	})

	got, err := m.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// Dot product rewards magnitude, unlike cosine.
	if got[0].Chunk.ID != "large" {
		t.Errorf("top result = %q, want %q", got[0].Chunk.ID, "large")
	}
	if got[0].Score != 3 {
		t.Errorf("top score = %g, want 3", got[0].Score)
	}
}

func TestMemoryConcurrentAddAndSearch(t *testing.T) {
	m, _ := index.NewMemory(index.MetricCosine)
	if err := m.Add(context.Background(), []rag.Entry{entry("seed", 1, 0)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Add(context.Background(), []rag.Entry{entry(fmt.Sprintf("w%d", i), 0, 1)})
		}(i)
		go func() {
			defer wg.Done()
			if _, err := m.Search(context.Background(), []float32{1, 0}, 3); err != nil {
				t.Errorf("Search() error = %v", err)
			}
		}()
	}
	wg.Wait()

	n, _ := m.Count(context.Background())
	if n != 9 {
		t.Errorf("Count() = %d, want 9", n)
	}
}
