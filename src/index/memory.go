// Package index provides vector index implementations behind the rag.Index
// interface: a brute-force in-memory index with bbolt persistence, with
// the Weaviate-backed index living in src/storage/weaviate.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ragline/src/core/rag"
)

// Metric selects the similarity function used to rank entries.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

// Memory is a brute-force in-memory vector index.
//
// Add is serialized; Search is read-only and safe to run concurrently. A
// reader observes the index either before or after an Add, never a
// partially added batch: a batch is validated in full before anything is
// appended, under the write lock.
type Memory struct {
	mu      sync.RWMutex
	metric  Metric
	dim     int
	entries []rag.Entry
}

// NewMemory creates an empty index ranking by the given metric. The vector
// dimension is fixed by the first Add.
func NewMemory(metric Metric) (*Memory, error) {
	switch metric {
	case MetricCosine, MetricDot:
	default:
		return nil, fmt.Errorf("%w: unknown similarity metric %q", rag.ErrInvalidConfig, metric)
	}
	return &Memory{metric: metric}, nil
}

// Metric returns the similarity metric the index ranks by.
func (m *Memory) Metric() Metric {
	return m.metric
}

// Dimension returns the vector dimension, or 0 before the first Add.
func (m *Memory) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// Add appends entries to the index. The whole batch is rejected with
// rag.ErrDimensionMismatch if any vector's dimension disagrees with the
// index's.
func (m *Memory) Add(ctx context.Context, entries []rag.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dim
	if dim == 0 {
		dim = len(entries[0].Vector)
	}
	if dim == 0 {
		return fmt.Errorf("%w: entry %s has a zero-length vector", rag.ErrDimensionMismatch, entries[0].Chunk.ID)
	}
	for _, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has dimension %d, index dimension is %d",
				rag.ErrDimensionMismatch, e.Chunk.ID, len(e.Vector), dim)
		}
	}

	m.dim = dim
	m.entries = append(m.entries, entries...)
	return nil
}

// Search scores every entry against the query vector and returns the top k
// by non-increasing score; equal scores keep insertion order, earliest
// first. An empty index yields an empty result.
func (m *Memory) Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", rag.ErrInvalidConfig, k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return []rag.ScoredChunk{}, nil
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index dimension is %d",
			rag.ErrDimensionMismatch, len(vector), m.dim)
	}

	scored := make([]rag.ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		scored[i] = rag.ScoredChunk{Chunk: e.Chunk, Score: similarity(m.metric, vector, e.Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Count implements rag.Index.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func similarity(metric Metric, a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if metric == MetricDot {
		return dot
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
