package rag

import (
	"context"
	"fmt"
	"sort"
)

// DefaultHybridAlpha weights vector similarity at 75% and keyword relevance
// at 25%, mirroring the usual hybrid-search default.
const DefaultHybridAlpha = 0.75

// HybridRetriever blends vector similarity with keyword (BM25) relevance:
//
//	score = alpha*vector + (1-alpha)*keyword
//
// Keyword scores are unbounded, so they are first normalized to [0, 1] by
// the best keyword hit. Chunks found by only one side score zero on the
// other.
type HybridRetriever struct {
	retriever *Retriever
	keyword   KeywordIndex
	alpha     float64
}

// NewHybridRetriever wires a vector retriever and a keyword index together.
// alpha must be in [0, 1]; 1 is pure vector search, 0 pure keyword.
func NewHybridRetriever(retriever *Retriever, keyword KeywordIndex, alpha float64) (*HybridRetriever, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", ErrInvalidConfig)
	}
	if keyword == nil {
		return nil, fmt.Errorf("%w: keyword index is required", ErrInvalidConfig)
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha must be in [0, 1], got %g", ErrInvalidConfig, alpha)
	}
	return &HybridRetriever{retriever: retriever, keyword: keyword, alpha: alpha}, nil
}

// Retrieve returns the top-k chunks by blended score.
func (h *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vector, err := h.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	keyword, err := h.keyword.SearchKeyword(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search keyword index: %w", err)
	}

	return h.merge(vector, keyword, k), nil
}

func (h *HybridRetriever) merge(vector, keyword []ScoredChunk, k int) []ScoredChunk {
	var maxKeyword float64
	for _, sc := range keyword {
		if sc.Score > maxKeyword {
			maxKeyword = sc.Score
		}
	}

	// Vector results first, keyword-only results after, so the stable sort
	// below keeps a deterministic order for equal blended scores.
	merged := make([]ScoredChunk, 0, len(vector)+len(keyword))
	blended := make(map[string]int, len(vector)+len(keyword))
	for _, sc := range vector {
		blended[sc.Chunk.ID] = len(merged)
		merged = append(merged, ScoredChunk{Chunk: sc.Chunk, Score: h.alpha * sc.Score})
	}
	for _, sc := range keyword {
		norm := 0.0
		if maxKeyword > 0 {
			norm = sc.Score / maxKeyword
		}
		if i, ok := blended[sc.Chunk.ID]; ok {
			merged[i].Score += (1 - h.alpha) * norm
			continue
		}
		blended[sc.Chunk.ID] = len(merged)
		merged = append(merged, ScoredChunk{Chunk: sc.Chunk, Score: (1 - h.alpha) * norm})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if k < len(merged) {
		merged = merged[:k]
	}
	return merged
}
