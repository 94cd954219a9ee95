package rag

import (
	"context"
	"fmt"
)

// Retriever embeds a query and searches an index for the most similar
// chunks.
//
// Policy: an index with zero entries is reported as ErrEmptyIndex rather
// than an empty result, so callers can tell "nothing indexed" apart from
// "nothing relevant". The Index itself returns an empty result in that
// case; the distinction is made here.
type Retriever struct {
	embedder Embedder
	index    Index
}

// NewRetriever wires an embedder and an index into a Retriever.
func NewRetriever(embedder Embedder, index Index) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: index is required", ErrInvalidConfig)
	}
	return &Retriever{embedder: embedder, index: index}, nil
}

// Retrieve returns the top-k chunks most similar to the query text, ordered
// by non-increasing score.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, k)
	}

	n, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index entries: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyIndex
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailure, err)
	}

	results, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return results, nil
}
