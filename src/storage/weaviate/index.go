package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"ragline/src/core/rag"
)

// Index adapts a Weaviate class to the rag.Index interface. Weaviate owns
// durability, so there is no separate persist step; ties for equal
// certainty follow Weaviate's internal ordering rather than insertion
// order.
type Index struct {
	sdk       *SDK
	className string
}

// NewIndex creates the adapter and makes sure the class schema exists.
func NewIndex(ctx context.Context, sdk *SDK, className string) (*Index, error) {
	if sdk == nil {
		return nil, fmt.Errorf("%w: weaviate SDK is required", rag.ErrInvalidConfig)
	}

	properties := []*models.Property{
		{Name: "chunkId", DataType: []string{"text"}},
		{Name: "documentId", DataType: []string{"text"}},
		{Name: "text", DataType: []string{"text"}},
		{Name: "startOffset", DataType: []string{"int"}},
		{Name: "endOffset", DataType: []string{"int"}},
		{Name: "seq", DataType: []string{"int"}},
	}
	if err := sdk.EnsureSchema(ctx, className, properties); err != nil {
		return nil, fmt.Errorf("failed to ensure weaviate schema: %w", err)
	}

	return &Index{sdk: sdk, className: className}, nil
}

// Add implements rag.Index.
func (i *Index) Add(ctx context.Context, entries []rag.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dim := len(entries[0].Vector)
	objects := make([]VectorObject, len(entries))
	for j, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has dimension %d, batch dimension is %d",
				rag.ErrDimensionMismatch, e.Chunk.ID, len(e.Vector), dim)
		}
		objects[j] = VectorObject{
			Vector: e.Vector,
			Properties: map[string]interface{}{
				"chunkId":     e.Chunk.ID,
				"documentId":  e.Chunk.DocumentID,
				"text":        e.Chunk.Text,
				"startOffset": e.Chunk.StartOffset,
				"endOffset":   e.Chunk.EndOffset,
				"seq":         e.Chunk.Seq,
			},
		}
	}

	if err := i.sdk.BatchAddVectors(ctx, i.className, objects); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}
	return nil
}

// Search implements rag.Index. Weaviate reports certainty, (1+cosine)/2;
// scores are mapped back to cosine similarity so every index backend ranks
// on the same scale.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", rag.ErrInvalidConfig, k)
	}

	results, err := i.sdk.QueryVectors(ctx, i.className, vector, QueryConfig{
		Fields: []string{"chunkId", "documentId", "text", "startOffset", "endOffset", "seq"},
		Limit:  k,
	})
	if err != nil {
		return nil, err
	}

	scored := make([]rag.ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, rag.ScoredChunk{
			Chunk: chunkFromProperties(result.Properties),
			Score: 2*result.Certainty - 1,
		})
	}
	return scored, nil
}

// Count implements rag.Index.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.sdk.CountObjects(ctx, i.className)
}

// Drop deletes the class and every vector in it.
func (i *Index) Drop(ctx context.Context) error {
	return i.sdk.DeleteSchema(ctx, i.className)
}

func chunkFromProperties(props map[string]interface{}) rag.Chunk {
	chunk := rag.Chunk{}
	if v, ok := props["chunkId"].(string); ok {
		chunk.ID = v
	}
	if v, ok := props["documentId"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := props["text"].(string); ok {
		chunk.Text = v
	}
	if v, ok := props["startOffset"].(float64); ok {
		chunk.StartOffset = int(v)
	}
	if v, ok := props["endOffset"].(float64); ok {
		chunk.EndOffset = int(v)
	}
	if v, ok := props["seq"].(float64); ok {
		chunk.Seq = int(v)
	}
	return chunk
}
