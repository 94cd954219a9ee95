package rag

import (
	"context"
	"fmt"
)

// Document is a unit of ingested source text. Title is best-effort
// metadata (an HTML page's <title>); it may be empty.
type Document struct {
	ID        string `json:"id"`
	SourceURI string `json:"source_uri"`
	Title     string `json:"title,omitempty"`
	RawText   string `json:"raw_text"`
}

// Chunk is a bounded slice of a document's text, the unit of retrieval.
// Offsets are rune offsets into the document text: StartOffset inclusive,
// EndOffset exclusive.
type Chunk struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Seq         int    `json:"seq"`
}

// ScoredChunk pairs a chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Entry pairs a chunk with its embedding for indexing.
type Entry struct {
	Chunk  Chunk     `json:"chunk"`
	Vector []float32 `json:"vector"`
}

// ChunkID derives the stable id of a chunk from its document and position.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s-%d", documentID, seq)
}

// Chunker splits a document into retrieval units.
type Chunker interface {
	Split(doc Document) ([]Chunk, error)
}

// Embedder maps text to a fixed-length vector. Implementations must be
// deterministic for a fixed model version; the same instance should serve
// both the build and the query phase so normalization settings agree.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerateOptions are the sampling parameters passed to a Generator.
// Zero values mean "use the model default". Temperature is a pointer so
// that an explicit 0 (greedy sampling) stays distinguishable from unset.
type GenerateOptions struct {
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          float64  `json:"top_p,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
}

// Generator produces text from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Index stores chunk embeddings and answers nearest-neighbour queries.
//
// All entries in one index share a single vector dimension; Add rejects a
// batch containing any other dimension with ErrDimensionMismatch and leaves
// the index unchanged. Search returns at most k chunks ordered by
// non-increasing similarity, ties broken by insertion order. Searching an
// index with no entries returns an empty result, not an error; the
// "no data" signal is the Retriever's job.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// PersistentIndex is an Index that can be written to local storage.
type PersistentIndex interface {
	Index
	Persist(path string) error
}

// Loader fetches a document from an external source.
type Loader interface {
	Load(ctx context.Context, uri string) (Document, error)
}

// KeywordIndex stores chunk texts for keyword (BM25-style) ranking,
// complementing the vector index in hybrid retrieval.
type KeywordIndex interface {
	IndexChunks(ctx context.Context, chunks []Chunk) error
	SearchKeyword(ctx context.Context, query string, k int) ([]ScoredChunk, error)
}
