package rag

import (
	"context"
	"fmt"

	"ragline/src/log"
)

// PipelineConfig wires the pipeline's collaborators. Loader, Chunker,
// Embedder and Index are required; Assembler and Generator only for Answer;
// Keyword is optional and enables hybrid retrieval.
type PipelineConfig struct {
	Loader      Loader
	Chunker     Chunker
	Embedder    Embedder
	Index       Index
	Assembler   *Assembler
	Generator   Generator
	Keyword     KeywordIndex
	HybridAlpha float64
	Generate    GenerateOptions
}

// Pipeline is the explicit context object tying the retrieval pipeline
// together: ingest documents at build time, answer questions at query time.
// It holds no state beyond its collaborators; the only shared mutable state
// is inside the Index.
type Pipeline struct {
	loader    Loader
	chunker   Chunker
	embedder  Embedder
	index     Index
	assembler *Assembler
	generator Generator
	keyword   KeywordIndex
	retriever *Retriever
	hybrid    *HybridRetriever
	genOpts   GenerateOptions
}

// NewPipeline validates the build-phase collaborators and constructs a
// Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("%w: loader is required", ErrInvalidConfig)
	}
	if cfg.Chunker == nil {
		return nil, fmt.Errorf("%w: chunker is required", ErrInvalidConfig)
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("%w: index is required", ErrInvalidConfig)
	}

	retriever, err := NewRetriever(cfg.Embedder, cfg.Index)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		loader:    cfg.Loader,
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		assembler: cfg.Assembler,
		generator: cfg.Generator,
		keyword:   cfg.Keyword,
		retriever: retriever,
		genOpts:   cfg.Generate,
	}

	if cfg.Keyword != nil {
		alpha := cfg.HybridAlpha
		if alpha == 0 {
			alpha = DefaultHybridAlpha
		}
		hybrid, err := NewHybridRetriever(retriever, cfg.Keyword, alpha)
		if err != nil {
			return nil, err
		}
		p.hybrid = hybrid
	}

	return p, nil
}

// IngestStats summarizes a build-phase run.
type IngestStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// IngestOne loads a single source, chunks it, embeds every chunk and adds
// the result to the index in one batch, so concurrent readers see the
// document appear atomically.
func (p *Pipeline) IngestOne(ctx context.Context, uri string) (Document, []Chunk, error) {
	doc, err := p.loader.Load(ctx, uri)
	if err != nil {
		return Document{}, nil, err
	}

	chunks, err := p.chunker.Split(doc)
	if err != nil {
		return Document{}, nil, err
	}

	entries := make([]Entry, len(chunks))
	for i, chunk := range chunks {
		vector, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return Document{}, nil, fmt.Errorf("%w: chunk %s: %w", ErrEmbeddingFailure, chunk.ID, err)
		}
		entries[i] = Entry{Chunk: chunk, Vector: vector}
	}

	if err := p.index.Add(ctx, entries); err != nil {
		return Document{}, nil, err
	}

	if p.keyword != nil {
		if err := p.keyword.IndexChunks(ctx, chunks); err != nil {
			return Document{}, nil, fmt.Errorf("failed to index chunks for keyword search: %w", err)
		}
	}

	log.Debug("ingested document", "uri", uri, "document_id", doc.ID, "chunks", len(chunks))
	return doc, chunks, nil
}

// Ingest runs IngestOne for every uri, stopping at the first failure.
func (p *Pipeline) Ingest(ctx context.Context, uris ...string) (IngestStats, error) {
	var stats IngestStats
	for _, uri := range uris {
		_, chunks, err := p.IngestOne(ctx, uri)
		if err != nil {
			return stats, err
		}
		stats.Documents++
		stats.Chunks += len(chunks)
	}
	return stats, nil
}

// Retrieve returns the top-k chunks for the query. Hybrid blending is used
// when a keyword index was configured and hybrid is true.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int, hybrid bool) ([]ScoredChunk, error) {
	if hybrid && p.hybrid != nil {
		return p.hybrid.Retrieve(ctx, query, k)
	}
	return p.retriever.Retrieve(ctx, query, k)
}

// Answer is a full RAG answer with the chunks it was grounded on.
type Answer struct {
	Text    string        `json:"text"`
	Sources []ScoredChunk `json:"sources"`
}

// Answer retrieves the top-k chunks for the question, assembles the prompt
// and invokes the generator.
func (p *Pipeline) Answer(ctx context.Context, question string, k int) (*Answer, error) {
	if p.assembler == nil {
		return nil, fmt.Errorf("%w: assembler is required for answering", ErrInvalidConfig)
	}
	if p.generator == nil {
		return nil, fmt.Errorf("%w: generator is required for answering", ErrInvalidConfig)
	}

	results, err := p.Retrieve(ctx, question, k, p.hybrid != nil)
	if err != nil {
		return nil, err
	}

	prompt, err := p.assembler.Assemble(results, question)
	if err != nil {
		return nil, err
	}

	text, err := p.generator.Generate(ctx, prompt.Text, p.genOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{Text: text, Sources: results}, nil
}
