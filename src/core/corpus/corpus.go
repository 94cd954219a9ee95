// Package corpus coordinates the retrieval pipeline with the registry
// stores used in server mode: PostgreSQL rows for documents and chunks,
// MinIO for raw bodies, the vector and keyword indexes via the pipeline.
package corpus

import (
	"context"
	"fmt"

	"ragline/src/core/rag"
	"ragline/src/log"
	"ragline/src/storage/minioctrl"
	"ragline/src/storage/postgres/chunkctrl"
	"ragline/src/storage/postgres/documentctrl"
)

// HealthChecker is implemented by collaborators that can report liveness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function into a HealthChecker.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service is the server-mode orchestration layer over the pipeline.
type Service struct {
	pipeline  *rag.Pipeline
	documents *documentctrl.DocumentService
	chunks    *chunkctrl.ChunkService
	minio     *minioctrl.MinioService
	health    map[string]HealthChecker
}

// NewService wires the orchestration layer. pipeline and documents are
// required; minio and chunks may be nil when raw-body archiving or the
// chunk registry is not configured.
func NewService(
	pipeline *rag.Pipeline,
	documents *documentctrl.DocumentService,
	chunks *chunkctrl.ChunkService,
	minio *minioctrl.MinioService,
	health map[string]HealthChecker,
) (*Service, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is required", rag.ErrInvalidConfig)
	}
	if documents == nil {
		return nil, fmt.Errorf("%w: document registry is required", rag.ErrInvalidConfig)
	}
	return &Service{
		pipeline:  pipeline,
		documents: documents,
		chunks:    chunks,
		minio:     minio,
		health:    health,
	}, nil
}

// IngestURL runs the build phase for one source and records the result in
// the registry. The vector and keyword indexes are updated by the pipeline
// itself.
func (s *Service) IngestURL(ctx context.Context, url string) (*documentctrl.Document, error) {
	doc, chunks, err := s.pipeline.IngestOne(ctx, url)
	if err != nil {
		return nil, err
	}

	minioURL := ""
	if s.minio != nil {
		minioURL, err = s.minio.PutDocument(ctx, doc.ID, []byte(doc.RawText))
		if err != nil {
			return nil, fmt.Errorf("failed to archive document body: %w", err)
		}
	}

	record := &documentctrl.Document{
		ID:         doc.ID,
		SourceURI:  doc.SourceURI,
		Title:      doc.Title,
		MinioURL:   minioURL,
		ChunkCount: len(chunks),
	}
	if err := s.documents.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.chunks != nil {
		rows := make([]chunkctrl.Chunk, len(chunks))
		for i, chunk := range chunks {
			rows[i] = chunkctrl.Chunk{
				ID:          chunk.ID,
				DocumentID:  chunk.DocumentID,
				StartOffset: chunk.StartOffset,
				EndOffset:   chunk.EndOffset,
				Seq:         chunk.Seq,
			}
		}
		if err := s.chunks.CreateBatch(ctx, rows); err != nil {
			return nil, err
		}
	}

	log.Info("ingested document", "url", url, "document_id", doc.ID, "chunks", len(chunks))
	return record, nil
}

// ListDocuments returns a page of the document registry.
func (s *Service) ListDocuments(ctx context.Context, offset, limit int) ([]documentctrl.Document, error) {
	return s.documents.List(ctx, offset, limit)
}

// Search returns the top-k chunks for the query.
func (s *Service) Search(ctx context.Context, query string, k int, hybrid bool) ([]rag.ScoredChunk, error) {
	return s.pipeline.Retrieve(ctx, query, k, hybrid)
}

// Answer runs the full query-time flow: retrieve, assemble, generate.
func (s *Service) Answer(ctx context.Context, question string, k int) (*rag.Answer, error) {
	return s.pipeline.Answer(ctx, question, k)
}

// ComponentStatus represents the status of one system component.
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus reports overall and per-component health.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

// CheckHealth pings every registered collaborator.
func (s *Service) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Components: make(map[string]ComponentStatus, len(s.health)),
	}
	for name, checker := range s.health {
		if err := checker.Ping(ctx); err != nil {
			log.Error(err, "component health check failed", "component", name)
			status.Components[name] = StatusDown
			status.Status = "unhealthy"
			continue
		}
		status.Components[name] = StatusUp
	}
	return status
}
