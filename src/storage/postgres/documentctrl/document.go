package documentctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Document is the registry row for an ingested document. The raw body
// lives in MinIO at MinioURL ("bucket/objectKey"); vectors live in the
// vector index.
type Document struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	SourceURI  string    `gorm:"not null;column:source_uri" json:"source_uri"`
	Title      string    `json:"title"`
	MinioURL   string    `gorm:"column:minio_url" json:"minio_url"`
	ChunkCount int       `gorm:"not null;column:chunk_count" json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DocumentService struct {
	db *gorm.DB
}

func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &DocumentService{db: db}, nil
}

func (s *DocumentService) Create(ctx context.Context, doc *Document) error {
	result := s.db.WithContext(ctx).Create(doc)
	if result.Error != nil {
		return fmt.Errorf("failed to create document: %v", result.Error)
	}
	return nil
}

func (s *DocumentService) GetByID(ctx context.Context, id string) (*Document, error) {
	var doc Document
	result := s.db.WithContext(ctx).First(&doc, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %v", result.Error)
	}
	return &doc, nil
}

func (s *DocumentService) List(ctx context.Context, offset, limit int) ([]Document, error) {
	var docs []Document
	result := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list documents: %v", result.Error)
	}
	return docs, nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Document{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %v", result.Error)
	}
	return nil
}
