package chunkctrl

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Chunk is the registry row for one retrieval unit. Offsets are rune
// offsets into the parent document's text; the text itself is not
// duplicated here.
type Chunk struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"not null;column:document_id;index" json:"document_id"`
	StartOffset int       `gorm:"not null;column:start_offset" json:"start_offset"`
	EndOffset   int       `gorm:"not null;column:end_offset" json:"end_offset"`
	Seq         int       `gorm:"not null;column:chunk_order" json:"seq"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ChunkService struct {
	db *gorm.DB
}

func NewChunkService(db *gorm.DB) (*ChunkService, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &ChunkService{db: db}, nil
}

func (s *ChunkService) CreateBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Create(&chunks)
	if result.Error != nil {
		return fmt.Errorf("failed to create chunks: %v", result.Error)
	}
	return nil
}

func (s *ChunkService) GetByDocumentID(ctx context.Context, documentID string) ([]Chunk, error) {
	var chunks []Chunk
	result := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_order ASC").
		Find(&chunks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get chunks: %v", result.Error)
	}
	return chunks, nil
}

func (s *ChunkService) DeleteByDocumentID(ctx context.Context, documentID string) error {
	result := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&Chunk{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete chunks: %v", result.Error)
	}
	return nil
}
