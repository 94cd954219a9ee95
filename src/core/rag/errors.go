package rag

import "errors"

// Pipeline stage errors. Every failure surfaces to the caller immediately;
// nothing inside the core retries. Callers match with errors.Is.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrEmbeddingFailure   = errors.New("embedding failed")
	ErrIngestionFailure   = errors.New("ingestion failed")
	ErrEmptyIndex         = errors.New("index has no entries")
	ErrMissingPlaceholder = errors.New("template is missing a required placeholder")
	ErrTimeout            = errors.New("operation timed out")
	ErrCancelled          = errors.New("operation cancelled")
)
