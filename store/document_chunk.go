package store

import (
	"context"

	"github.com/pkg/errors"
)

// DocumentChunk represents a knowledge base document chunk.
type DocumentChunk struct {
	ID         int32
	Content    string
	Metadata   map[string]any
	Source     string
	ChunkIndex int
	CreatedTs  int64
}

// DocumentChunkWithSimilarity represents a vector search result with similarity score.
type DocumentChunkWithSimilarity struct {
	Chunk      *DocumentChunk
	Similarity float32
}

// DocumentChunkVectorSearchOptions represents the options for document chunk vector search.
type DocumentChunkVectorSearchOptions struct {
	Vector []float32
	Limit  int
}

// Validate validates the DocumentChunkVectorSearchOptions.
func (o *DocumentChunkVectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 5 // Default limit
	}
	if o.Limit > 50 {
		return errors.Errorf("limit too large (max 50): %d", o.Limit)
	}
	return nil
}

// CreateDocumentChunk creates a document chunk together with its embedding.
func (s *Store) CreateDocumentChunk(ctx context.Context, create *DocumentChunk, embedding []float32) (*DocumentChunk, error) {
	return s.driver.CreateDocumentChunk(ctx, create, embedding)
}

// DocumentChunkVectorSearch performs vector similarity search on document chunks.
func (s *Store) DocumentChunkVectorSearch(ctx context.Context, opts *DocumentChunkVectorSearchOptions) ([]*DocumentChunkWithSimilarity, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.DocumentChunkVectorSearch(ctx, opts)
}
