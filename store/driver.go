package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error

	// PluginChain model related methods.
	CreatePluginChain(ctx context.Context, create *PluginChain, embedding []float32) (*PluginChain, error)
	ListPluginChains(ctx context.Context, find *FindPluginChain) ([]*PluginChain, error)
	DeletePluginChain(ctx context.Context, delete *DeletePluginChain) error
	PluginChainVectorSearch(ctx context.Context, opts *PluginChainVectorSearchOptions) ([]*PluginChainWithSimilarity, error)

	// DocumentChunk model related methods.
	CreateDocumentChunk(ctx context.Context, create *DocumentChunk, embedding []float32) (*DocumentChunk, error)
	DocumentChunkVectorSearch(ctx context.Context, opts *DocumentChunkVectorSearchOptions) ([]*DocumentChunkWithSimilarity, error)
}
