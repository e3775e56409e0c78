package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Plugin represents a single plugin inside a chain.
// Plugins are persisted as a JSONB document on the chain row.
type Plugin struct {
	Name         string         `json:"name"`
	Manufacturer string         `json:"manufacturer"`
	Category     string         `json:"category"`
	Order        int            `json:"order"`
	Settings     string         `json:"settings,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// PluginChain represents an ordered plugin chain record.
type PluginChain struct {
	ID          int32
	UID         string
	Name        string
	Description string
	Plugins     []*Plugin
	Genre       string
	Instrument  string
	Tags        []string
	Rating      *float64
	CreatedBy   string
	CreatedTs   int64
}

// EmbeddingText composes the text the chain embedding is generated from.
func (c *PluginChain) EmbeddingText() string {
	parts := []string{c.Name, c.Description}
	if len(c.Tags) > 0 {
		parts = append(parts, strings.Join(c.Tags, " "))
	}
	if c.Genre != "" {
		parts = append(parts, c.Genre)
	}
	if c.Instrument != "" {
		parts = append(parts, c.Instrument)
	}
	return strings.Join(parts, " ")
}

// FindPluginChain is the find condition for plugin chains.
type FindPluginChain struct {
	ID         *int32
	UID        *string
	Genre      *string
	Instrument *string
	Limit      *int
	Offset     *int
}

// DeletePluginChain is the delete condition for plugin chains.
type DeletePluginChain struct {
	ID  *int32
	UID *string
}

// PluginChainWithSimilarity represents a vector search result with similarity score.
type PluginChainWithSimilarity struct {
	Chain      *PluginChain
	Similarity float32 // cosine similarity (0-1, higher is more similar)
}

// PluginChainVectorSearchOptions represents the options for plugin chain vector search.
type PluginChainVectorSearchOptions struct {
	Vector           []float32
	Limit            int
	GenreFilter      string
	InstrumentFilter string
}

// Validate validates the PluginChainVectorSearchOptions.
func (o *PluginChainVectorSearchOptions) Validate() error {
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

// CreatePluginChain creates a plugin chain together with its embedding.
func (s *Store) CreatePluginChain(ctx context.Context, create *PluginChain, embedding []float32) (*PluginChain, error) {
	return s.driver.CreatePluginChain(ctx, create, embedding)
}

// ListPluginChains lists plugin chains.
func (s *Store) ListPluginChains(ctx context.Context, find *FindPluginChain) ([]*PluginChain, error) {
	return s.driver.ListPluginChains(ctx, find)
}

// GetPluginChain gets a single plugin chain, or nil when not found.
func (s *Store) GetPluginChain(ctx context.Context, find *FindPluginChain) (*PluginChain, error) {
	list, err := s.driver.ListPluginChains(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeletePluginChain deletes a plugin chain and its embedding.
func (s *Store) DeletePluginChain(ctx context.Context, delete *DeletePluginChain) error {
	return s.driver.DeletePluginChain(ctx, delete)
}

// PluginChainVectorSearch performs vector similarity search on plugin chains.
func (s *Store) PluginChainVectorSearch(ctx context.Context, opts *PluginChainVectorSearchOptions) ([]*PluginChainWithSimilarity, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.PluginChainVectorSearch(ctx, opts)
}
