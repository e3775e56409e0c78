package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/rackline/rackline/store"
)

// CreateDocumentChunk inserts a knowledge base chunk together with its embedding.
func (d *DB) CreateDocumentChunk(ctx context.Context, create *store.DocumentChunk, embedding []float32) (*store.DocumentChunk, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	metadataJSON, err := json.Marshal(create.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal metadata")
	}

	stmt := `
		INSERT INTO document_chunk (content, metadata, source, chunk_index, created_ts, embedding)
		VALUES (` + placeholders(6) + `)
		RETURNING id
	`

	vector := pgvector.NewVector(embedding)
	err = d.db.QueryRowContext(ctx, stmt,
		create.Content,
		metadataJSON,
		create.Source,
		create.ChunkIndex,
		create.CreatedTs,
		vector,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document chunk")
	}

	return create, nil
}

// DocumentChunkVectorSearch performs vector similarity search using pgvector.
func (d *DB) DocumentChunkVectorSearch(ctx context.Context, opts *store.DocumentChunkVectorSearchOptions) ([]*store.DocumentChunkWithSimilarity, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	where := []string{"embedding IS NOT NULL"}

	query := `
		SELECT
			id, content, metadata, source, chunk_index, created_ts,
			1 - (embedding <=> $1) AS similarity
		FROM document_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> $2
		LIMIT $3
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search document chunks")
	}
	defer rows.Close()

	results := []*store.DocumentChunkWithSimilarity{}
	for rows.Next() {
		var result store.DocumentChunkWithSimilarity
		var chunk store.DocumentChunk
		var metadataJSON []byte

		err := rows.Scan(
			&chunk.ID,
			&chunk.Content,
			&metadataJSON,
			&chunk.Source,
			&chunk.ChunkIndex,
			&chunk.CreatedTs,
			&result.Similarity,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal metadata")
			}
		}

		result.Chunk = &chunk
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
