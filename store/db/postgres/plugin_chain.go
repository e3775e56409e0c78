package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/rackline/rackline/internal/util"
	"github.com/rackline/rackline/store"
)

// CreatePluginChain inserts a plugin chain together with its embedding.
func (d *DB) CreatePluginChain(ctx context.Context, create *store.PluginChain, embedding []float32) (*store.PluginChain, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	pluginsJSON, err := json.Marshal(create.Plugins)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal plugins")
	}

	stmt := `
		INSERT INTO plugin_chain (
			uid, name, description, plugins, genre, instrument,
			tags, rating, created_by, created_ts, embedding
		) VALUES (` + placeholders(11) + `)
		RETURNING id
	`

	vector := pgvector.NewVector(embedding)
	err = d.db.QueryRowContext(ctx, stmt,
		uid,
		create.Name,
		create.Description,
		pluginsJSON,
		create.Genre,
		create.Instrument,
		pq.Array(create.Tags),
		create.Rating,
		create.CreatedBy,
		create.CreatedTs,
		vector,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create plugin chain")
	}

	create.UID = uid
	return create, nil
}

// ListPluginChains lists plugin chains, newest first.
func (d *DB) ListPluginChains(ctx context.Context, find *store.FindPluginChain) ([]*store.PluginChain, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Genre != nil {
		where, args = append(where, "genre ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.Genre+"%")
	}
	if find.Instrument != nil {
		where, args = append(where, "instrument ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.Instrument+"%")
	}

	query := `
		SELECT id, uid, name, description, plugins, genre, instrument, tags, rating, created_by, created_ts
		FROM plugin_chain
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list plugin chains")
	}
	defer rows.Close()

	list := []*store.PluginChain{}
	for rows.Next() {
		chain, err := scanPluginChain(rows, nil)
		if err != nil {
			return nil, err
		}
		list = append(list, chain)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeletePluginChain deletes a plugin chain.
func (d *DB) DeletePluginChain(ctx context.Context, delete *store.DeletePluginChain) error {
	where, args := []string{}, []any{}

	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *delete.UID)
	}
	if len(where) == 0 {
		return errors.New("missing delete condition")
	}

	stmt := `DELETE FROM plugin_chain WHERE ` + strings.Join(where, " AND ")
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete plugin chain")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("plugin chain not found")
	}
	return nil
}

// PluginChainVectorSearch performs vector similarity search using pgvector.
func (d *DB) PluginChainVectorSearch(ctx context.Context, opts *store.PluginChainVectorSearchOptions) ([]*store.PluginChainWithSimilarity, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	where, args := []string{"embedding IS NOT NULL"}, []any{}

	if opts.GenreFilter != "" {
		where = append(where, "genre ILIKE "+placeholder(len(args)+1))
		args = append(args, "%"+opts.GenreFilter+"%")
	}
	if opts.InstrumentFilter != "" {
		where = append(where, "instrument ILIKE "+placeholder(len(args)+1))
		args = append(args, "%"+opts.InstrumentFilter+"%")
	}

	argIdx := len(args) + 1

	// The <=> operator computes cosine distance (1 - cosine_similarity),
	// so ordering by distance ASC returns the most similar rows first.
	query := `
		SELECT
			id, uid, name, description, plugins, genre, instrument, tags, rating, created_by, created_ts,
			1 - (embedding <=> ` + placeholder(argIdx) + `) AS similarity
		FROM plugin_chain
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + placeholder(argIdx+1) + `
		LIMIT ` + placeholder(argIdx+2)

	vector := pgvector.NewVector(opts.Vector)
	args = append(args, vector, vector, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search plugin chains")
	}
	defer rows.Close()

	results := []*store.PluginChainWithSimilarity{}
	for rows.Next() {
		var similarity float32
		chain, err := scanPluginChain(rows, &similarity)
		if err != nil {
			return nil, err
		}
		results = append(results, &store.PluginChainWithSimilarity{
			Chain:      chain,
			Similarity: similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// scanPluginChain scans a plugin chain row. When similarity is non-nil the row
// is expected to carry a trailing similarity column.
func scanPluginChain(rows *sql.Rows, similarity *float32) (*store.PluginChain, error) {
	var chain store.PluginChain
	var pluginsJSON []byte
	var tags pq.StringArray
	var rating sql.NullFloat64

	dest := []any{
		&chain.ID,
		&chain.UID,
		&chain.Name,
		&chain.Description,
		&pluginsJSON,
		&chain.Genre,
		&chain.Instrument,
		&tags,
		&rating,
		&chain.CreatedBy,
		&chain.CreatedTs,
	}
	if similarity != nil {
		dest = append(dest, similarity)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "failed to scan plugin chain")
	}

	if len(pluginsJSON) > 0 {
		if err := json.Unmarshal(pluginsJSON, &chain.Plugins); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal plugins")
		}
	}
	chain.Tags = []string(tags)
	if chain.Tags == nil {
		chain.Tags = []string{}
	}
	if rating.Valid {
		chain.Rating = &rating.Float64
	}

	return &chain, nil
}
