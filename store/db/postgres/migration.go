package postgres

import (
	"context"
	"strconv"
	"strings"

	_ "embed"

	"github.com/pkg/errors"
)

//go:embed migration/schema.sql
var schemaSQL string

// renderSchema substitutes every %d placeholder with the configured
// embedding dimensions. ReplaceAll keeps the schema file free of printf
// verb-count coupling.
func renderSchema(dimensions int) string {
	return strings.ReplaceAll(schemaSQL, "%d", strconv.Itoa(dimensions))
}

// Migrate applies the embedded schema. Every statement uses IF NOT EXISTS,
// so running it repeatedly is safe.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, renderSchema(d.profile.EmbeddingDimensions)); err != nil {
		return errors.Wrap(err, "failed to apply database schema")
	}
	return nil
}
