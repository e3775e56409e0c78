// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/rackline/rackline/internal/profile"
	"github.com/rackline/rackline/store"
	"github.com/rackline/rackline/store/db/postgres"
)

// NewDBDriver creates a new database driver based on the profile.
// Vector similarity search is delegated to PostgreSQL with the pgvector
// extension, so postgres is the only supported driver.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", profile.Driver)
	}
}
