package store

import (
	"context"

	"github.com/rackline/rackline/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

// Migrate applies the database schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}
