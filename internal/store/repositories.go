package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/logger"
)

type Repositories struct {
	ProfileRepository ProfileRepository

	db *DB
}

// NewRepositories opens the server's profile store: PostgreSQL at dsn, or
// an in-memory repository when dsn is empty.
func NewRepositories(ctx context.Context, dsn string, logger *logger.Logger) (*Repositories, error) {
	if dsn == "" {
		logger.Warn().Msg("no database configured, profiles are kept in memory")
		return &Repositories{ProfileRepository: NewMemoryProfileRepository()}, nil
	}

	logger.Info().Msg("creating new repositories...")

	db, err := NewConnectPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	return &Repositories{
		ProfileRepository: NewProfileRepository(db),
		db:                db,
	}, nil
}

// Close releases the database connection, if any.
func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
