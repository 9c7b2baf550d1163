package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/migrations"
)

// DB wraps a *sql.DB with the dialect it speaks, an error classifier and
// a logger.
type DB struct {
	*sql.DB
	dialect            migrations.Dialect
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies the embedded migrations for the connection's dialect.
func (db *DB) Migrate() error {
	if err := migrations.Migrate(db.DB, db.dialect); err != nil {
		db.logger.Err(err).Str("func", "DB.Migrate").Str("dialect", string(db.dialect)).Msg("migration failed")
		return err
	}

	return nil
}

// wrap annotates err with kind and, when the classifier says so,
// [ErrRetryable].
func (db *DB) wrap(kind, err error) error {
	if db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", kind, ErrRetryable, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
