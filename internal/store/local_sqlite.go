package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/logger"
)

// sqliteLocalStorage keeps blobs in the kv_store table.
type sqliteLocalStorage struct {
	db     *DB
	logger *logger.Logger
}

// NewSQLiteLocalStorage wraps an open sqlite connection as a [LocalStorage].
// Close closes the connection.
func NewSQLiteLocalStorage(db *DB, log *logger.Logger) LocalStorage {
	return &sqliteLocalStorage{db: db, logger: log}
}

func (s *sqliteLocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := buildGetKVQuery(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		s.logger.Err(err).Str("func", "sqliteLocalStorage.Get").Str("key", key).Msg("failed to read key")
		return nil, s.db.wrap(ErrExecutingQuery, err)
	}

	return value, nil
}

func (s *sqliteLocalStorage) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := buildPutKVQuery(key, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "sqliteLocalStorage.Put").Str("key", key).Int("bytes", len(value)).Msg("failed to write key")
		return s.db.wrap(ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteLocalStorage) Delete(ctx context.Context, key string) error {
	query, args, err := buildDeleteKVQuery(key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "sqliteLocalStorage.Delete").Str("key", key).Msg("failed to delete key")
		return s.db.wrap(ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteLocalStorage) Close() error {
	return s.db.Close()
}
