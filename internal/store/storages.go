package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/logger"
)

// NewLocalStorage opens the daemon's local store: the sqlite file at dsn,
// or an in-memory store when dsn is empty.
func NewLocalStorage(ctx context.Context, dsn string, logger *logger.Logger) (LocalStorage, error) {
	if dsn == "" {
		logger.Warn().Msg("no local database configured, sync state will not survive a restart")
		return NewMemoryLocalStorage(), nil
	}

	logger.Info().Msg("creating local storage...")

	db, err := NewConnectSQLite(ctx, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	return NewSQLiteLocalStorage(db, logger), nil
}
