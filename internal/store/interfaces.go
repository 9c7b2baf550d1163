package store

import (
	"context"

	"github.com/MKhiriev/profile-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// LocalStorage is the daemon's durable key-value store. It holds opaque
// blobs and applies no policy of its own.
type LocalStorage interface {
	// Get returns the blob stored under key or [ErrKeyNotFound].
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ProfileRepository is the server of record's storage.
//
// Settings mutations are stored account-wide for the user; every other kind
// is scoped to the profile key. Each call stamps the rows it touches with a
// per-user last_modified value that is strictly greater than any previous
// one.
type ProfileRepository interface {
	// ApplyMutations applies mutations in order, last write wins, and
	// returns the stamp they were written with.
	ApplyMutations(ctx context.Context, userID string, key models.ProfileKey, mutations []models.Mutation) (int64, error)

	// FetchItems returns the profile's and the user's settings records with
	// last_modified > since, ordered by last_modified. Tombstones are
	// included only when includeDeleted is set.
	FetchItems(ctx context.Context, userID string, key models.ProfileKey, since int64, includeDeleted bool) ([]models.ProfileItem, error)

	// DeleteAccount tombstones every record of the account (all versions)
	// and the user's settings, returning the number of records affected.
	DeleteAccount(ctx context.Context, userID, accountID string) (int64, error)
}

// ErrorClassificator decides whether a database error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
