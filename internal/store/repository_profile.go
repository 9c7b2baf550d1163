package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/models"
)

// profileRepository is the PostgreSQL [ProfileRepository]. Items live in
// profile_items; the per-user stamp counter lives in profile_clock.
type profileRepository struct {
	*DB
	now func() time.Time
}

// NewProfileRepository constructs a PostgreSQL-backed [ProfileRepository].
func NewProfileRepository(db *DB) ProfileRepository {
	return &profileRepository{DB: db, now: time.Now}
}

func (p *profileRepository) ApplyMutations(ctx context.Context, userID string, key models.ProfileKey, mutations []models.Mutation) (int64, error) {
	log := logger.FromContext(ctx)

	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "profileRepository.ApplyMutations").Str("user_id", userID).Msg("failed to begin transaction")
		return 0, p.wrap(ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stamp, err := p.nextStamp(ctx, tx, userID)
	if err != nil {
		log.Err(err).Str("func", "profileRepository.ApplyMutations").Str("user_id", userID).Msg("failed to advance profile clock")
		return 0, err
	}

	for i, m := range mutations {
		query, args, err := buildUpsertItemQuery(userID, key, m, stamp)
		if err != nil {
			return 0, err
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", "profileRepository.ApplyMutations").
				Str("user_id", userID).
				Str("profile", key.String()).
				Int("index", i).
				Str("kind", string(m.Kind)).
				Msg("failed to upsert profile item")
			return 0, p.wrap(ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "profileRepository.ApplyMutations").Str("user_id", userID).Msg("failed to commit transaction")
		return 0, p.wrap(ErrCommitingTransaction, err)
	}

	return stamp, nil
}

func (p *profileRepository) FetchItems(ctx context.Context, userID string, key models.ProfileKey, since int64, includeDeleted bool) ([]models.ProfileItem, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFetchItemsQuery(userID, key, since, includeDeleted)
	if err != nil {
		log.Err(err).Str("func", "profileRepository.FetchItems").Str("user_id", userID).Msg("failed to create query")
		return nil, err
	}

	rows, err := p.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.FetchItems").
			Str("user_id", userID).
			Str("profile", key.String()).
			Int64("since", since).
			Msg("failed to execute query for profile items")
		return nil, p.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.ProfileItem, 0, 64)
	for rows.Next() {
		var (
			item  models.ProfileItem
			kind  string
			value []byte
		)
		if err := rows.Scan(&kind, &item.Key, &value, &item.Deleted, &item.LastModified); err != nil {
			log.Err(err).Str("func", "profileRepository.FetchItems").Str("user_id", userID).Msg("failed to scan profile item row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		item.Kind = models.ItemKind(kind)
		if len(value) > 0 {
			item.Value = value
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "profileRepository.FetchItems").Str("user_id", userID).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

func (p *profileRepository) DeleteAccount(ctx context.Context, userID, accountID string) (int64, error) {
	log := logger.FromContext(ctx)

	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return 0, p.wrap(ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stamp, err := p.nextStamp(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	query, args, err := buildDeleteAccountQuery(userID, accountID, stamp)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.DeleteAccount").
			Str("user_id", userID).
			Str("account_id", accountID).
			Msg("failed to tombstone account items")
		return 0, p.wrap(ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, p.wrap(ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, p.wrap(ErrCommitingTransaction, err)
	}

	log.Info().
		Str("func", "profileRepository.DeleteAccount").
		Str("user_id", userID).
		Str("account_id", accountID).
		Int64("deleted", affected).
		Msg("account data wiped")

	return affected, nil
}

func (p *profileRepository) nextStamp(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	var stamp int64
	if err := tx.QueryRowContext(ctx, advanceProfileClock, userID, p.now().UnixMilli()).Scan(&stamp); err != nil {
		return 0, p.wrap(ErrExecutingQuery, err)
	}

	return stamp, nil
}
