package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/profile-sync/models"
)

const (
	// advanceProfileClock reserves the next stamp for a user. The row lock
	// serialises concurrent writers of the same user until commit.
	advanceProfileClock = `INSERT INTO profile_clock (user_id, last_modified)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_modified = GREATEST(profile_clock.last_modified + 1, EXCLUDED.last_modified)
		RETURNING last_modified;`

	upsertProfileItemConflict = `ON CONFLICT (user_id, account_id, version, kind, item_key) DO UPDATE
		SET value = EXCLUDED.value, deleted = EXCLUDED.deleted, last_modified = EXCLUDED.last_modified`

	upsertKVConflict = `ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)

var (
	pg     = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)
)

// itemScope returns the (account_id, version) a mutation of kind is stored
// under. Settings are account-wide.
func itemScope(key models.ProfileKey, kind models.ItemKind) (string, int) {
	if kind == models.KindSetting {
		return "", 0
	}
	return key.AccountID, key.Version
}

func buildUpsertItemQuery(userID string, key models.ProfileKey, m models.Mutation, stamp int64) (string, []any, error) {
	accountID, version := itemScope(key, m.Kind)

	var value any
	if !m.Delete {
		value = string(m.Value)
	}

	query, args, err := pg.Insert("profile_items").
		Columns("user_id", "account_id", "version", "kind", "item_key", "value", "deleted", "last_modified").
		Values(userID, accountID, version, string(m.Kind), m.Key, value, m.Delete, stamp).
		Suffix(upsertProfileItemConflict).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildFetchItemsQuery(userID string, key models.ProfileKey, since int64, includeDeleted bool) (string, []any, error) {
	b := pg.Select("kind", "item_key", "value", "deleted", "last_modified").
		From("profile_items").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Or{
			sq.Eq{"account_id": key.AccountID, "version": key.Version},
			sq.Eq{"account_id": "", "version": 0, "kind": string(models.KindSetting)},
		}).
		Where(sq.Gt{"last_modified": since})

	if !includeDeleted {
		b = b.Where(sq.Eq{"deleted": false})
	}

	query, args, err := b.OrderBy("last_modified", "kind", "item_key").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildDeleteAccountQuery(userID, accountID string, stamp int64) (string, []any, error) {
	query, args, err := pg.Update("profile_items").
		Set("deleted", true).
		Set("value", nil).
		Set("last_modified", stamp).
		Where(sq.Eq{"user_id": userID, "deleted": false}).
		Where(sq.Or{
			sq.Eq{"account_id": accountID},
			sq.Eq{"account_id": "", "kind": string(models.KindSetting)},
		}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildGetKVQuery(key string) (string, []any, error) {
	return sqlite.Select("value").From("kv_store").Where(sq.Eq{"key": key}).ToSql()
}

func buildPutKVQuery(key string, value []byte) (string, []any, error) {
	return sqlite.Insert("kv_store").
		Columns("key", "value").
		Values(key, value).
		Suffix(upsertKVConflict).
		ToSql()
}

func buildDeleteKVQuery(key string) (string, []any, error) {
	return sqlite.Delete("kv_store").Where(sq.Eq{"key": key}).ToSql()
}
