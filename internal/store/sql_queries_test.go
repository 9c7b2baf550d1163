package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/models"
)

func Test_buildUpsertItemQuery(t *testing.T) {
	tests := []struct {
		name      string
		mutation  models.Mutation
		wantScope []any
		wantValue any
	}{
		{
			name:      "profile scoped loadout",
			mutation:  models.Mutation{Kind: models.KindLoadout, Key: "l1", Value: []byte(`{}`)},
			wantScope: []any{"acc", 2},
			wantValue: `{}`,
		},
		{
			name:      "settings are account-wide",
			mutation:  models.Mutation{Kind: models.KindSetting, Key: "itemSize", Value: []byte(`50`)},
			wantScope: []any{"", 0},
			wantValue: `50`,
		},
		{
			name:      "delete stores null value",
			mutation:  models.Mutation{Kind: models.KindTag, Key: "7", Delete: true},
			wantScope: []any{"acc", 2},
			wantValue: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildUpsertItemQuery("u1", models.NewProfileKey("acc", 2), tt.mutation, 99)
			require.NoError(t, err)

			q := strings.ToLower(query)
			require.Contains(t, q, "insert into profile_items")
			require.Contains(t, q, "on conflict (user_id, account_id, version, kind, item_key) do update")
			require.Contains(t, query, "$8")

			require.Len(t, args, 8)
			require.Equal(t, "u1", args[0])
			require.Equal(t, tt.wantScope, args[1:3])
			require.Equal(t, string(tt.mutation.Kind), args[3])
			require.Equal(t, tt.wantValue, args[5])
			require.Equal(t, tt.mutation.Delete, args[6])
			require.Equal(t, int64(99), args[7])
		})
	}
}

func Test_buildFetchItemsQuery(t *testing.T) {
	query, args, err := buildFetchItemsQuery("u1", models.NewProfileKey("acc", 2), 10, false)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "from profile_items")
	require.Contains(t, q, "last_modified > $")
	require.Contains(t, q, "deleted = $")
	require.Contains(t, q, "order by last_modified, kind, item_key")
	require.Contains(t, args, int64(10))
	require.Contains(t, args, "setting")

	query, _, err = buildFetchItemsQuery("u1", models.NewProfileKey("acc", 2), 0, true)
	require.NoError(t, err)
	whereIdx := strings.Index(strings.ToLower(query), "where")
	require.NotContains(t, strings.ToLower(query[whereIdx:]), "deleted =",
		"tombstones requested: no deleted filter")
}

func Test_buildDeleteAccountQuery(t *testing.T) {
	query, args, err := buildDeleteAccountQuery("u1", "acc", 77)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.True(t, strings.HasPrefix(q, "update profile_items set deleted = $1, value = $2, last_modified = $3"))
	require.Equal(t, true, args[0])
	require.Nil(t, args[1])
	require.Equal(t, int64(77), args[2])
	require.Contains(t, args, "acc")
}

func Test_buildKVQueries(t *testing.T) {
	query, args, err := buildPutKVQuery("sync-state", []byte("{}"))
	require.NoError(t, err)
	require.Contains(t, query, "INSERT INTO kv_store (key,value) VALUES (?,?)")
	require.Contains(t, query, "ON CONFLICT (key) DO UPDATE")
	require.Equal(t, []any{"sync-state", []byte("{}")}, args)

	query, _, err = buildGetKVQuery("sync-state")
	require.NoError(t, err)
	require.Equal(t, "SELECT value FROM kv_store WHERE key = ?", query)

	query, _, err = buildDeleteKVQuery("sync-state")
	require.NoError(t, err)
	require.Equal(t, "DELETE FROM kv_store WHERE key = ?", query)
}
