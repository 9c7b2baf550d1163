package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/models"
)

func TestMemoryProfileRepository_LastWriteWinsAndIncremental(t *testing.T) {
	repo := NewMemoryProfileRepository().(*memoryProfileRepository)
	repo.now = func() time.Time { return time.UnixMilli(1_000) }
	ctx := context.Background()
	key := models.NewProfileKey("acc", 2)

	s1, err := repo.ApplyMutations(ctx, "u1", key, []models.Mutation{
		{Kind: models.KindSetting, Key: "itemSize", Value: []byte(`40`)},
		{Kind: models.KindLoadout, Key: "l1", Value: []byte(`{"id":"l1"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), s1)

	s2, err := repo.ApplyMutations(ctx, "u1", key, []models.Mutation{
		{Kind: models.KindSetting, Key: "itemSize", Value: []byte(`50`)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_001), s2, "stamp must advance even when the wall clock does not")

	full, err := repo.FetchItems(ctx, "u1", key, 0, false)
	require.NoError(t, err)
	require.Len(t, full, 2)
	assert.Equal(t, "l1", full[0].Key)
	assert.JSONEq(t, `50`, string(full[1].Value))

	delta, err := repo.FetchItems(ctx, "u1", key, s1, true)
	require.NoError(t, err)
	require.Len(t, delta, 1)
	assert.Equal(t, "itemSize", delta[0].Key)
}

func TestMemoryProfileRepository_SettingsSharedAcrossProfiles(t *testing.T) {
	repo := NewMemoryProfileRepository()
	ctx := context.Background()

	_, err := repo.ApplyMutations(ctx, "u1", models.NewProfileKey("acc", 1), []models.Mutation{
		{Kind: models.KindSetting, Key: "charCol", Value: []byte(`3`)},
		{Kind: models.KindSearch, Key: "is:hand", Value: []byte(`{"query":"is:hand"}`)},
	})
	require.NoError(t, err)

	other, err := repo.FetchItems(ctx, "u1", models.NewProfileKey("acc", 2), 0, false)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, models.KindSetting, other[0].Kind)

	stranger, err := repo.FetchItems(ctx, "u2", models.NewProfileKey("acc", 1), 0, false)
	require.NoError(t, err)
	assert.Empty(t, stranger)
}

func TestMemoryProfileRepository_DeleteAccountTombstones(t *testing.T) {
	repo := NewMemoryProfileRepository()
	ctx := context.Background()
	key := models.NewProfileKey("acc", 1)

	stamp, err := repo.ApplyMutations(ctx, "u1", key, []models.Mutation{
		{Kind: models.KindSetting, Key: "charCol", Value: []byte(`3`)},
		{Kind: models.KindTag, Key: "7", Value: []byte(`{"item_id":"7","tag":"junk"}`)},
	})
	require.NoError(t, err)

	n, err := repo.DeleteAccount(ctx, "u1", "acc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	live, err := repo.FetchItems(ctx, "u1", key, 0, false)
	require.NoError(t, err)
	assert.Empty(t, live)

	tombstones, err := repo.FetchItems(ctx, "u1", key, stamp, true)
	require.NoError(t, err)
	assert.Len(t, tombstones, 2)
	for _, it := range tombstones {
		assert.True(t, it.Deleted)
	}
}

func TestClock_StrictlyIncreasingUnderContention(t *testing.T) {
	c := NewClockAt(0)
	const n = 200

	var mu sync.Mutex
	seen := make(map[int64]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.Next(10)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.Equal(t, int64(10+n-1), c.Current())
	assert.Equal(t, int64(5_000), c.Next(5_000))
}
