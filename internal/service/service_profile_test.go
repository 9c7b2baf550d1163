package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/mock"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

func newProfileServiceFixture(t *testing.T) (ProfileService, *mock.MockProfileRepository) {
	t.Helper()
	repo := mock.NewMockProfileRepository(gomock.NewController(t))
	return NewProfileService(repo, logger.Nop()), repo
}

func rawUpdate(id string, action models.UpdateAction, payload string, key *models.ProfileKey) models.PendingUpdate {
	return models.PendingUpdate{ID: id, Action: action, Payload: json.RawMessage(payload), ProfileKey: key}
}

// ─────────────────────────────────────────────
// ApplyUpdates
// ─────────────────────────────────────────────

func TestProfileService_ApplyUpdates_InOrderWithTargets(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)
	other := otherKey

	gomock.InOrder(
		repo.EXPECT().
			ApplyMutations(gomock.Any(), "u1", activeKey, []models.Mutation{{Kind: models.KindSetting, Key: "theme", Value: json.RawMessage(`"dark"`)}}).
			Return(int64(10), nil),
		repo.EXPECT().
			ApplyMutations(gomock.Any(), "u1", otherKey, []models.Mutation{{Kind: models.KindLoadout, Key: "l1", Delete: true}}).
			Return(int64(11), nil),
	)

	resp, err := svc.ApplyUpdates(context.Background(), "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates: []models.PendingUpdate{
			rawUpdate("a", models.ActionSetting, `{"theme":"dark"}`, nil),
			rawUpdate("b", models.ActionDeleteLoadout, `{"id":"l1"}`, &other),
		},
		Length: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.LastModified)
	assert.Equal(t, []models.UpdateResult{
		{ID: "a", Status: models.UpdateStatusOK},
		{ID: "b", Status: models.UpdateStatusOK},
	}, resp.Results)
}

func TestProfileService_ApplyUpdates_MalformedUpdateFailsAlone(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	repo.EXPECT().ApplyMutations(gomock.Any(), "u1", activeKey, gomock.Len(1)).Return(int64(3), nil)

	resp, err := svc.ApplyUpdates(context.Background(), "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates: []models.PendingUpdate{
			rawUpdate("bad", models.ActionLoadout, `{"name":"no id"}`, nil),
			rawUpdate("good", models.ActionSearch, `{"query":"is:weapon"}`, nil),
		},
		Length: 2,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, models.UpdateStatusFailed, resp.Results[0].Status)
	assert.NotEmpty(t, resp.Results[0].Message)
	assert.Equal(t, models.UpdateResult{ID: "good", Status: models.UpdateStatusOK}, resp.Results[1])
	assert.Equal(t, int64(3), resp.LastModified)
}

func TestProfileService_ApplyUpdates_EmptyCleanupSkipsStore(t *testing.T) {
	svc, _ := newProfileServiceFixture(t)

	resp, err := svc.ApplyUpdates(context.Background(), "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates:    []models.PendingUpdate{rawUpdate("c", models.ActionTagCleanup, `{"item_ids":[]}`, nil)},
		Length:     1,
	})

	require.NoError(t, err)
	assert.Equal(t, models.UpdateStatusOK, resp.Results[0].Status)
	assert.Zero(t, resp.LastModified)
}

func TestProfileService_ApplyUpdates_StoreFailureAbortsBatch(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	repo.EXPECT().
		ApplyMutations(gomock.Any(), "u1", activeKey, gomock.Any()).
		Return(int64(0), store.ErrRetryable)

	_, err := svc.ApplyUpdates(context.Background(), "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates: []models.PendingUpdate{
			rawUpdate("a", models.ActionSetting, `{"theme":"dark"}`, nil),
			rawUpdate("b", models.ActionSetting, `{"lang":"en"}`, nil),
		},
		Length: 2,
	})

	assert.ErrorIs(t, err, store.ErrRetryable)
}

// ─────────────────────────────────────────────
// GetProfile
// ─────────────────────────────────────────────

func TestProfileService_GetProfile_FullLoad(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	items := []models.ProfileItem{
		{Kind: models.KindSetting, Key: "theme", Value: json.RawMessage(`"dark"`), LastModified: 1000},
		{Kind: models.KindLoadout, Key: "l1", Value: json.RawMessage(`{"id":"l1"}`), LastModified: 1500},
	}
	repo.EXPECT().FetchItems(gomock.Any(), "u1", activeKey, int64(0), false).Return(items, nil)

	resp, err := svc.GetProfile(context.Background(), "u1", models.ProfileRequest{ProfileKey: activeKey})

	require.NoError(t, err)
	assert.True(t, resp.Full)
	assert.Equal(t, items, resp.Items)
	assert.Equal(t, int64(1500), resp.LastModified)
	assert.Equal(t, "1500", resp.SyncToken)
	assert.Equal(t, activeKey, resp.ProfileKey)
}

func TestProfileService_GetProfile_IncrementalIncludesTombstones(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	repo.EXPECT().FetchItems(gomock.Any(), "u1", activeKey, int64(1000), true).Return(nil, nil)

	resp, err := svc.GetProfile(context.Background(), "u1", models.ProfileRequest{ProfileKey: activeKey, SyncToken: "1000"})

	require.NoError(t, err)
	assert.False(t, resp.Full)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "1000", resp.SyncToken)
	assert.Equal(t, int64(1000), resp.LastModified)
}

func TestProfileService_GetProfile_InvalidToken(t *testing.T) {
	svc, _ := newProfileServiceFixture(t)

	for _, token := range []string{"abc", "-5", "1.5"} {
		_, err := svc.GetProfile(context.Background(), "u1", models.ProfileRequest{ProfileKey: activeKey, SyncToken: token})
		assert.ErrorIs(t, err, ErrInvalidSyncToken, token)
	}
}

func TestProfileService_GetProfile_StoreError(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)
	boom := errors.New("boom")

	repo.EXPECT().FetchItems(gomock.Any(), "u1", activeKey, int64(0), false).Return(nil, boom)

	_, err := svc.GetProfile(context.Background(), "u1", models.ProfileRequest{ProfileKey: activeKey})
	assert.ErrorIs(t, err, boom)
}

// ─────────────────────────────────────────────
// DeleteProfile
// ─────────────────────────────────────────────

func TestProfileService_DeleteProfile(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	repo.EXPECT().DeleteAccount(gomock.Any(), "u1", "acc").Return(int64(7), nil)

	resp, err := svc.DeleteProfile(context.Background(), "u1", "acc")

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Deleted)
}

func TestProfileService_DeleteProfile_StoreError(t *testing.T) {
	svc, repo := newProfileServiceFixture(t)

	repo.EXPECT().DeleteAccount(gomock.Any(), "u1", "acc").Return(int64(0), store.ErrExecutingStatement)

	_, err := svc.DeleteProfile(context.Background(), "u1", "acc")
	assert.ErrorIs(t, err, store.ErrExecutingStatement)
}

// ─────────────────────────────────────────────
// against the in-memory repository
// ─────────────────────────────────────────────

func TestProfileService_MemoryRepository_RoundTrip(t *testing.T) {
	svc := NewProfileService(store.NewMemoryProfileRepository(), logger.Nop())
	ctx := context.Background()

	resp, err := svc.ApplyUpdates(ctx, "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates: []models.PendingUpdate{
			rawUpdate("a", models.ActionLoadout, `{"id":"l1","name":"PvP"}`, nil),
			rawUpdate("b", models.ActionSetting, `{"theme":"dark"}`, nil),
		},
		Length: 2,
	})
	require.NoError(t, err)
	require.Positive(t, resp.LastModified)

	full, err := svc.GetProfile(ctx, "u1", models.ProfileRequest{ProfileKey: activeKey})
	require.NoError(t, err)
	assert.Len(t, full.Items, 2)

	_, err = svc.ApplyUpdates(ctx, "u1", models.UpdateRequest{
		ProfileKey: activeKey,
		Updates:    []models.PendingUpdate{rawUpdate("c", models.ActionDeleteLoadout, `{"id":"l1"}`, nil)},
		Length:     1,
	})
	require.NoError(t, err)

	delta, err := svc.GetProfile(ctx, "u1", models.ProfileRequest{ProfileKey: activeKey, SyncToken: full.SyncToken})
	require.NoError(t, err)
	require.Len(t, delta.Items, 1)
	assert.True(t, delta.Items[0].Deleted)
	assert.Equal(t, "l1", delta.Items[0].Key)
}
