package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/mock"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

func TestStatePersister_CoalescesChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mock.NewMockLocalStorage(ctrl)

	var writes atomic.Int32
	storage.EXPECT().Put(gomock.Any(), stateStorageKey, gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte) error {
			writes.Add(1)
			return nil
		}).MinTimes(1)
	storage.EXPECT().Put(gomock.Any(), queueStorageKey, gomock.Any()).Return(nil).MinTimes(1)

	p := newStatePersister(storage, 30*time.Millisecond, func() persistedSnapshot {
		return persistedSnapshot{state: models.NewPersistedState()}
	}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Run(ctx)
	for i := 0; i < 10; i++ {
		p.Changed()
	}

	assert.Eventually(t, func() bool { return writes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), writes.Load(), "a burst of changes is written once")

	cancel()
	p.Wait()
}

func TestStatePersister_PersistError(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mock.NewMockLocalStorage(ctrl)
	storage.EXPECT().Put(gomock.Any(), stateStorageKey, gomock.Any()).Return(errors.New("disk full"))

	p := newStatePersister(storage, 0, func() persistedSnapshot {
		return persistedSnapshot{state: models.NewPersistedState()}
	}, logger.Nop())

	err := p.Persist(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestLoadPersisted(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		snap, problems := loadPersisted(ctx, store.NewMemoryLocalStorage())
		assert.Empty(t, problems)
		assert.Empty(t, snap.queue)
		assert.NotNil(t, snap.state.Settings)
		assert.NotNil(t, snap.state.Profiles)
	})

	t.Run("round trip", func(t *testing.T) {
		s := store.NewMemoryLocalStorage()
		state := models.NewPersistedState()
		state.Permission = models.PermissionGranted
		state.Settings["itemSize"] = json.RawMessage(`50`)
		profile := models.NewProfileState()
		profile.SyncToken = "9"
		state.Profiles[activeKey] = profile

		raw, err := json.Marshal(state)
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, stateStorageKey, raw))
		require.NoError(t, s.Put(ctx, queueStorageKey, []byte(`[{"id":"a","action":"tag","payload":{"item_id":"1","tag":"junk"}}]`)))

		snap, problems := loadPersisted(ctx, s)
		assert.Empty(t, problems)
		assert.Equal(t, models.PermissionGranted, snap.state.Permission)
		assert.Equal(t, "9", snap.state.Profiles[activeKey].SyncToken)
		assert.NotNil(t, snap.state.Profiles[activeKey].Loadouts)
		require.Len(t, snap.queue, 1)
		assert.Equal(t, models.ActionTag, snap.queue[0].Action)
	})

	t.Run("corrupt blobs are reported and dropped", func(t *testing.T) {
		s := store.NewMemoryLocalStorage()
		require.NoError(t, s.Put(ctx, stateStorageKey, []byte(`[]`)))
		require.NoError(t, s.Put(ctx, queueStorageKey, []byte(`{}`)))

		snap, problems := loadPersisted(ctx, s)
		require.Len(t, problems, 2)
		for _, p := range problems {
			assert.Equal(t, KindValidation, p.Kind)
		}
		assert.Empty(t, snap.queue)
		assert.Equal(t, models.PermissionUnset, snap.state.Permission)
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := mock.NewMockLocalStorage(ctrl)
		s.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("io error")).Times(2)

		_, problems := loadPersisted(ctx, s)
		assert.Len(t, problems, 2)
	})
}
