package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/notifier"
	"github.com/MKhiriev/profile-sync/models"
)

// fakeEngine records the calls the scheduler makes.
type fakeEngine struct {
	ClientSyncEngine

	mu       sync.Mutex
	loads    []LoadOptions
	forced   int
	flushes  int
	switched []models.ProfileKey
	loadErr  error
}

func (f *fakeEngine) Load(_ context.Context, opts LoadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, opts)
	return f.loadErr
}

func (f *fakeEngine) ForceSync(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
	return f.loadErr
}

func (f *fakeEngine) MaybeFlush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeEngine) SwitchProfile(key models.ProfileKey, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switched = append(f.switched, key)
	return nil
}

func (f *fakeEngine) loadCalls() []LoadOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LoadOptions(nil), f.loads...)
}

func (f *fakeEngine) flushCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

type schedulerFixture struct {
	scheduler *clientSyncScheduler
	engine    *fakeEngine
	gate      *PermissionGate
	presence  *PresenceState
	bus       *notifier.LocalBus
	peer      notifier.Notifier
}

func newSchedulerFixture(t *testing.T, permission models.Permission, opts ...func(*SchedulerConfig)) *schedulerFixture {
	t.Helper()

	cfg := SchedulerConfig{
		Device:                     models.DeviceUnconstrained,
		RefreshInterval:            time.Hour,
		ConstrainedRefreshInterval: time.Hour,
		VisibilityCooldown:         time.Minute,
		PeerDelay:                  10 * time.Millisecond,
	}
	for _, o := range opts {
		o(&cfg)
	}

	bus := notifier.NewLocalBus()
	f := &schedulerFixture{
		engine:   &fakeEngine{},
		gate:     NewPermissionGate(nil),
		presence: NewPresenceState(),
		bus:      bus,
		peer:     bus.Endpoint("peer", "u1"),
	}
	f.gate.restore(permission)

	f.scheduler = NewClientSyncScheduler(cfg, f.engine, EngineDeps{
		Credentials: &stubCredentials{token: "tok"},
		Notifier:    bus.Endpoint("self", "u1"),
		Gate:        f.gate,
		Presence:    f.presence,
	}).(*clientSyncScheduler)
	t.Cleanup(f.scheduler.Stop)

	return f
}

func TestClientSyncScheduler_StartLoads(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)

	f.scheduler.Run(context.Background())

	assert.Eventually(t, func() bool { return len(f.engine.loadCalls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, LoadOptions{}, f.engine.loadCalls()[0])
	assert.Eventually(t, func() bool { return f.scheduler.State() == SchedulerIdle }, time.Second, 5*time.Millisecond)
}

func TestClientSyncScheduler_WaitsForPermission(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionUnset)

	f.scheduler.Run(context.Background())
	assert.Eventually(t, func() bool {
		return f.scheduler.State() == SchedulerWaitingForPermission
	}, time.Second, 5*time.Millisecond)

	f.gate.Set(models.PermissionGranted)

	assert.Eventually(t, func() bool { return f.engine.flushCalls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(f.engine.loadCalls()) >= 2 }, time.Second, 5*time.Millisecond)
}

func TestClientSyncScheduler_PeerNotificationLoadsSkippingFreshness(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)
	ctx := context.Background()

	f.scheduler.Run(ctx)
	require.Eventually(t, func() bool { return len(f.engine.loadCalls()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.peer.Notify(ctx, models.EventSettingsChanged))

	assert.Eventually(t, func() bool {
		calls := f.engine.loadCalls()
		return len(calls) == 2 && calls[1] == LoadOptions{SkipFreshness: true}
	}, time.Second, 5*time.Millisecond)
}

func TestClientSyncScheduler_PeerNotificationIgnoredWhileHidden(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)
	ctx := context.Background()

	f.scheduler.Run(ctx)
	require.Eventually(t, func() bool { return len(f.engine.loadCalls()) == 1 }, time.Second, 5*time.Millisecond)

	f.presence.SetVisible(false)
	require.NoError(t, f.peer.Notify(ctx, models.EventSettingsChanged))

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.engine.loadCalls(), 1)
}

func TestClientSyncScheduler_VisibilityCooldown(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)
	ctx := context.Background()

	f.scheduler.Run(ctx)
	require.Eventually(t, func() bool { return len(f.engine.loadCalls()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.scheduler.State() == SchedulerIdle }, time.Second, 5*time.Millisecond)

	f.scheduler.VisibilityRegained(ctx)
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, f.engine.loadCalls(), 1, "a load ran within the cool-down")

	f.scheduler.mu.Lock()
	f.scheduler.lastLoad = time.Now().Add(-time.Hour)
	f.scheduler.mu.Unlock()

	f.scheduler.VisibilityRegained(ctx)
	assert.Eventually(t, func() bool { return len(f.engine.loadCalls()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestClientSyncScheduler_PeriodicRefresh(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted, func(c *SchedulerConfig) {
		c.RefreshInterval = 15 * time.Millisecond
	})

	f.scheduler.Run(context.Background())
	assert.Eventually(t, func() bool { return len(f.engine.loadCalls()) >= 3 }, time.Second, 5*time.Millisecond)

	f.gate.Set(models.PermissionDenied)
	time.Sleep(30 * time.Millisecond)
	n := len(f.engine.loadCalls())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, len(f.engine.loadCalls()), "the ticker stops when permission is withdrawn")
}

func TestClientSyncScheduler_RefreshAndBackoffState(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)
	ctx := context.Background()

	require.NoError(t, f.scheduler.Refresh(ctx))
	assert.Equal(t, 1, f.engine.forced)
	assert.Equal(t, SchedulerIdle, f.scheduler.State())

	f.engine.mu.Lock()
	f.engine.loadErr = &SyncError{Kind: KindTransient, Op: "load", Err: errors.New("503")}
	f.engine.mu.Unlock()

	assert.Error(t, f.scheduler.Refresh(ctx))
	assert.Equal(t, SchedulerBackoff, f.scheduler.State())

	f.engine.mu.Lock()
	f.engine.loadErr = &SyncError{Kind: KindFatalAuth, Op: "load", Err: ErrFatalAuth}
	f.engine.mu.Unlock()

	assert.Error(t, f.scheduler.Refresh(ctx))
	assert.Equal(t, SchedulerIdle, f.scheduler.State())
}

func TestClientSyncScheduler_SwitchAccount(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)

	require.NoError(t, f.scheduler.SwitchAccount(context.Background(), otherKey, true))
	assert.Equal(t, []models.ProfileKey{otherKey}, f.engine.switched)
	assert.Len(t, f.engine.loadCalls(), 1)

	f.gate.restore(models.PermissionDenied)
	require.NoError(t, f.scheduler.SwitchAccount(context.Background(), activeKey, false))
	assert.Len(t, f.engine.loadCalls(), 1, "no load without permission")
}

func TestClientSyncScheduler_StopIsIdempotent(t *testing.T) {
	f := newSchedulerFixture(t, models.PermissionGranted)
	f.scheduler.Stop()

	f.scheduler.Run(context.Background())
	f.scheduler.Stop()
	f.scheduler.Stop()

	f.scheduler.VisibilityRegained(context.Background())
}
