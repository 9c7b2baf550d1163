package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/models"
)

// ── Nop ──

func TestNop(t *testing.T) {
	n := Nop()
	assert.NoError(t, n.Notify(context.Background(), models.EventSettingsChanged))
	unsubscribe := n.OnNotify(func(context.Context, models.PeerMessage) { t.Fatal("nop must not dispatch") })
	unsubscribe()
	assert.NoError(t, n.Close())
}

// ── LocalBus ──

func TestLocalBus_DeliversToPeersOnly(t *testing.T) {
	bus := NewLocalBus()
	a := bus.Endpoint("a", "u1")
	b := bus.Endpoint("b", "u1")
	other := bus.Endpoint("c", "u2")

	var gotA, gotB, gotOther atomic.Int32
	a.OnNotify(func(context.Context, models.PeerMessage) { gotA.Add(1) })
	b.OnNotify(func(_ context.Context, msg models.PeerMessage) {
		assert.Equal(t, "a", msg.InstanceID)
		assert.Equal(t, models.EventSettingsChanged, msg.Event)
		gotB.Add(1)
	})
	other.OnNotify(func(context.Context, models.PeerMessage) { gotOther.Add(1) })

	require.NoError(t, a.Notify(context.Background(), models.EventSettingsChanged))

	assert.Eventually(t, func() bool { return gotB.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gotA.Load(), "sender must not receive its own event")
	assert.Zero(t, gotOther.Load(), "events stay within one user")
}

func TestLocalBus_UnsubscribeAndClose(t *testing.T) {
	bus := NewLocalBus()
	a := bus.Endpoint("a", "u1")
	b := bus.Endpoint("b", "u1")

	var got atomic.Int32
	unsubscribe := b.OnNotify(func(context.Context, models.PeerMessage) { got.Add(1) })
	unsubscribe()
	unsubscribe()

	require.NoError(t, a.Notify(context.Background(), models.EventSettingsChanged))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, got.Load())

	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Notify(context.Background(), models.EventSettingsChanged), ErrNotifierClosed)
}

// ── RedisNotifier ──

func newTestRedisNotifier(instanceID string) *RedisNotifier {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	return NewRedisNotifier(client, "profile-sync", instanceID, "u1", logger.Nop())
}

func TestRedisNotifier_Process(t *testing.T) {
	n := newTestRedisNotifier("self")

	var got []models.PeerMessage
	n.OnNotify(func(_ context.Context, msg models.PeerMessage) { got = append(got, msg) })

	peer, err := newTestRedisNotifier("peer").encode(models.EventSettingsChanged)
	require.NoError(t, err)
	own, err := n.encode(models.EventSettingsChanged)
	require.NoError(t, err)
	foreign, err := json.Marshal(models.PeerMessage{InstanceID: "x", UserID: "u2", Event: models.EventSettingsChanged})
	require.NoError(t, err)

	require.NoError(t, n.process(context.Background(), peer))
	require.NoError(t, n.process(context.Background(), own))
	require.NoError(t, n.process(context.Background(), foreign))

	require.Len(t, got, 1)
	assert.Equal(t, "peer", got[0].InstanceID)
	assert.Equal(t, "u1", got[0].UserID)
}

func TestRedisNotifier_ProcessRejectsGarbage(t *testing.T) {
	n := newTestRedisNotifier("self")

	assert.Error(t, n.process(context.Background(), []byte("{")))
	assert.Error(t, n.process(context.Background(), []byte(`{"user_id":"u1"}`)))
}

func TestRedisNotifier_NotifyUnreachable(t *testing.T) {
	n := newTestRedisNotifier("self")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	assert.Error(t, n.Notify(ctx, models.EventSettingsChanged))
	assert.NoError(t, n.Close())
}

func TestRedisNotifier_RunAndCloseConcurrently(t *testing.T) {
	n := newTestRedisNotifier("self")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		n.Run(context.Background())
	}()
	go func() {
		defer wg.Done()
		_ = n.Close()
	}()
	wg.Wait()

	require.NoError(t, n.Close())
	n.Run(context.Background())

	select {
	case <-n.done:
	case <-time.After(3 * time.Second):
		t.Fatal("subscription loop still running after Close")
	}
}

func TestRedisNotifier_RunStopsOnClose(t *testing.T) {
	n := newTestRedisNotifier("self")
	n.Run(context.Background())

	closed := make(chan struct{})
	go func() {
		_ = n.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not stop the subscription loop")
	}
}
