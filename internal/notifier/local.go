package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/profile-sync/models"
)

// ErrNotifierClosed is returned by Notify after Close.
var ErrNotifierClosed = errors.New("notifier closed")

// LocalBus connects engines running in one process, the way browser tabs
// of one origin share a broadcast channel. Give each engine its own
// [LocalBus.Endpoint]; the daemon runs a single engine and uses
// [RedisNotifier] between processes instead.
type LocalBus struct {
	mu        sync.RWMutex
	endpoints map[*localEndpoint]struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{endpoints: make(map[*localEndpoint]struct{})}
}

// Endpoint attaches a new instance to the bus.
func (b *LocalBus) Endpoint(instanceID, userID string) Notifier {
	e := &localEndpoint{bus: b, instanceID: instanceID, userID: userID}
	b.mu.Lock()
	b.endpoints[e] = struct{}{}
	b.mu.Unlock()
	return e
}

func (b *LocalBus) publish(from *localEndpoint, msg models.PeerMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for e := range b.endpoints {
		if e == from || e.userID != msg.UserID {
			continue
		}
		// handlers run off the publisher's goroutine, like a real channel
		go e.handlers.dispatch(context.Background(), msg)
	}
}

type localEndpoint struct {
	bus        *LocalBus
	instanceID string
	userID     string
	handlers   handlers

	closed bool
	mu     sync.Mutex
}

func (e *localEndpoint) Notify(_ context.Context, event models.PeerEvent) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrNotifierClosed
	}

	e.bus.publish(e, models.PeerMessage{
		InstanceID: e.instanceID,
		UserID:     e.userID,
		Event:      event,
		SentAt:     time.Now().UTC(),
	})
	return nil
}

func (e *localEndpoint) OnNotify(h Handler) func() {
	return e.handlers.add(h)
}

func (e *localEndpoint) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.bus.mu.Lock()
	delete(e.bus.endpoints, e)
	e.bus.mu.Unlock()
	return nil
}
