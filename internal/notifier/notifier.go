// Package notifier carries best-effort peer events between client
// instances of the same user.
//
// Delivery is never guaranteed. A notifier whose transport is unavailable
// behaves like [Nop]: Notify succeeds and handlers are simply never called.
package notifier

import (
	"context"
	"sync"

	"github.com/MKhiriev/profile-sync/models"
)

// Handler receives a peer event. It runs on the notifier's goroutine and
// must not block for long.
type Handler func(ctx context.Context, msg models.PeerMessage)

// Notifier publishes events to other instances and dispatches theirs.
// An instance never receives its own events.
type Notifier interface {
	Notify(ctx context.Context, event models.PeerEvent) error
	// OnNotify subscribes h and returns a function that unsubscribes it.
	OnNotify(h Handler) (unsubscribe func())
	Close() error
}

type nop struct{}

// Nop returns a notifier that drops everything.
func Nop() Notifier { return nop{} }

func (nop) Notify(context.Context, models.PeerEvent) error { return nil }
func (nop) OnNotify(Handler) func()                        { return func() {} }
func (nop) Close() error                                   { return nil }

// handlers is the subscriber list shared by the implementations.
type handlers struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

func (hs *handlers) add(h Handler) func() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.subs == nil {
		hs.subs = make(map[int]Handler)
	}
	id := hs.next
	hs.next++
	hs.subs[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			hs.mu.Lock()
			delete(hs.subs, id)
			hs.mu.Unlock()
		})
	}
}

func (hs *handlers) dispatch(ctx context.Context, msg models.PeerMessage) {
	hs.mu.RLock()
	list := make([]Handler, 0, len(hs.subs))
	for _, h := range hs.subs {
		list = append(list, h)
	}
	hs.mu.RUnlock()

	for _, h := range list {
		h(ctx, msg)
	}
}
