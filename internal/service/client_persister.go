package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

// Local store keys.
const (
	stateStorageKey = "sync-state"
	queueStorageKey = "update-queue"
)

// persistedSnapshot is what the persister writes.
type persistedSnapshot struct {
	state models.PersistedState
	queue []models.PendingUpdate
}

// statePersister is the single writer of engine state. Changes are signalled
// on a one-slot channel and written once no further change arrived for the
// debounce window.
type statePersister struct {
	storage  store.LocalStorage
	debounce time.Duration
	snapshot func() persistedSnapshot
	changes  chan struct{}
	done     chan struct{}
	logger   *logger.Logger
}

func newStatePersister(storage store.LocalStorage, debounce time.Duration, snapshot func() persistedSnapshot, log *logger.Logger) *statePersister {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &statePersister{
		storage:  storage,
		debounce: debounce,
		snapshot: snapshot,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   log,
	}
}

// Changed records that state changed. It never blocks.
func (p *statePersister) Changed() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

// Run writes coalesced changes until ctx is done.
func (p *statePersister) Run(ctx context.Context) {
	go p.loop(ctx)
}

func (p *statePersister) loop(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(p.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.changes:
			pending = true
			timer.Reset(p.debounce)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := p.Persist(ctx); err != nil {
				p.logger.Err(err).Str("func", "*statePersister.loop").Msg("failed to persist sync state")
			}
		}
	}
}

// Wait blocks until the loop started by Run exits.
func (p *statePersister) Wait() {
	<-p.done
}

// Persist writes the current snapshot immediately.
func (p *statePersister) Persist(ctx context.Context) error {
	snap := p.snapshot()

	state, err := json.Marshal(snap.state)
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}
	queue, err := json.Marshal(snap.queue)
	if err != nil {
		return fmt.Errorf("encode update queue: %w", err)
	}

	if err = p.storage.Put(ctx, stateStorageKey, state); err != nil {
		return fmt.Errorf("store sync state: %w", err)
	}
	if err = p.storage.Put(ctx, queueStorageKey, queue); err != nil {
		return fmt.Errorf("store update queue: %w", err)
	}

	return nil
}

// loadPersisted reads what a previous run left behind. Unreadable or
// unparseable blobs are reported as validation errors and replaced with
// empty values; they never stop start-up.
func loadPersisted(ctx context.Context, storage store.LocalStorage) (persistedSnapshot, []*SyncError) {
	snap := persistedSnapshot{state: models.NewPersistedState()}
	var problems []*SyncError

	if raw, err := storage.Get(ctx, stateStorageKey); err == nil {
		var state models.PersistedState
		if err = json.Unmarshal(raw, &state); err != nil {
			problems = append(problems, classifyError("hydrate state", fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)))
		} else {
			state.Normalize()
			snap.state = state
		}
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		problems = append(problems, &SyncError{Kind: KindValidation, Op: "hydrate state", Err: err})
	}

	if raw, err := storage.Get(ctx, queueStorageKey); err == nil {
		var queue []models.PendingUpdate
		if err = json.Unmarshal(raw, &queue); err != nil {
			problems = append(problems, classifyError("hydrate queue", fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)))
		} else {
			snap.queue = validUpdates(queue)
		}
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		problems = append(problems, &SyncError{Kind: KindValidation, Op: "hydrate queue", Err: err})
	}

	return snap, problems
}

func validUpdates(in []models.PendingUpdate) []models.PendingUpdate {
	out := in[:0]
	for _, u := range in {
		if u.ID != "" && u.Action.Valid() {
			out = append(out, u)
		}
	}
	return out
}
