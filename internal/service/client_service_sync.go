// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/profile-sync/internal/adapter"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/internal/notifier"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/models"
)

// EngineConfig holds the tuning of a [ClientSyncEngine].
type EngineConfig struct {
	// ProfileKey is the profile active at start.
	ProfileKey models.ProfileKey
	Device     models.DeviceClass
	Global     models.GlobalSettings
	Backoff    BackoffPolicy

	// PersistDebounce coalesces local state writes.
	PersistDebounce time.Duration

	// FlushDelay is how long Enqueue waits before kicking a flush, so a
	// burst of updates leaves in one batch. Zero disables automatic
	// flushing; callers then drive MaybeFlush themselves.
	FlushDelay time.Duration
}

// EngineDeps are the collaborators of a [ClientSyncEngine]. Notifier,
// Gate, Reporter, Presence, Metrics and Logger are optional.
type EngineDeps struct {
	Adapter     adapter.ProfileAdapter
	Storage     store.LocalStorage
	Credentials CredentialProvider
	Notifier    notifier.Notifier
	Gate        *PermissionGate
	Reporter    ErrorReporter
	Presence    Presence
	Metrics     *metrics.Sync
	Logger      *logger.Logger
}

type clientSyncEngine struct {
	cfg EngineConfig

	adapter     adapter.ProfileAdapter
	storage     store.LocalStorage
	credentials CredentialProvider
	notifier    notifier.Notifier
	gate        *PermissionGate
	reporter    ErrorReporter
	presence    Presence
	metrics     *metrics.Sync
	persister   *statePersister
	logger      *logger.Logger
	now         func() time.Time

	loads   singleflight.Group
	loading atomic.Int32

	mu             sync.Mutex
	active         models.ProfileKey
	settings       models.Settings
	profiles       map[models.ProfileKey]models.ProfileState
	queue          *MutationQueue
	flushFailures  int
	loadFailures   int
	flushStreak    bool
	loadStreak     bool
	flushDone      chan struct{}
	flushKick      *time.Timer
	flushRetry     *time.Timer
	loadRetry      *time.Timer
	loadAfterFlush bool
	authFailed     bool
	wiping         bool
	lastErr        error
	closed         bool
	persisting     bool

	ready     chan struct{}
	readyOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncEngine builds an engine for cfg.ProfileKey. Call Hydrate
// before anything else touches the network.
func NewClientSyncEngine(cfg EngineConfig, deps EngineDeps) ClientSyncEngine {
	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop()
	}
	if deps.Gate == nil {
		deps.Gate = NewPermissionGate(nil)
	}
	if deps.Reporter == nil {
		deps.Reporter = ErrorReporterFunc(func(*SyncError) {})
	}
	if deps.Presence == nil {
		deps.Presence = NewPresenceState()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &clientSyncEngine{
		cfg:         cfg,
		adapter:     deps.Adapter,
		storage:     deps.Storage,
		credentials: deps.Credentials,
		notifier:    deps.Notifier,
		gate:        deps.Gate,
		reporter:    deps.Reporter,
		presence:    deps.Presence,
		metrics:     deps.Metrics,
		logger:      deps.Logger.Component("sync-engine"),
		now:         time.Now,
		active:      cfg.ProfileKey,
		settings:    make(models.Settings),
		profiles:    map[models.ProfileKey]models.ProfileState{cfg.ProfileKey: models.NewProfileState()},
		queue:       NewMutationQueue(),
		ready:       make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	e.persister = newStatePersister(deps.Storage, cfg.PersistDebounce, e.persistedSnapshot, e.logger)
	e.gate.OnChange(func(models.Permission) { e.persister.Changed() })

	return e
}

// ── Enqueue / flush ──

func (e *clientSyncEngine) Enqueue(update models.PendingUpdate) {
	if update.ID == "" {
		update.ID = utils.NewID()
	}
	if update.CreatedAt.IsZero() {
		update.CreatedAt = e.now().UTC()
	}

	e.mu.Lock()
	e.queue.Append(update)
	n := e.queue.Len()
	e.scheduleFlushLocked()
	e.mu.Unlock()

	e.logger.Debug().
		Str("id", update.ID).
		Str("action", string(update.Action)).
		Int("queue_length", n).
		Msg("update enqueued")

	e.persister.Changed()
	e.metrics.QueueLength(n)
}

// scheduleFlushLocked arms the flush kick unless one is pending or a retry
// already owns the next attempt.
func (e *clientSyncEngine) scheduleFlushLocked() {
	if e.cfg.FlushDelay <= 0 || e.flushKick != nil || e.flushRetry != nil {
		return
	}
	e.afterLocked(&e.flushKick, e.cfg.FlushDelay, e.backgroundFlush)
}

func (e *clientSyncEngine) MaybeFlush(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.wiping || e.authFailed || !e.canSyncLocked() || e.queue.InFlight() {
		e.mu.Unlock()
		return nil
	}
	batch, target := e.queue.Freeze(e.active)
	if len(batch) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.flushDone = make(chan struct{})
	stopTimerLocked(&e.flushKick)
	stopTimerLocked(&e.flushRetry)
	e.mu.Unlock()

	e.logger.Debug().
		Str("profile", target.String()).
		Int("batch", len(batch)).
		Msg("flushing updates")

	resp, err := e.push(ctx, target, batch)
	if err != nil {
		return e.flushFailed(ctx, err)
	}
	e.flushSucceeded(ctx, target, batch, resp)

	return nil
}

func (e *clientSyncEngine) push(ctx context.Context, target models.ProfileKey, batch []models.PendingUpdate) (models.UpdateResponse, error) {
	token, err := e.credentials.Credential(ctx)
	if err != nil {
		return models.UpdateResponse{}, err
	}

	return e.adapter.PushUpdates(ctx, token, models.UpdateRequest{
		ProfileKey: target,
		Updates:    batch,
		Length:     len(batch),
	})
}

func (e *clientSyncEngine) flushSucceeded(ctx context.Context, target models.ProfileKey, batch []models.PendingUpdate, resp models.UpdateResponse) {
	notifyPeers := false

	e.mu.Lock()
	e.queue.Commit()
	e.flushFailures /= 2
	e.flushStreak = false
	e.lastErr = nil
	for i, u := range batch {
		if i < len(resp.Results) && resp.Results[i].Status != models.UpdateStatusOK {
			e.logger.Warn().
				Str("func", "*clientSyncEngine.flushSucceeded").
				Str("id", u.ID).
				Str("action", string(u.Action)).
				Str("reason", resp.Results[i].Message).
				Msg("server rejected update, dropping it")
			continue
		}
		e.applyLocked(u, target)
		if u.Action.CrossInstanceVisible() {
			notifyPeers = true
		}
	}

	remaining := e.queue.Len()
	needLoad := false
	if remaining == 0 {
		needLoad = e.loadAfterFlush || !e.profileLocked(e.active).Loaded()
		e.loadAfterFlush = false
	}
	close(e.flushDone)
	e.flushDone = nil

	if remaining > 0 {
		e.spawnLocked(e.backgroundFlush)
	} else if needLoad {
		e.spawnLocked(func(ctx context.Context) { _ = e.Load(ctx, LoadOptions{}) })
	}
	e.mu.Unlock()

	e.logger.Debug().Int("sent", len(batch)).Int("remaining", remaining).Msg("flush acknowledged")
	e.persister.Changed()
	e.metrics.Flush(metrics.OutcomeOK)
	e.metrics.QueueLength(remaining)

	if notifyPeers {
		if err := e.notifier.Notify(ctx, models.EventSettingsChanged); err != nil {
			e.logger.Debug().Err(err).Msg("peer notification not delivered")
		}
	}
}

func (e *clientSyncEngine) flushFailed(ctx context.Context, err error) error {
	se := classifyError("flush", err)

	e.mu.Lock()
	e.queue.Release()
	close(e.flushDone)
	e.flushDone = nil

	if e.closed || e.ctx.Err() != nil {
		e.mu.Unlock()
		return se
	}

	// a caller that gave up is not a server failure, but the batch still
	// goes out on the retry timer
	callerGone := callerCancelled(ctx, err)
	if !callerGone {
		e.lastErr = se
	}
	report := false
	outcome := metrics.OutcomeFailed
	var wait time.Duration
	if se.Kind == KindFatalAuth {
		report = !e.authFailed
		e.authFailed = true
		e.flushStreak = false
		outcome = metrics.OutcomeFatal
	} else {
		e.flushFailures++
		if !callerGone {
			report = !e.flushStreak
			e.flushStreak = true
		}
		wait = e.cfg.Backoff.Wait(e.flushFailures, e.cfg.Device)
		stopTimerLocked(&e.flushKick)
		e.afterLocked(&e.flushRetry, wait, e.backgroundFlush)
	}
	e.mu.Unlock()

	if errors.Is(err, adapter.ErrUnauthorized) {
		e.credentials.Revoke()
	}
	e.logger.Err(se).Str("func", "*clientSyncEngine.MaybeFlush").Dur("retry_in", wait).Msg("flush failed")
	e.metrics.Flush(outcome)
	if wait > 0 {
		e.metrics.Backoff("flush", wait)
	}
	if report {
		e.reporter.Report(se)
	}

	return se
}

// callerCancelled reports whether err is the caller's own context ending.
func callerCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func (e *clientSyncEngine) backgroundFlush(ctx context.Context) {
	_ = e.MaybeFlush(ctx)
}

// applyLocked folds an acknowledged update into the snapshot.
func (e *clientSyncEngine) applyLocked(u models.PendingUpdate, target models.ProfileKey) {
	key := target
	if u.ProfileKey != nil {
		key = *u.ProfileKey
	}

	mutations, err := u.Mutations()
	if err != nil {
		e.logger.Warn().Err(err).Str("id", u.ID).Msg("acknowledged update cannot be applied locally")
		return
	}

	state := e.profileLocked(key)
	for _, m := range mutations {
		if err = models.ApplyMutation(e.settings, &state, m); err != nil {
			e.logger.Warn().Err(err).Str("id", u.ID).Str("key", m.Key).Msg("skipping mutation")
		}
	}
	e.profiles[key] = state
}

// ── helpers ──

func (e *clientSyncEngine) canSyncLocked() bool {
	return e.cfg.Global.Enabled && e.gate.Permission().Granted()
}

func (e *clientSyncEngine) profileLocked(key models.ProfileKey) models.ProfileState {
	if state, ok := e.profiles[key]; ok {
		return state
	}
	return models.NewProfileState()
}

func (e *clientSyncEngine) markReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

// spawn runs fn on a goroutine bound to the engine lifetime. It does nothing
// once the engine is closed.
func (e *clientSyncEngine) spawn(fn func(ctx context.Context)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spawnLocked(fn)
}

func (e *clientSyncEngine) spawnLocked(fn func(ctx context.Context)) {
	if e.closed {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(e.ctx)
	}()
}

// afterLocked replaces the timer in slot with one that spawns fn after d. A
// timer that was replaced or stopped in the meantime does not run fn.
func (e *clientSyncEngine) afterLocked(slot **time.Timer, d time.Duration, fn func(ctx context.Context)) {
	if e.closed {
		return
	}
	stopTimerLocked(slot)

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if *slot != t {
			return
		}
		*slot = nil
		e.spawnLocked(fn)
	})
	*slot = t
}

func stopTimerLocked(slot **time.Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}
