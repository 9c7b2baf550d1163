package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/notifier"
	"github.com/MKhiriev/profile-sync/models"
)

// SchedulerState is what the scheduler is currently doing.
type SchedulerState string

const (
	SchedulerIdle                 SchedulerState = "idle"
	SchedulerWaitingForPermission SchedulerState = "waiting_for_permission"
	SchedulerLoading              SchedulerState = "loading"
	SchedulerBackoff              SchedulerState = "backoff"
)

// SchedulerConfig holds the load triggers' timing.
type SchedulerConfig struct {
	Device                     models.DeviceClass
	RefreshInterval            time.Duration
	ConstrainedRefreshInterval time.Duration
	VisibilityCooldown         time.Duration

	// PeerDelay bounds the random delay before reacting to a peer
	// notification, so instances do not hit the server at once.
	PeerDelay time.Duration

	// Rand returns a value in [0, 1). Nil means math/rand/v2.
	Rand func() float64
}

type clientSyncScheduler struct {
	cfg         SchedulerConfig
	engine      ClientSyncEngine
	gate        *PermissionGate
	credentials CredentialProvider
	notifier    notifier.Notifier
	presence    Presence
	logger      *logger.Logger
	now         func() time.Time

	mu           sync.Mutex
	state        SchedulerState
	lastLoad     time.Time
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	tickerCancel context.CancelFunc
	unsubscribe  func()
	wg           sync.WaitGroup
}

// NewClientSyncScheduler builds the scheduler driving engine. It uses the
// gate, credentials, notifier, presence and logger of deps; the same deps
// the engine was built with.
func NewClientSyncScheduler(cfg SchedulerConfig, engine ClientSyncEngine, deps EngineDeps) ClientSyncScheduler {
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop()
	}
	if deps.Gate == nil {
		deps.Gate = NewPermissionGate(nil)
	}
	if deps.Presence == nil {
		deps.Presence = NewPresenceState()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	s := &clientSyncScheduler{
		cfg:         cfg,
		engine:      engine,
		gate:        deps.Gate,
		credentials: deps.Credentials,
		notifier:    deps.Notifier,
		presence:    deps.Presence,
		logger:      deps.Logger.Component("sync-scheduler"),
		now:         time.Now,
		state:       SchedulerIdle,
	}
	s.gate.OnChange(s.permissionChanged)

	return s
}

// Run subscribes to peer notifications and performs the start-up load in
// the background. It returns immediately; Stop or cancelling ctx ends every
// trigger.
func (s *clientSyncScheduler) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsubscribe = s.notifier.OnNotify(s.peerNotified)
	s.mu.Unlock()

	s.trigger(s.start)
}

func (s *clientSyncScheduler) start(ctx context.Context) {
	p, err := s.gate.Resolve(ctx, s.credentials.HasCredential())
	if err != nil {
		s.logger.Warn().Err(err).Str("func", "*clientSyncScheduler.start").Msg("permission prompt failed")
	}

	if !p.Granted() {
		s.setState(waitingState(p))
		// completes the ready signal without network I/O
		_ = s.engine.Load(ctx, LoadOptions{})
		return
	}

	s.restartTicker()
	s.load(ctx, LoadOptions{}, "start")
}

func (s *clientSyncScheduler) Refresh(ctx context.Context) error {
	if _, err := s.gate.Resolve(ctx, s.credentials.HasCredential()); err != nil {
		return err
	}

	s.setState(SchedulerLoading)
	err := s.engine.ForceSync(ctx)
	s.loadSettled(err)

	return err
}

func (s *clientSyncScheduler) SwitchAccount(ctx context.Context, key models.ProfileKey, discardPending bool) error {
	if err := s.engine.SwitchProfile(key, discardPending); err != nil {
		return err
	}
	if !s.gate.Permission().Granted() {
		return nil
	}

	s.setState(SchedulerLoading)
	err := s.engine.Load(ctx, LoadOptions{})
	s.loadSettled(err)

	return err
}

// VisibilityRegained loads in the background unless a load ran within the
// cool-down or the device is offline.
func (s *clientSyncScheduler) VisibilityRegained(_ context.Context) {
	s.mu.Lock()
	recent := !s.lastLoad.IsZero() && s.now().Sub(s.lastLoad) < s.cfg.VisibilityCooldown
	s.mu.Unlock()

	if recent || !s.presence.Online() || !s.gate.Permission().Granted() {
		return
	}

	s.trigger(func(ctx context.Context) {
		s.load(ctx, LoadOptions{}, "visibility")
	})
}

func (s *clientSyncScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop cancels every trigger and waits for running loads to return. Safe to
// call when the scheduler is not running.
func (s *clientSyncScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	unsubscribe := s.unsubscribe
	s.running = false
	s.cancel = nil
	s.unsubscribe = nil
	s.tickerCancel = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// ── triggers ──

func (s *clientSyncScheduler) permissionChanged(p models.Permission) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return
	}

	s.restartTicker()
	if !p.Granted() {
		s.setState(waitingState(p))
		return
	}

	s.trigger(func(ctx context.Context) {
		if err := s.engine.MaybeFlush(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("flush after permission grant failed")
		}
		s.load(ctx, LoadOptions{}, "permission")
	})
}

func (s *clientSyncScheduler) peerNotified(_ context.Context, msg models.PeerMessage) {
	delay := time.Duration(s.cfg.Rand() * float64(s.cfg.PeerDelay))

	s.logger.Debug().
		Str("from", msg.InstanceID).
		Str("event", string(msg.Event)).
		Dur("delay", delay).
		Msg("peer changed profile data")

	s.trigger(func(ctx context.Context) {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if !s.presence.Online() || !s.presence.Visible() || !s.gate.Permission().Granted() {
			return
		}
		s.load(ctx, LoadOptions{SkipFreshness: true}, "peer")
	})
}

// restartTicker stops the periodic refresh and starts it again when sync is
// permitted.
func (s *clientSyncScheduler) restartTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tickerCancel != nil {
		s.tickerCancel()
		s.tickerCancel = nil
	}

	interval := s.cfg.RefreshInterval
	if s.cfg.Device == models.DeviceConstrained {
		interval = s.cfg.ConstrainedRefreshInterval
	}
	if !s.running || interval <= 0 || !s.gate.Permission().Granted() {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.tickerCancel = cancel
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if s.presence.Online() && s.presence.Visible() {
					s.load(ctx, LoadOptions{}, "periodic")
				}
			}
		}
	}()
}

func (s *clientSyncScheduler) trigger(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *clientSyncScheduler) load(ctx context.Context, opts LoadOptions, trigger string) {
	s.setState(SchedulerLoading)
	err := s.engine.Load(ctx, opts)
	s.loadSettled(err)

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug().Err(err).Str("trigger", trigger).Msg("scheduled load failed")
	}
}

func (s *clientSyncScheduler) loadSettled(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastLoad = s.now()
	switch {
	case err == nil, IsFatalAuth(err), errors.Is(err, context.Canceled), errors.Is(err, ErrSyncUnavailable):
		s.state = SchedulerIdle
	default:
		s.state = SchedulerBackoff
	}
}

func (s *clientSyncScheduler) setState(state SchedulerState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func waitingState(p models.Permission) SchedulerState {
	if p == models.PermissionUnset {
		return SchedulerWaitingForPermission
	}
	return SchedulerIdle
}
