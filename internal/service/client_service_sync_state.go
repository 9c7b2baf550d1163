package service

import (
	"context"

	"github.com/MKhiriev/profile-sync/models"
)

// ── projection ──

func (e *clientSyncEngine) ProfileState(key models.ProfileKey) models.ProfileState {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, state := e.projectLocked(key)
	return state
}

func (e *clientSyncEngine) Settings() models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()

	settings, _ := e.projectLocked(e.active)
	return settings
}

// projectLocked replays the queue, frozen items included, on a copy of the
// snapshot. Updates without a profile key apply to the active profile.
func (e *clientSyncEngine) projectLocked(key models.ProfileKey) (models.Settings, models.ProfileState) {
	settings := e.settings.Clone()
	state := e.profileLocked(key).Clone()

	for _, u := range e.queue.items {
		target := e.active
		if u.ProfileKey != nil {
			target = *u.ProfileKey
		}

		mutations, err := u.Mutations()
		if err != nil {
			continue
		}
		for _, m := range mutations {
			if m.Kind != models.KindSetting && target != key {
				continue
			}
			_ = models.ApplyMutation(settings, &state, m)
		}
	}

	return settings, state
}

func (e *clientSyncEngine) ActiveProfile() models.ProfileKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *clientSyncEngine) Permission() models.Permission {
	return e.gate.Permission()
}

// ── profile switch and wipe ──

func (e *clientSyncEngine) SwitchProfile(key models.ProfileKey, discardPending bool) error {
	e.mu.Lock()
	dropped := 0
	if discardPending {
		var err error
		dropped, err = e.queue.Discard(func(u models.PendingUpdate) bool {
			return u.ProfileKey == nil || *u.ProfileKey != key
		})
		if err != nil {
			e.mu.Unlock()
			return err
		}
	}

	previous := e.active
	e.active = key
	if _, ok := e.profiles[key]; !ok {
		e.profiles[key] = models.NewProfileState()
	}
	e.loadFailures = 0
	stopTimerLocked(&e.loadRetry)
	n := e.queue.Len()
	e.mu.Unlock()

	e.logger.Info().
		Str("from", previous.String()).
		Str("to", key.String()).
		Int("discarded", dropped).
		Msg("active profile switched")

	e.persister.Changed()
	e.metrics.QueueLength(n)

	return nil
}

func (e *clientSyncEngine) WipeRemote(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrEngineClosed
	case e.queue.InFlight():
		e.mu.Unlock()
		return ErrFlushInFlight
	case e.wiping:
		e.mu.Unlock()
		return ErrWipeInProgress
	}
	e.wiping = true
	accountID := e.active.AccountID
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.wiping = false
		e.mu.Unlock()
	}()

	resp, err := e.deleteProfile(ctx, accountID)
	if err != nil {
		se := classifyError("wipe", err)
		e.mu.Lock()
		e.lastErr = se
		e.mu.Unlock()
		e.logger.Err(se).Str("func", "*clientSyncEngine.WipeRemote").Msg("remote wipe failed")
		return se
	}

	e.logger.Info().Str("account", accountID).Int64("deleted", resp.Deleted).Msg("remote profile data wiped")

	if !e.gate.Permission().Granted() {
		return nil
	}

	e.mu.Lock()
	// flushes are held off while wiping, so nothing is frozen
	_, _ = e.queue.Discard(func(models.PendingUpdate) bool { return true })
	e.settings = make(models.Settings)
	e.profiles = map[models.ProfileKey]models.ProfileState{e.active: models.NewProfileState()}
	e.flushFailures = 0
	e.loadFailures = 0
	e.flushStreak = false
	e.loadStreak = false
	stopTimerLocked(&e.flushKick)
	stopTimerLocked(&e.flushRetry)
	stopTimerLocked(&e.loadRetry)
	e.mu.Unlock()

	e.persister.Changed()
	e.metrics.QueueLength(0)

	return nil
}

func (e *clientSyncEngine) deleteProfile(ctx context.Context, accountID string) (models.DeleteResponse, error) {
	token, err := e.credentials.Credential(ctx)
	if err != nil {
		return models.DeleteResponse{}, err
	}
	return e.adapter.DeleteProfile(ctx, token, accountID)
}

// ── lifecycle ──

func (e *clientSyncEngine) Hydrate(ctx context.Context) error {
	snap, problems := loadPersisted(ctx, e.storage)
	for _, p := range problems {
		e.logger.Warn().Err(p).Str("func", "*clientSyncEngine.Hydrate").Msg("ignoring unreadable local sync data")
	}

	e.gate.restore(snap.state.Permission)

	e.mu.Lock()
	e.settings = snap.state.Settings
	for key, state := range snap.state.Profiles {
		e.profiles[key] = state
	}
	if _, ok := e.profiles[e.active]; !ok {
		e.profiles[e.active] = models.NewProfileState()
	}
	err := e.queue.Restore(snap.queue)
	n := e.queue.Len()
	localOnly := !e.canSyncLocked()
	e.mu.Unlock()

	e.logger.Info().
		Str("permission", string(snap.state.Permission)).
		Int("profiles", len(snap.state.Profiles)).
		Int("queued", n).
		Msg("local sync state restored")

	if localOnly {
		e.markReady()
	}
	e.metrics.QueueLength(n)

	return err
}

func (e *clientSyncEngine) Ready() <-chan struct{} {
	return e.ready
}

func (e *clientSyncEngine) Run(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.persisting {
		e.mu.Unlock()
		return
	}
	e.persisting = true
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	context.AfterFunc(e.ctx, cancel)
	e.persister.Run(runCtx)
}

func (e *clientSyncEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	stopTimerLocked(&e.flushKick)
	stopTimerLocked(&e.flushRetry)
	stopTimerLocked(&e.loadRetry)
	persisting := e.persisting
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	if persisting {
		e.persister.Wait()
	}

	return e.persister.Persist(ctx)
}

func (e *clientSyncEngine) persistedSnapshot() persistedSnapshot {
	permission := e.gate.Permission()

	e.mu.Lock()
	defer e.mu.Unlock()

	profiles := make(map[models.ProfileKey]models.ProfileState, len(e.profiles))
	for key, state := range e.profiles {
		profiles[key] = state.Clone()
	}

	return persistedSnapshot{
		state: models.PersistedState{
			Permission: permission,
			Settings:   e.settings.Clone(),
			Profiles:   profiles,
		},
		queue: e.queue.Snapshot(),
	}
}
