package service

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/profile-sync/internal/adapter"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/models"
)

// Load runs at most one load per option kind at a time; concurrent callers
// share the result of the one in flight.
func (e *clientSyncEngine) Load(ctx context.Context, opts LoadOptions) error {
	key := "load"
	switch {
	case opts.Force:
		key = "load:force"
	case opts.SkipFreshness:
		key = "load:peer"
	}

	_, err, _ := e.loads.Do(key, func() (any, error) {
		return nil, e.load(ctx, opts)
	})
	return err
}

func (e *clientSyncEngine) load(ctx context.Context, opts LoadOptions) error {
	e.loading.Add(1)
	defer e.loading.Add(-1)

	for {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return ErrEngineClosed
		}
		if e.authFailed {
			err := e.lastErr
			e.mu.Unlock()
			e.markReady()
			return err
		}
		if !e.canSyncLocked() || e.wiping {
			e.mu.Unlock()
			e.markReady()
			return nil
		}

		key := e.active
		profile := e.profileLocked(key)
		if !opts.Force && !opts.SkipFreshness && profile.Loaded() &&
			e.now().Sub(profile.LastLoadedAt) < e.cfg.Global.MinRefreshInterval {
			e.mu.Unlock()
			e.markReady()
			e.metrics.Load(metrics.OutcomeSkipped, false)
			return nil
		}

		// server state must not be read while our own writes are unsent
		if done := e.flushDone; done != nil {
			e.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if e.queue.HasFor(key) {
			e.mu.Unlock()
			if err := e.MaybeFlush(ctx); err != nil {
				e.mu.Lock()
				e.loadAfterFlush = true
				e.mu.Unlock()
				return err
			}
			continue
		}

		syncToken := profile.SyncToken
		if opts.Force {
			syncToken = ""
		}
		e.mu.Unlock()

		return e.fetch(ctx, key, syncToken, opts)
	}
}

func (e *clientSyncEngine) fetch(ctx context.Context, key models.ProfileKey, syncToken string, opts LoadOptions) error {
	resp, err := e.fetchProfile(ctx, key, syncToken)
	if err != nil {
		return e.loadFailed(ctx, err, opts)
	}

	full := resp.Full || syncToken == ""

	e.mu.Lock()
	state := e.profileLocked(key)
	if full {
		state.ClearItems()
		e.settings = make(models.Settings)
	}
	for _, item := range resp.Items {
		if err = models.ApplyMutation(e.settings, &state, item.Mutation()); err != nil {
			e.logger.Warn().
				Err(err).
				Str("func", "*clientSyncEngine.fetch").
				Str("kind", string(item.Kind)).
				Str("key", item.Key).
				Msg("skipping malformed server item")
		}
	}
	state.AdvanceLastModified(resp.LastModified)
	if resp.SyncToken != "" {
		state.SyncToken = resp.SyncToken
	}
	state.LastLoadedAt = e.now()
	e.profiles[key] = state
	e.loadFailures = 0
	e.loadStreak = false
	e.lastErr = nil
	stopTimerLocked(&e.loadRetry)
	e.mu.Unlock()

	e.logger.Debug().
		Str("profile", key.String()).
		Bool("full", full).
		Int("items", len(resp.Items)).
		Int64("last_modified", state.LastModified).
		Msg("profile loaded")

	e.markReady()
	e.persister.Changed()
	e.metrics.Load(metrics.OutcomeOK, full)

	return nil
}

func (e *clientSyncEngine) fetchProfile(ctx context.Context, key models.ProfileKey, syncToken string) (models.ProfileResponse, error) {
	token, err := e.credentials.Credential(ctx)
	if err != nil {
		return models.ProfileResponse{}, err
	}

	return e.adapter.FetchProfile(ctx, token, models.ProfileRequest{ProfileKey: key, SyncToken: syncToken})
}

func (e *clientSyncEngine) loadFailed(ctx context.Context, err error, opts LoadOptions) error {
	se := classifyError("load", err)

	e.mu.Lock()
	if e.closed || e.ctx.Err() != nil {
		e.mu.Unlock()
		return se
	}

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
		e.loadStreak = false
		outcome = metrics.OutcomeFatal
		stopTimerLocked(&e.loadRetry)
		stopTimerLocked(&e.flushRetry)
	} else {
		e.loadFailures++
		if !callerGone {
			report = !e.loadStreak
			e.loadStreak = true
		}
		wait = e.cfg.Backoff.Wait(e.loadFailures, e.cfg.Device)
		retry := LoadOptions{Force: opts.Force, SkipFreshness: true}
		e.afterLocked(&e.loadRetry, wait, func(ctx context.Context) {
			if !e.presence.Online() || !e.presence.Visible() {
				e.logger.Debug().Msg("load retry skipped: offline or hidden")
				return
			}
			_ = e.Load(ctx, retry)
		})
	}
	e.mu.Unlock()

	if se.Kind == KindFatalAuth {
		e.markReady()
	}
	if errors.Is(err, adapter.ErrUnauthorized) {
		e.credentials.Revoke()
	}
	e.logger.Err(se).Str("func", "*clientSyncEngine.Load").Dur("retry_in", wait).Msg("load failed")
	e.metrics.Load(outcome, opts.Force)
	if wait > 0 {
		e.metrics.Backoff("load", wait)
	}
	if report {
		e.reporter.Report(se)
	}

	return se
}

func (e *clientSyncEngine) ForceSync(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if !e.canSyncLocked() {
		e.mu.Unlock()
		return ErrSyncUnavailable
	}
	e.authFailed = false
	e.loadFailures = 0
	e.loadStreak = false
	stopTimerLocked(&e.loadRetry)
	e.mu.Unlock()

	return e.Load(ctx, LoadOptions{Force: true})
}

func (e *clientSyncEngine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading.Load() > 0 || e.queue.InFlight()
}

func (e *clientSyncEngine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
