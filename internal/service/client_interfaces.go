package service

import (
	"context"

	"github.com/MKhiriev/profile-sync/models"
)

// ClientSyncEngine keeps the local profile projection and the profile
// server converging. Writes are applied locally at once and reach the server
// asynchronously; loads reconcile server state back into the snapshot.
type ClientSyncEngine interface {
	// Enqueue appends update to the mutation queue and returns immediately.
	// It never fails. An empty ID is replaced with a fresh one.
	Enqueue(update models.PendingUpdate)

	// MaybeFlush sends the next batch of queued updates unless sync is not
	// permitted, disabled, the queue is empty or a flush is already in
	// flight, in which case it does nothing. A failed flush is retried in the
	// background with backoff; the error is also returned to the caller.
	MaybeFlush(ctx context.Context) error

	// Load reconciles the active profile with the server. Queued updates for
	// the profile are flushed first. Failures other than fatal
	// authentication errors schedule a background retry.
	Load(ctx context.Context, opts LoadOptions) error

	// ForceSync is the user-initiated refresh: it clears a previous fatal
	// authentication state, cancels a pending load retry and performs a
	// forced full load.
	ForceSync(ctx context.Context) error

	// IsSyncing reports whether a flush or a load is in flight.
	IsSyncing() bool

	// LastError returns the most recent classified failure, or nil after a
	// success.
	LastError() error

	// ProfileState returns the snapshot of key with queued updates replayed
	// on top.
	ProfileState(key models.ProfileKey) models.ProfileState

	// Settings returns the account-wide settings with queued updates
	// replayed on top.
	Settings() models.Settings

	// ActiveProfile returns the profile loads and flushes are addressed to.
	ActiveProfile() models.ProfileKey

	// SwitchProfile makes key the active profile. With discardPending the
	// queued updates not explicitly addressed to key are dropped, which is
	// refused while a flush is in flight.
	SwitchProfile(key models.ProfileKey, discardPending bool) error

	// WipeRemote deletes the account's data on the server. Local state and
	// the queue are cleared as well only while sync is permitted.
	WipeRemote(ctx context.Context) error

	// Permission returns the user's sync decision.
	Permission() models.Permission

	// Hydrate restores persisted state. It must run before any network
	// activity.
	Hydrate(ctx context.Context) error

	// Ready is closed after the first completed or skipped load.
	Ready() <-chan struct{}

	// Run starts the coalescing state writer.
	Run(ctx context.Context)

	// Close stops background retries, waits for them and persists state a
	// last time.
	Close(ctx context.Context) error
}

// LoadOptions tune a single [ClientSyncEngine.Load].
type LoadOptions struct {
	// Force requests a full load without a sync token and ignores the
	// freshness window.
	Force bool

	// SkipFreshness ignores the freshness window but still loads
	// incrementally. Used for peer notifications.
	SkipFreshness bool
}

// ClientSyncScheduler decides when loads run.
type ClientSyncScheduler interface {
	// Run starts the periodic timer, subscribes to peer events and performs
	// the start-up load.
	Run(ctx context.Context)

	// Refresh is an explicit user request.
	Refresh(ctx context.Context) error

	// SwitchAccount changes the active profile and loads it.
	SwitchAccount(ctx context.Context, key models.ProfileKey, discardPending bool) error

	// VisibilityRegained triggers a load unless one ran within the cool-down.
	VisibilityRegained(ctx context.Context)

	State() SchedulerState

	Stop()
}

// CredentialProvider yields the bearer credential for server calls.
type CredentialProvider interface {
	// Credential returns the token or an error wrapping [ErrFatalAuth].
	Credential(ctx context.Context) (string, error)

	// HasCredential reports whether a usable credential is held, without
	// checking its expiry.
	HasCredential() bool

	// Subject is the user the credential belongs to.
	Subject() string

	// Revoke marks the credential as rejected by the server.
	Revoke()
}

// PermissionPrompter asks the user whether remote sync may be used.
type PermissionPrompter interface {
	PromptForPermission(ctx context.Context) (bool, error)
}

// ErrorReporter shows sync failures to the user. The engine calls it only on
// the first transient failure of a streak and once per fatal failure.
type ErrorReporter interface {
	Report(err *SyncError)
}

// Presence tells whether network work is worth doing right now. Scheduled
// triggers check it when they fire.
type Presence interface {
	Online() bool
	Visible() bool
}
