package service

import (
	"github.com/MKhiriev/profile-sync/internal/adapter"
	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/internal/notifier"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

type ClientServices struct {
	Engine      ClientSyncEngine
	Scheduler   ClientSyncScheduler
	Gate        *PermissionGate
	Presence    *PresenceState
	Credentials CredentialProvider
}

// ClientCollaborators are the outer-layer pieces the daemon builds before
// the sync services: transport, local store and peer channel.
type ClientCollaborators struct {
	Adapter  adapter.ProfileAdapter
	Storage  store.LocalStorage
	Notifier notifier.Notifier
	Prompter PermissionPrompter
	Reporter ErrorReporter
	Metrics  *metrics.Sync
}

func NewClientServices(cfg *config.ClientConfig, c ClientCollaborators, log *logger.Logger) *ClientServices {
	presence := NewPresenceState()
	credentials := NewStaticCredentialProvider(cfg.Auth.Token)
	gate := NewPermissionGate(c.Prompter)

	reporter := c.Reporter
	if reporter == nil {
		reporter = NewLogErrorReporter(log)
	}

	deps := EngineDeps{
		Adapter:     c.Adapter,
		Storage:     c.Storage,
		Credentials: credentials,
		Notifier:    c.Notifier,
		Gate:        gate,
		Reporter:    reporter,
		Presence:    presence,
		Metrics:     c.Metrics,
		Logger:      log,
	}

	engine := NewClientSyncEngine(EngineConfig{
		ProfileKey: cfg.Auth.ProfileKey,
		Device:     cfg.Sync.DeviceClass,
		Global: models.GlobalSettings{
			Enabled:            cfg.Sync.Enabled,
			MinRefreshInterval: cfg.Sync.MinRefreshInterval,
		},
		Backoff:         NewBackoffPolicy(cfg.Sync.Backoff),
		PersistDebounce: cfg.Sync.PersistDebounce,
		FlushDelay:      cfg.Sync.FlushDelay,
	}, deps)

	scheduler := NewClientSyncScheduler(SchedulerConfig{
		Device:                     cfg.Sync.DeviceClass,
		RefreshInterval:            cfg.Sync.RefreshInterval,
		ConstrainedRefreshInterval: cfg.Sync.ConstrainedRefreshInterval,
		VisibilityCooldown:         cfg.Sync.VisibilityCooldown,
		PeerDelay:                  cfg.Sync.PeerDelay,
	}, engine, deps)

	return &ClientServices{
		Engine:      engine,
		Scheduler:   scheduler,
		Gate:        gate,
		Presence:    presence,
		Credentials: credentials,
	}
}
