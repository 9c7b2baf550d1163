package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/profile-sync/models"
)

// ClientApp holds daemon logging settings.
type ClientApp struct {
	LogLevel string
	LogFile  string
	Headless bool
}

// ClientAdapter holds the profile server endpoint used by the daemon.
type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
}

// ClientStorage holds the sqlite DSN of the local store. An empty DSN keeps
// state in memory only.
type ClientStorage struct {
	DSN string
}

// ClientAuth holds the bearer token and the active profile.
type ClientAuth struct {
	Token      string
	ProfileKey models.ProfileKey
}

// ClientBackoff holds the retry envelope.
type ClientBackoff struct {
	Base            time.Duration
	ConstrainedBase time.Duration
	Floor           time.Duration
	Ceiling         time.Duration
}

// ClientSync holds engine tuning with the device class already parsed.
type ClientSync struct {
	DeviceClass                models.DeviceClass
	Enabled                    bool
	MinRefreshInterval         time.Duration
	RefreshInterval            time.Duration
	ConstrainedRefreshInterval time.Duration
	VisibilityCooldown         time.Duration
	PeerDelay                  time.Duration
	PersistDebounce            time.Duration
	FlushDelay                 time.Duration
	Backoff                    ClientBackoff
}

// ClientNotifier selects the peer broadcast backend. An empty RedisAddress
// means in-process only.
type ClientNotifier struct {
	RedisAddress string
	Channel      string
}

// ClientConfig is the daemon's view of [StructuredConfig].
type ClientConfig struct {
	App      ClientApp
	Adapter  ClientAdapter
	Storage  ClientStorage
	Auth     ClientAuth
	Sync     ClientSync
	Notifier ClientNotifier

	// MetricsAddress enables the daemon /metrics listener when set.
	MetricsAddress string
}

// GetClientConfig loads the structured config from every source and maps
// the fields the daemon needs.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg)
}

func newClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	device, err := models.ParseDeviceClass(cfg.Sync.DeviceClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSyncConfigs, err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			LogLevel: cfg.App.LogLevel,
			LogFile:  cfg.App.LogFile,
			Headless: cfg.App.Headless,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{DSN: cfg.Storage.DB.DSN},
		Auth: ClientAuth{
			Token:      cfg.Auth.Token,
			ProfileKey: models.NewProfileKey(cfg.Auth.AccountID, cfg.Auth.Version),
		},
		Sync: ClientSync{
			DeviceClass:                device,
			Enabled:                    !cfg.Sync.Disabled,
			MinRefreshInterval:         cfg.Sync.MinRefreshInterval,
			RefreshInterval:            cfg.Sync.RefreshInterval,
			ConstrainedRefreshInterval: cfg.Sync.ConstrainedRefreshInterval,
			VisibilityCooldown:         cfg.Sync.VisibilityCooldown,
			PeerDelay:                  cfg.Sync.PeerDelay,
			PersistDebounce:            cfg.Sync.PersistDebounce,
			FlushDelay:                 cfg.Sync.FlushDelay,
			Backoff: ClientBackoff{
				Base:            cfg.Sync.BackoffBase,
				ConstrainedBase: cfg.Sync.ConstrainedBackoffBase,
				Floor:           cfg.Sync.BackoffFloor,
				Ceiling:         cfg.Sync.BackoffCeiling,
			},
		},
		Notifier: ClientNotifier{
			RedisAddress: cfg.Notifier.RedisAddress,
			Channel:      cfg.Notifier.Channel,
		},
		MetricsAddress: cfg.Metrics.Address,
	}

	return clientCfg, clientCfg.validate()
}
