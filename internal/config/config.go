// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the merged configuration shared by the sync daemon and
// the profile server. Each binary takes the view it needs through
// [GetClientConfig] or [GetServerConfig].
//
// Struct tags:
//   - envPrefix: prefix applied to nested env lookups (caarlos0/env).
//   - env: environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds logging and token signing settings.
	App App `envPrefix:"APP_"`

	// Storage holds the database DSN. The daemon expects a sqlite DSN, the
	// server a PostgreSQL one.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the profile server listener settings.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the daemon's outbound HTTP settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Auth holds the daemon's bearer credential and active profile.
	Auth Auth `envPrefix:"AUTH_"`

	// Sync holds engine tuning: refresh windows, timers and backoff.
	Sync Sync `envPrefix:"SYNC_"`

	// Notifier selects the peer broadcast backend.
	Notifier Notifier `envPrefix:"NOTIFIER_"`

	// Metrics holds the Prometheus listener address.
	Metrics Metrics `envPrefix:"METRICS_"`

	// JSONFilePath is the optional JSON file merged last.
	// Env: CONFIG, flags: -c / -config.
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-level settings.
type App struct {
	// LogLevel is a zerolog level name. Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`

	// LogFile is where the daemon writes its log. Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`

	// Headless runs the daemon without the terminal console. Env: APP_HEADLESS
	Headless bool `env:"HEADLESS"`

	// TokenSignKey signs and verifies HS256 tokens. Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim. Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of tokens issued by the server's
	// token command. Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`
}

// Storage groups persistence settings.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds a database DSN.
type DB struct {
	// DSN is a sqlite file path for the daemon or a PostgreSQL URI for the
	// server. Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Server holds inbound transport settings.
type Server struct {
	// HTTPAddress is the listen address. Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single request. Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the daemon's connection to the profile server.
type Adapter struct {
	// HTTPAddress is the base URL or host:port of the profile server.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is enforced by the transport; timeouts surface as
	// transient failures. Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Auth holds the daemon's credential and the profile it syncs.
type Auth struct {
	// Token is the bearer JWT. Env: AUTH_TOKEN
	Token string `env:"TOKEN"`

	// AccountID and Version select the active profile.
	// Env: AUTH_ACCOUNT_ID, AUTH_VERSION
	AccountID string `env:"ACCOUNT_ID"`
	Version   int    `env:"VERSION"`
}

// Sync tunes the engine. Zero values are replaced by defaults.
type Sync struct {
	// DeviceClass is "constrained" or "unconstrained". Env: SYNC_DEVICE_CLASS
	DeviceClass string `env:"DEVICE_CLASS"`

	// Disabled turns network sync off. Env: SYNC_DISABLED
	Disabled bool `env:"DISABLED"`

	// MinRefreshInterval is the freshness window for non-forced loads.
	MinRefreshInterval time.Duration `env:"MIN_REFRESH_INTERVAL"`

	// RefreshInterval and ConstrainedRefreshInterval are the periodic load
	// intervals per device class.
	RefreshInterval            time.Duration `env:"REFRESH_INTERVAL"`
	ConstrainedRefreshInterval time.Duration `env:"CONSTRAINED_REFRESH_INTERVAL"`

	// VisibilityCooldown debounces visibility-regain loads.
	VisibilityCooldown time.Duration `env:"VISIBILITY_COOLDOWN"`

	// PeerDelay is the upper bound of the random delay before a
	// peer-triggered load.
	PeerDelay time.Duration `env:"PEER_DELAY"`

	// PersistDebounce is the coalescing window of local persistence.
	PersistDebounce time.Duration `env:"PERSIST_DEBOUNCE"`
	// FlushDelay collects updates enqueued in a burst into one batch.
	FlushDelay time.Duration `env:"FLUSH_DELAY"`

	BackoffBase            time.Duration `env:"BACKOFF_BASE"`
	ConstrainedBackoffBase time.Duration `env:"CONSTRAINED_BACKOFF_BASE"`
	BackoffFloor           time.Duration `env:"BACKOFF_FLOOR"`
	BackoffCeiling         time.Duration `env:"BACKOFF_CEILING"`
}

// Notifier selects the peer broadcast backend.
type Notifier struct {
	// RedisAddress enables Redis pub/sub when set. Env: NOTIFIER_REDIS_ADDRESS
	RedisAddress string `env:"REDIS_ADDRESS"`

	// Channel is the pub/sub channel prefix. Env: NOTIFIER_CHANNEL
	Channel string `env:"CHANNEL"`
}

// Metrics holds the Prometheus endpoint settings.
type Metrics struct {
	// Address enables a /metrics listener on the daemon when set.
	// Env: METRICS_ADDRESS
	Address string `env:"ADDRESS"`
}

// GetStructuredConfig merges defaults, environment, command-line flags and
// the optional JSON file, later sources overriding earlier non-zero fields.
func GetStructuredConfig() (*StructuredConfig, error) {
	return loadStructuredConfig(os.Args[1:])
}

func loadStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withDefaults().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
