package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with snake_case keys and
// human-readable durations.
type StructuredJSONConfig struct {
	App struct {
		LogLevel      string   `json:"log_level"`
		LogFile       string   `json:"log_file"`
		Headless      bool     `json:"headless"`
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Auth struct {
		Token     string `json:"token"`
		AccountID string `json:"account_id"`
		Version   int    `json:"version"`
	} `json:"auth,omitempty"`

	Sync struct {
		DeviceClass                string   `json:"device_class"`
		Disabled                   bool     `json:"disabled"`
		MinRefreshInterval         Duration `json:"min_refresh_interval"`
		RefreshInterval            Duration `json:"refresh_interval"`
		ConstrainedRefreshInterval Duration `json:"constrained_refresh_interval"`
		VisibilityCooldown         Duration `json:"visibility_cooldown"`
		PeerDelay                  Duration `json:"peer_delay"`
		PersistDebounce            Duration `json:"persist_debounce"`
		FlushDelay                 Duration `json:"flush_delay"`
		BackoffBase                Duration `json:"backoff_base"`
		ConstrainedBackoffBase     Duration `json:"constrained_backoff_base"`
		BackoffFloor               Duration `json:"backoff_floor"`
		BackoffCeiling             Duration `json:"backoff_ceiling"`
	} `json:"sync,omitempty"`

	Notifier struct {
		RedisAddress string `json:"redis_address"`
		Channel      string `json:"channel"`
	} `json:"notifier,omitempty"`

	Metrics struct {
		Address string `json:"address"`
	} `json:"metrics,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			LogLevel:      j.App.LogLevel,
			LogFile:       j.App.LogFile,
			Headless:      j.App.Headless,
			TokenSignKey:  j.App.TokenSignKey,
			TokenIssuer:   j.App.TokenIssuer,
			TokenDuration: time.Duration(j.App.TokenDuration),
		},
		Storage: Storage{DB: DB{DSN: j.Storage.DB.DSN}},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    j.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(j.Adapter.RequestTimeout),
		},
		Auth: Auth{
			Token:     j.Auth.Token,
			AccountID: j.Auth.AccountID,
			Version:   j.Auth.Version,
		},
		Sync: Sync{
			DeviceClass:                j.Sync.DeviceClass,
			Disabled:                   j.Sync.Disabled,
			MinRefreshInterval:         time.Duration(j.Sync.MinRefreshInterval),
			RefreshInterval:            time.Duration(j.Sync.RefreshInterval),
			ConstrainedRefreshInterval: time.Duration(j.Sync.ConstrainedRefreshInterval),
			VisibilityCooldown:         time.Duration(j.Sync.VisibilityCooldown),
			PeerDelay:                  time.Duration(j.Sync.PeerDelay),
			PersistDebounce:            time.Duration(j.Sync.PersistDebounce),
			FlushDelay:                 time.Duration(j.Sync.FlushDelay),
			BackoffBase:                time.Duration(j.Sync.BackoffBase),
			ConstrainedBackoffBase:     time.Duration(j.Sync.ConstrainedBackoffBase),
			BackoffFloor:               time.Duration(j.Sync.BackoffFloor),
			BackoffCeiling:             time.Duration(j.Sync.BackoffCeiling),
		},
		Notifier: Notifier{
			RedisAddress: j.Notifier.RedisAddress,
			Channel:      j.Notifier.Channel,
		},
		Metrics: Metrics{Address: j.Metrics.Address},
	}

	return cfg, nil
}

// Duration is a time.Duration that unmarshals from "1h"/"30s" strings or
// from a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
