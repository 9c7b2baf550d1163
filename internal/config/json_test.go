package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	jsonBody := `{
		"app": {"log_level": "debug", "token_sign_key": "jwt_secret", "token_duration": "2h"},
		"storage": {"db": {"dsn": "file:state.db"}},
		"adapter": {"http_address": "http://profiles.local", "request_timeout": "10s"},
		"auth": {"token": "tok", "account_id": "acc", "version": 2},
		"sync": {
			"device_class": "constrained",
			"min_refresh_interval": "1m",
			"peer_delay": 2000000000,
			"backoff_ceiling": "15m"
		},
		"notifier": {"redis_address": "localhost:6379", "channel": "peers"},
		"metrics": {"address": ":9100"}
	}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	cfg, err := parseJSON(p)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "jwt_secret", cfg.App.TokenSignKey)
	assert.Equal(t, 2*time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "file:state.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "http://profiles.local", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 10*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "acc", cfg.Auth.AccountID)
	assert.Equal(t, 2, cfg.Auth.Version)
	assert.Equal(t, "constrained", cfg.Sync.DeviceClass)
	assert.Equal(t, time.Minute, cfg.Sync.MinRefreshInterval)
	assert.Equal(t, 2*time.Second, cfg.Sync.PeerDelay)
	assert.Equal(t, 15*time.Minute, cfg.Sync.BackoffCeiling)
	assert.Equal(t, "peers", cfg.Notifier.Channel)
	assert.Equal(t, ":9100", cfg.Metrics.Address)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_Errors(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"sync": {"peer_delay": "soonish"}}`), 0o600))
	_, err = parseJSON(p)
	assert.Error(t, err)
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(raw))

	var d Duration
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, Duration(90*time.Second), d)
}
