package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/MKhiriev/profile-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── build ─────────────────────────────────────────────────────────────────────

func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_LaterSourcesOverride verifies that non-zero fields of later
// configs win and zero fields keep earlier values.
func TestBuild_LaterSourcesOverride(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{App: App{LogLevel: "info", TokenIssuer: "first"}},
		&StructuredConfig{App: App{LogLevel: "error"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.App.LogLevel)
	assert.Equal(t, "first", cfg.App.TokenIssuer)
}

// ── full load ─────────────────────────────────────────────────────────────────

func TestLoadStructuredConfig_DefaultsEnvFlagsJSON(t *testing.T) {
	jsonPath := writeTempJSONConfig(t, map[string]any{
		"sync": map[string]any{"backoff_ceiling": "20m"},
	})
	setEnvVars(t, map[string]string{
		"AUTH_ACCOUNT_ID":   "from-env",
		"SYNC_DEVICE_CLASS": "constrained",
		"CONFIG":            jsonPath,
	})

	cfg, err := loadStructuredConfig([]string{"-account", "from-flags"})
	require.NoError(t, err)

	assert.Equal(t, "from-flags", cfg.Auth.AccountID)
	assert.Equal(t, "constrained", cfg.Sync.DeviceClass)
	assert.Equal(t, 20*time.Minute, cfg.Sync.BackoffCeiling)
	assert.Equal(t, time.Second, cfg.Sync.PersistDebounce, "default kept")
}

func TestLoadStructuredConfig_MissingJSONFile(t *testing.T) {
	setEnvVars(t, nil)

	_, err := loadStructuredConfig([]string{"-c", "/definitely/not/here.json"})
	assert.Error(t, err)
}

// ── views ─────────────────────────────────────────────────────────────────────

func TestNewClientConfig(t *testing.T) {
	base := defaultConfig()
	base.Auth.AccountID = "acc"
	base.Auth.Version = 2
	base.Sync.DeviceClass = "constrained"

	cfg, err := newClientConfig(base)
	require.NoError(t, err)
	assert.Equal(t, models.NewProfileKey("acc", 2), cfg.Auth.ProfileKey)
	assert.Equal(t, models.DeviceConstrained, cfg.Sync.DeviceClass)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Sync.Backoff.ConstrainedBase)
}

func TestNewClientConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StructuredConfig)
		want   error
	}{
		{"no account", func(c *StructuredConfig) { c.Auth.AccountID = "" }, ErrInvalidAuthConfigs},
		{"memory dsn", func(c *StructuredConfig) { c.Storage.DB.DSN = ":memory:" }, ErrInvalidStorageConfigs},
		{"no adapter", func(c *StructuredConfig) { c.Adapter.HTTPAddress = "" }, ErrInvalidAdapterConfigs},
		{"bad device", func(c *StructuredConfig) { c.Sync.DeviceClass = "toaster" }, ErrInvalidSyncConfigs},
		{"ceiling below floor", func(c *StructuredConfig) { c.Sync.BackoffCeiling = time.Millisecond }, ErrInvalidSyncConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := defaultConfig()
			base.Auth.AccountID = "acc"
			tt.mutate(base)

			_, err := newClientConfig(base)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewServerConfig(t *testing.T) {
	base := defaultConfig()
	_, err := newServerConfig(base)
	assert.ErrorIs(t, err, ErrInvalidAppConfigs)

	base.App.TokenSignKey = "k"
	cfg, err := newServerConfig(base)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.HTTPAddress)
	assert.Equal(t, "profile-sync", cfg.App.TokenIssuer)
}
