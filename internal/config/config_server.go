package config

import (
	"fmt"
	"time"
)

// ServerConfig is the profile server's view of [StructuredConfig].
type ServerConfig struct {
	App struct {
		LogLevel      string
		TokenSignKey  string
		TokenIssuer   string
		TokenDuration time.Duration
	}

	// DSN is the PostgreSQL URI. Empty keeps profiles in memory.
	DSN string

	HTTPAddress    string
	RequestTimeout time.Duration
}

// GetServerConfig loads the structured config from every source and maps
// the fields the server needs.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newServerConfig(cfg)
}

func newServerConfig(cfg *StructuredConfig) (*ServerConfig, error) {
	serverCfg := &ServerConfig{
		DSN:            cfg.Storage.DB.DSN,
		HTTPAddress:    cfg.Server.HTTPAddress,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	serverCfg.App.LogLevel = cfg.App.LogLevel
	serverCfg.App.TokenSignKey = cfg.App.TokenSignKey
	serverCfg.App.TokenIssuer = cfg.App.TokenIssuer
	serverCfg.App.TokenDuration = cfg.App.TokenDuration

	return serverCfg, serverCfg.validate()
}
