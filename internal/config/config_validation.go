// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

func (cfg *ClientConfig) validate() error {
	if strings.Contains(cfg.Storage.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Auth.ProfileKey.AccountID == "" {
		return ErrInvalidAuthConfigs
	}

	s := cfg.Sync
	if s.MinRefreshInterval < 0 || s.RefreshInterval <= 0 || s.ConstrainedRefreshInterval <= 0 ||
		s.PersistDebounce <= 0 || s.PeerDelay < 0 || s.VisibilityCooldown < 0 || s.FlushDelay < 0 {
		return ErrInvalidSyncConfigs
	}

	b := s.Backoff
	if b.Base <= 0 || b.ConstrainedBase <= 0 || b.Floor <= 0 || b.Ceiling < b.Floor {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
