package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Permission is the user's decision about network synchronization.
type Permission string

const (
	// PermissionUnset means the user has not been asked yet.
	PermissionUnset Permission = ""
	// PermissionGranted allows flushes and loads to perform network I/O.
	PermissionGranted Permission = "granted"
	// PermissionDenied keeps the engine local-only.
	PermissionDenied Permission = "denied"
)

// Granted reports whether network sync is allowed.
func (p Permission) Granted() bool {
	return p == PermissionGranted
}

// DeviceClass selects the backoff base and periodic refresh interval. It is
// supplied by configuration, never detected.
type DeviceClass string

const (
	DeviceUnconstrained DeviceClass = "unconstrained"
	DeviceConstrained   DeviceClass = "constrained"
)

// ErrInvalidDeviceClass is returned by [ParseDeviceClass].
var ErrInvalidDeviceClass = errors.New("invalid device class")

// ParseDeviceClass accepts "constrained" and "unconstrained" (case
// insensitive). An empty string means unconstrained.
func ParseDeviceClass(s string) (DeviceClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DeviceUnconstrained):
		return DeviceUnconstrained, nil
	case string(DeviceConstrained):
		return DeviceConstrained, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDeviceClass, s)
}

// GlobalSettings are the engine-wide sync switches.
type GlobalSettings struct {
	// Enabled turns sync off entirely when false, regardless of permission.
	Enabled bool `json:"enabled"`

	// MinRefreshInterval is the freshness window within which a non-forced
	// load is skipped.
	MinRefreshInterval time.Duration `json:"min_refresh_interval"`
}

// PersistedState is the "sync-state" blob kept in the local store.
type PersistedState struct {
	Permission Permission                  `json:"permission"`
	Settings   Settings                    `json:"settings"`
	Profiles   map[ProfileKey]ProfileState `json:"profiles"`
}

// NewPersistedState returns an empty state with non-nil maps.
func NewPersistedState() PersistedState {
	return PersistedState{
		Settings: make(Settings),
		Profiles: make(map[ProfileKey]ProfileState),
	}
}

// Normalize replaces nil maps left by decoding an older or partial blob.
func (s *PersistedState) Normalize() {
	if s.Settings == nil {
		s.Settings = make(Settings)
	}
	if s.Profiles == nil {
		s.Profiles = make(map[ProfileKey]ProfileState)
	}
	for k, p := range s.Profiles {
		p.ensureMaps()
		s.Profiles[k] = p
	}
}
