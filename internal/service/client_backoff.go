package service

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/models"
)

// BackoffPolicy computes retry delays:
//
//	wait = clamp(Floor, Ceiling, jitter * base(device) * 2^failures)
//
// jitter is drawn from [0.5, 1), so the delay range of n failures never
// overlaps the range of n+1 and waits grow with the failure count while two
// draws for the same count still differ.
type BackoffPolicy struct {
	Base            time.Duration
	ConstrainedBase time.Duration
	Floor           time.Duration
	Ceiling         time.Duration

	// Rand returns a value in [0, 1). Nil means math/rand/v2.
	Rand func() float64
}

// NewBackoffPolicy builds a policy from the client configuration.
func NewBackoffPolicy(cfg config.ClientBackoff) BackoffPolicy {
	return BackoffPolicy{
		Base:            cfg.Base,
		ConstrainedBase: cfg.ConstrainedBase,
		Floor:           cfg.Floor,
		Ceiling:         cfg.Ceiling,
	}
}

// Wait returns the delay before the next attempt after failures consecutive
// failures.
func (p BackoffPolicy) Wait(failures int, device models.DeviceClass) time.Duration {
	base := p.Base
	if device == models.DeviceConstrained && p.ConstrainedBase > 0 {
		base = p.ConstrainedBase
	}
	failures = min(max(failures, 0), 62)

	r := rand.Float64
	if p.Rand != nil {
		r = p.Rand
	}
	jitter := 0.5 + r()/2

	wait := jitter * math.Ldexp(float64(base), failures)
	if p.Ceiling > 0 && wait >= float64(p.Ceiling) {
		return p.Ceiling
	}

	return max(time.Duration(wait), p.Floor)
}
