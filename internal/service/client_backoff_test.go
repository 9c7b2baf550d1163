package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/models"
)

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBackoffPolicy_Wait(t *testing.T) {
	tests := []struct {
		name     string
		policy   BackoffPolicy
		failures int
		device   models.DeviceClass
		want     time.Duration
	}{
		{
			name:     "lowest jitter doubles per failure",
			policy:   BackoffPolicy{Base: time.Second, Rand: fixedRand(0)},
			failures: 3,
			want:     4 * time.Second,
		},
		{
			name:     "highest jitter",
			policy:   BackoffPolicy{Base: time.Second, Rand: fixedRand(1)},
			failures: 1,
			want:     2 * time.Second,
		},
		{
			name:     "constrained devices use their own base",
			policy:   BackoffPolicy{Base: time.Second, ConstrainedBase: 4 * time.Second, Rand: fixedRand(0)},
			failures: 1,
			device:   models.DeviceConstrained,
			want:     4 * time.Second,
		},
		{
			name:     "floor",
			policy:   BackoffPolicy{Base: time.Millisecond, Floor: time.Second, Rand: fixedRand(0)},
			failures: 1,
			want:     time.Second,
		},
		{
			name:     "ceiling",
			policy:   BackoffPolicy{Base: time.Second, Ceiling: time.Minute, Rand: fixedRand(0)},
			failures: 40,
			want:     time.Minute,
		},
		{
			name:     "huge failure counts do not overflow",
			policy:   BackoffPolicy{Base: time.Second, Ceiling: time.Hour, Rand: fixedRand(0.5)},
			failures: 10_000,
			want:     time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Wait(tt.failures, tt.device))
		})
	}
}

func TestBackoffPolicy_WaitGrowsWithFailures(t *testing.T) {
	p := NewBackoffPolicy(config.ClientBackoff{Base: 500 * time.Millisecond, Floor: 100 * time.Millisecond, Ceiling: time.Hour})

	prevMax := time.Duration(0)
	for n := 1; n < 12; n++ {
		lo := BackoffPolicy{Base: p.Base, Floor: p.Floor, Ceiling: p.Ceiling, Rand: fixedRand(0)}.Wait(n, models.DeviceUnconstrained)
		hi := BackoffPolicy{Base: p.Base, Floor: p.Floor, Ceiling: p.Ceiling, Rand: fixedRand(1)}.Wait(n, models.DeviceUnconstrained)
		assert.GreaterOrEqual(t, lo, prevMax, "failures=%d", n)
		assert.LessOrEqual(t, lo, hi)

		for i := 0; i < 20; i++ {
			w := p.Wait(n, models.DeviceUnconstrained)
			assert.GreaterOrEqual(t, w, lo)
			assert.LessOrEqual(t, w, hi)
		}
		prevMax = hi
	}
}

func TestBackoffPolicy_JitterSpreadsRetries(t *testing.T) {
	p := BackoffPolicy{Base: time.Second, Ceiling: time.Hour}

	seen := make(map[time.Duration]struct{})
	for i := 0; i < 50; i++ {
		seen[p.Wait(4, models.DeviceUnconstrained)] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
