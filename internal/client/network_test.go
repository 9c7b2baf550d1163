package client

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/service"
)

type flushCounter struct {
	service.ClientSyncEngine

	flushes atomic.Int32
}

func (e *flushCounter) MaybeFlush(context.Context) error {
	e.flushes.Add(1)
	return nil
}

func ipNet(ip string) net.Addr {
	return &net.IPNet{IP: net.ParseIP(ip), Mask: net.CIDRMask(24, 32)}
}

func TestHasRoutableAddress(t *testing.T) {
	tests := []struct {
		name  string
		addrs []net.Addr
		err   error
		want  bool
	}{
		{name: "no interfaces", want: false},
		{name: "loopback only", addrs: []net.Addr{ipNet("127.0.0.1"), ipNet("::1")}, want: false},
		{name: "link-local only", addrs: []net.Addr{ipNet("169.254.3.4"), ipNet("fe80::1")}, want: false},
		{name: "private address", addrs: []net.Addr{ipNet("127.0.0.1"), ipNet("10.1.2.3")}, want: true},
		{name: "global v6", addrs: []net.Addr{ipNet("2001:db8::5")}, want: true},
		{name: "listing fails", err: errors.New("netlink"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hasRoutableAddress(func() ([]net.Addr, error) { return tt.addrs, tt.err })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckNetwork_FlushesWhenBackOnline(t *testing.T) {
	engine := &flushCounter{}
	var online atomic.Bool

	addrs := func() ([]net.Addr, error) {
		if online.Load() {
			return []net.Addr{ipNet("10.0.0.2")}, nil
		}
		return nil, nil
	}

	a := &App{
		services:       &service.ClientServices{Engine: engine, Presence: service.NewPresenceState()},
		logger:         logger.Nop(),
		interfaceAddrs: addrs,
	}
	ctx := context.Background()

	a.checkNetwork(ctx)
	assert.False(t, a.services.Presence.Online())

	online.Store(true)
	a.checkNetwork(ctx)
	assert.True(t, a.services.Presence.Online())
	require.Eventually(t, func() bool { return engine.flushes.Load() == 1 }, time.Second, time.Millisecond)

	a.checkNetwork(ctx)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, engine.flushes.Load(), "staying online does not flush again")
}
