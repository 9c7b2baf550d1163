package client

import (
	"context"
	"net"
	"time"
)

const networkPollInterval = 5 * time.Second

// watchNetwork keeps the online flag in step with the host's interfaces
// until ctx is done. Coming back online pushes whatever queued up offline.
func (a *App) watchNetwork(ctx context.Context) {
	a.checkNetwork(ctx)

	go func() {
		ticker := time.NewTicker(networkPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.checkNetwork(ctx)
			}
		}
	}()
}

func (a *App) checkNetwork(ctx context.Context) {
	online := hasRoutableAddress(a.interfaceAddrs)
	presence := a.services.Presence

	was := presence.Online()
	presence.SetOnline(online)
	if online == was {
		return
	}

	a.logger.Info().Bool("online", online).Msg("network state changed")
	if online {
		go func() { _ = a.services.Engine.MaybeFlush(ctx) }()
	}
}

// hasRoutableAddress reports whether any address listed is neither
// loopback nor link-local. A listing error counts as online.
func hasRoutableAddress(list func() ([]net.Addr, error)) bool {
	addrs, err := list()
	if err != nil {
		return true
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			continue
		}
		return true
	}
	return false
}

// upInterfaceAddrs lists the addresses of interfaces that are up.
func upInterfaceAddrs() ([]net.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		addrs = append(addrs, ifaceAddrs...)
	}
	return addrs, nil
}
