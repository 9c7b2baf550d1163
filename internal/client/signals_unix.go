//go:build unix

package client

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// watchSignals maps SIGUSR1 to a user refresh and SIGCONT to regained
// visibility until ctx is done.
func (a *App) watchSignals(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGCONT)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGUSR1:
					a.refresh(ctx)
				case syscall.SIGCONT:
					a.visible(ctx)
				}
			}
		}
	}()
}
