//go:build !unix

package client

import "context"

func (a *App) watchSignals(context.Context) {}
