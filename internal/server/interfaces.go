package server

import "context"

type Server interface {
	// RunServer serves until ctx is cancelled or the listener fails, then
	// shuts down gracefully.
	RunServer(ctx context.Context) error

	Shutdown(ctx context.Context) error
}
