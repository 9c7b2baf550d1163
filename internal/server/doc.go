// Package server runs the profile server's HTTP listener.
//
// It owns the listener lifecycle: startup, shutdown when the run context is
// cancelled, and a bounded graceful drain of in-flight requests.
package server
