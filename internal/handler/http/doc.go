// Package http implements the profile server's REST transport.
//
// It exposes route wiring, request handlers, and middleware. Authentication,
// request tracing, access logging with request metrics and response
// compression are handled here before requests are delegated to the service
// layer.
package http
