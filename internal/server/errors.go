package server

import "errors"

var (
	errNoProfileHandler = errors.New("profile server has no HTTP handler")
	errNoHTTPAddress    = errors.New("profile server has no HTTP address")
)
