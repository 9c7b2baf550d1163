package http

import "errors"

var (
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	ErrNoUserID = errors.New("no user ID in request context")

	ErrInvalidVersion = errors.New("invalid profile version")
)
