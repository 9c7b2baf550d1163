// Package utils holds small helpers shared by the daemon and the server:
// context keys, JSON responses, the resty-based HTTP client, JWT handling
// and ID generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys, so string keys from other
// packages cannot collide.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey stores the authenticated user ID (string) in a request
// context.
var UserIDCtxKey = contextKey("userID")

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, userID)
}

// GetUserIDFromContext returns the user ID stored by the auth middleware.
// ok is false when the value is missing, empty or of the wrong type.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok && userID != ""
}
