package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenWithoutSubject is returned by [Token.GetUserID] when the "sub"
// claim is empty.
var ErrTokenWithoutSubject = errors.New("token has no subject")

// Token wraps a JWT with the accessors the profile API needs.
//
// It embeds [jwt.Token] for signing and parsing and [jwt.RegisteredClaims]
// for standard claim access. The subject claim is the opaque user ID that
// owns the profiles.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS form sent as a bearer credential.
	SignedString string `json:"-"`

	// UserID caches the parsed "sub" claim.
	UserID string `json:"-"`
}

// GetUserID returns the "sub" claim.
func (t *Token) GetUserID() (string, error) {
	sub, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting UserID from token: %w", err)
	}
	if sub == "" {
		return "", ErrTokenWithoutSubject
	}

	return sub, nil
}

// ExpiresWithin reports whether the token expires before now+d. Tokens
// without an expiry never do.
func (t *Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(now.Add(d))
}

// String returns the compact JWS serialization.
func (t *Token) String() string {
	return t.SignedString
}
