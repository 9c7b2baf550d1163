package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/models"
)

// staticCredentialProvider serves one configured bearer token. The daemon
// cannot refresh it, so an expired or rejected token is fatal.
type staticCredentialProvider struct {
	mu      sync.Mutex
	raw     string
	token   models.Token
	parsed  error
	revoked bool
	now     func() time.Time
}

// NewStaticCredentialProvider parses token once. The signature is not
// verified here; the server does that.
func NewStaticCredentialProvider(token string) CredentialProvider {
	p := &staticCredentialProvider{raw: strings.TrimSpace(token), now: time.Now}
	if p.raw != "" {
		p.token, p.parsed = utils.ParseUnverifiedToken(p.raw)
	}
	return p
}

func (p *staticCredentialProvider) Credential(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.raw == "":
		return "", fmt.Errorf("%w: no token configured", ErrFatalAuth)
	case p.parsed != nil:
		return "", fmt.Errorf("%w: %w", ErrFatalAuth, p.parsed)
	case p.revoked:
		return "", fmt.Errorf("%w: token rejected by server", ErrFatalAuth)
	case p.token.ExpiresWithin(p.now(), 0):
		return "", fmt.Errorf("%w: %w", ErrFatalAuth, ErrTokenIsExpired)
	}

	return p.raw, nil
}

func (p *staticCredentialProvider) HasCredential() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw != "" && p.parsed == nil && !p.revoked
}

func (p *staticCredentialProvider) Subject() string {
	return p.token.UserID
}

func (p *staticCredentialProvider) Revoke() {
	p.mu.Lock()
	p.revoked = true
	p.mu.Unlock()
}
