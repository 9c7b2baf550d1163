package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/utils"
)

func TestStaticCredentialProvider(t *testing.T) {
	ctx := context.Background()
	token, err := utils.GenerateJWTToken("profile-sync", "u-42", time.Hour, "secret")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		p := NewStaticCredentialProvider("  " + token.SignedString + "\n")
		got, err := p.Credential(ctx)
		require.NoError(t, err)
		assert.Equal(t, token.SignedString, got)
		assert.True(t, p.HasCredential())
		assert.Equal(t, "u-42", p.Subject())
	})

	t.Run("revoked token is fatal", func(t *testing.T) {
		p := NewStaticCredentialProvider(token.SignedString)
		p.Revoke()
		_, err := p.Credential(ctx)
		assert.ErrorIs(t, err, ErrFatalAuth)
		assert.False(t, p.HasCredential())
	})

	t.Run("expired token is fatal", func(t *testing.T) {
		p := NewStaticCredentialProvider(token.SignedString).(*staticCredentialProvider)
		p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := p.Credential(ctx)
		assert.ErrorIs(t, err, ErrFatalAuth)
		assert.ErrorIs(t, err, ErrTokenIsExpired)
		assert.True(t, p.HasCredential(), "expiry is checked on use only")
	})

	t.Run("missing token", func(t *testing.T) {
		p := NewStaticCredentialProvider("")
		_, err := p.Credential(ctx)
		assert.ErrorIs(t, err, ErrFatalAuth)
		assert.False(t, p.HasCredential())
	})

	t.Run("garbage token", func(t *testing.T) {
		p := NewStaticCredentialProvider("not-a-jwt")
		_, err := p.Credential(ctx)
		assert.ErrorIs(t, err, ErrFatalAuth)
		assert.False(t, p.HasCredential())
		assert.Empty(t, p.Subject())
	})
}
