package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/utils"
)

func TestAuthService_CreateAndParseToken(t *testing.T) {
	svc := NewAuthService("secret", "profile-sync", time.Hour, logger.Nop())
	ctx := context.Background()

	token, err := svc.CreateToken(ctx, "u-42")
	require.NoError(t, err)
	require.NotEmpty(t, token.SignedString)

	parsed, err := svc.ParseToken(ctx, token.SignedString)
	require.NoError(t, err)
	assert.Equal(t, "u-42", parsed.UserID)
}

func TestAuthService_CreateToken_EmptyUser(t *testing.T) {
	svc := NewAuthService("secret", "profile-sync", time.Hour, logger.Nop())

	_, err := svc.CreateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestAuthService_CreateToken_MissingSignKey(t *testing.T) {
	svc := NewAuthService("", "profile-sync", time.Hour, logger.Nop())

	_, err := svc.CreateToken(context.Background(), "u-42")
	assert.ErrorIs(t, err, ErrTokenCreationFailed)
}

func TestAuthService_ParseToken_Failures(t *testing.T) {
	svc := NewAuthService("secret", "profile-sync", time.Hour, logger.Nop())
	ctx := context.Background()

	foreign, err := utils.GenerateJWTToken("someone-else", "u-42", time.Hour, "secret")
	require.NoError(t, err)
	_, err = svc.ParseToken(ctx, foreign.SignedString)
	assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)

	wrongKey, err := utils.GenerateJWTToken("profile-sync", "u-42", time.Hour, "other")
	require.NoError(t, err)
	_, err = svc.ParseToken(ctx, wrongKey.SignedString)
	assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)

	_, err = svc.ParseToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := NewAuthService("secret", "profile-sync", time.Hour, logger.Nop())

	claims := &jwt.RegisteredClaims{
		Issuer:    "profile-sync",
		Subject:   "u-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), expired)
	assert.ErrorIs(t, err, ErrTokenIsExpired)
}
