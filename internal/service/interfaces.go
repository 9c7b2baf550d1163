package service

import (
	"context"

	"github.com/MKhiriev/profile-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// ProfileService is the server of record. Every method is scoped to the
// user the bearer token was issued to.
type ProfileService interface {
	// ApplyUpdates applies a batch in order and reports one result per
	// update. An update that cannot be translated fails on its own; a
	// storage failure fails the whole call.
	ApplyUpdates(ctx context.Context, userID string, req models.UpdateRequest) (models.UpdateResponse, error)

	// GetProfile returns the full profile for an empty sync token, or the
	// records changed since the token otherwise.
	GetProfile(ctx context.Context, userID string, req models.ProfileRequest) (models.ProfileResponse, error)

	// DeleteProfile wipes every profile version of the account and the
	// user's settings.
	DeleteProfile(ctx context.Context, userID, accountID string) (models.DeleteResponse, error)
}

type AuthService interface {
	CreateToken(ctx context.Context, userID string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}

// ProfileServiceWrapper defines middleware composition for ProfileService.
// Implementations wrap an existing ProfileService to add behavior such as
// validation.
type ProfileServiceWrapper interface {
	Wrap(ProfileService) ProfileService
}
