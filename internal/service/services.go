package service

import (
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

type Services struct {
	AuthService    AuthService
	ProfileService ProfileService
	AppInfoService AppInfoService
}

func NewServices(repository store.ProfileRepository, cfg *config.ServerConfig, build models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfoService, err := NewAppInfoService(build, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	return &Services{
		AuthService:    NewAuthService(cfg.App.TokenSignKey, cfg.App.TokenIssuer, cfg.App.TokenDuration, logger),
		ProfileService: NewProfileValidationService().Wrap(NewProfileService(repository, logger)),
		AppInfoService: appInfoService,
	}, nil
}
