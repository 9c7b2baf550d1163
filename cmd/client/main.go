package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/profile-sync/internal/client"
	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	cfg, err := config.GetClientConfig()
	if err != nil {
		logger.NewLogger("profile-sync", "").Fatal().Err(err).Msg("error getting configs")
	}

	if cfg.App.Headless {
		fmt.Print(build)
	}

	log := logger.NewFileLogger("profile-sync", cfg.App.LogLevel, cfg.App.LogFile)
	log.Info().Str("version", build.Version).Str("commit", build.Commit).Msg("starting sync daemon")

	ctx := context.Background()
	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}
