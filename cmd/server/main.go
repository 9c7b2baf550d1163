package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/handler"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/server"
	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// Usage:
//
//	profile-server [flags]              serve the profile API
//	profile-server token <user> [flags] print a bearer token for user
func main() {
	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	var tokenFor string
	if len(os.Args) > 2 && os.Args[1] == "token" {
		tokenFor = os.Args[2]
		os.Args = append([]string{os.Args[0]}, os.Args[3:]...)
	} else {
		fmt.Print(build)
	}

	cfg, err := config.GetServerConfig()
	if err != nil {
		logger.NewLogger("profile-server", "").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger("profile-server", cfg.App.LogLevel)

	if tokenFor != "" {
		auth := service.NewAuthService(cfg.App.TokenSignKey, cfg.App.TokenIssuer, cfg.App.TokenDuration, log)
		token, err := auth.CreateToken(context.Background(), tokenFor)
		if err != nil {
			log.Fatal().Err(err).Msg("error issuing token")
		}
		fmt.Println(token.SignedString)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repositories, err := store.NewRepositories(ctx, cfg.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating repositories")
	}
	defer repositories.Close()

	services, err := service.NewServices(repositories.ProfileRepository, cfg, build, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	registry := prometheus.NewRegistry()
	handlers, err := handler.NewHandlers(services, cfg, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	if err = srv.RunServer(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
