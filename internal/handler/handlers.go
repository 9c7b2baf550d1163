// Package handler assembles the profile server's transport handlers.
package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/handler/http"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

// NewHandlers builds the HTTP handler when an address is configured. reg
// receives the request collectors and is served on /metrics; nil disables
// both.
func NewHandlers(services *service.Services, cfg *config.ServerConfig, reg *prometheus.Registry, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	h := http.NewHandler(services, logger).WithRequestTimeout(cfg.RequestTimeout)
	if reg != nil {
		h.WithMetrics(metrics.NewHTTP(reg), reg)
	}

	return &Handlers{HTTP: h}, nil
}
