package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/internal/service"
)

type Handler struct {
	services *service.Services

	// metrics and gatherer are optional; without a gatherer /metrics is
	// not mounted.
	metrics  *metrics.HTTP
	gatherer prometheus.Gatherer

	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		logger:   logger,
	}
}

// WithMetrics records request metrics on m and serves g on /metrics.
func (h *Handler) WithMetrics(m *metrics.HTTP, g prometheus.Gatherer) *Handler {
	h.metrics = m
	h.gatherer = g
	return h
}

// WithRequestTimeout bounds every request's context. Zero disables it.
func (h *Handler) WithRequestTimeout(d time.Duration) *Handler {
	h.requestTimeout = d
	return h
}
