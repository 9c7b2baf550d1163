package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/profile-sync/internal/metrics"
)

const (
	versionPath        = "/api/version"
	profilePath        = "/api/profile"
	profileUpdatesPath = "/api/profile/updates"
	metricsPath        = "/metrics"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	router.Get(versionPath, h.getServerVersion)
	if h.gatherer != nil {
		router.Handle(metricsPath, metrics.Handler(h.gatherer))
	}

	router.Group(func(r chi.Router) {
		r.Use(withGZip, h.auth)

		r.Get(profilePath, h.getProfile)
		r.Delete(profilePath, h.deleteProfile)
		r.Post(profileUpdatesPath, h.applyUpdates)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
