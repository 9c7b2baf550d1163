package http

import (
	"net/http"
	"strings"

	"github.com/MKhiriev/profile-sync/internal/utils"
)

// getServerVersion handles GET /api/version. Clients asking for JSON get
// the full build info; everyone else gets the bare version string.
func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		_, _ = utils.WriteJSON(w, h.services.AppInfoService.GetBuildInfo(r.Context()), http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(h.services.AppInfoService.GetAppVersion(r.Context())))
}
