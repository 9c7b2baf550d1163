package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/profile-sync/internal/app"
	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/models"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order. ErrRetryable comes before the
// low-level store errors it is wrapped together with.
var errorMappings = []errorMapping{
	{service.ErrInvalidDataProvided, http.StatusBadRequest, app.MsgInvalidDataProvided},
	{service.ErrInvalidProfileKey, http.StatusBadRequest, app.MsgInvalidProfileKey},
	{models.ErrInvalidProfileKey, http.StatusBadRequest, app.MsgInvalidProfileKey},
	{ErrInvalidVersion, http.StatusBadRequest, app.MsgInvalidProfileKey},
	{service.ErrNoUpdatesProvided, http.StatusBadRequest, app.MsgNoUpdatesProvided},
	{service.ErrBatchLengthMismatch, http.StatusBadRequest, app.MsgBatchLengthMismatch},
	{service.ErrInvalidSyncToken, http.StatusBadRequest, app.MsgInvalidSyncToken},
	{service.ErrNoAccountID, http.StatusBadRequest, app.MsgNoAccountIDProvided},
	{ErrNoUserID, http.StatusUnauthorized, app.MsgNoUserIDProvided},
	{service.ErrTokenIsExpired, http.StatusUnauthorized, app.MsgTokenIsExpired},
	{service.ErrTokenIsExpiredOrInvalid, http.StatusUnauthorized, app.MsgTokenIsExpiredOrInvalid},

	{store.ErrRetryable, http.StatusServiceUnavailable, app.MsgServiceUnavailable},
}

// statusFromError returns the HTTP status and client-facing message for
// err. Anything unmapped is an internal error; its text is not exposed.
func statusFromError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, app.MsgInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, message := statusFromError(err)
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	_, _ = utils.WriteJSON(w, models.ErrorResponse{Error: message}, status)
}
