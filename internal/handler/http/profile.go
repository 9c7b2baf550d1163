// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MKhiriev/profile-sync/internal/app"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/models"
)

// applyUpdates handles POST /api/profile/updates.
func (h *Handler) applyUpdates(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, ErrNoUserID)
		return
	}

	var req models.UpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		log.Err(err).Str("func", "*Handler.applyUpdates").Msg("invalid JSON was passed")
		writeError(w, http.StatusBadRequest, app.MsgInvalidDataProvided)
		return
	}

	resp, err := h.services.ProfileService.ApplyUpdates(r.Context(), userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.applyUpdates").Int("updates", len(req.Updates)).Msg("error applying updates")
		writeServiceError(w, err)
		return
	}

	log.Debug().
		Str("profile", req.ProfileKey.String()).
		Int("updates", len(req.Updates)).
		Int64("last_modified", resp.LastModified).
		Msg("update batch applied")

	_, _ = utils.WriteJSON(w, resp, http.StatusOK)
}

// getProfile handles GET /api/profile?account_id=&version=&sync_token=.
func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, ErrNoUserID)
		return
	}

	key, err := profileKeyFromQuery(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getProfile").Msg("invalid profile key")
		writeServiceError(w, err)
		return
	}

	resp, err := h.services.ProfileService.GetProfile(r.Context(), userID, models.ProfileRequest{
		ProfileKey: key,
		SyncToken:  r.URL.Query().Get("sync_token"),
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.getProfile").Str("profile", key.String()).Msg("error loading profile")
		writeServiceError(w, err)
		return
	}

	_, _ = utils.WriteJSON(w, resp, http.StatusOK)
}

// deleteProfile handles DELETE /api/profile?account_id=.
func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, ErrNoUserID)
		return
	}

	accountID := r.URL.Query().Get("account_id")
	resp, err := h.services.ProfileService.DeleteProfile(r.Context(), userID, accountID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.deleteProfile").Str("account_id", accountID).Msg("error wiping profile")
		writeServiceError(w, err)
		return
	}

	log.Info().Str("account_id", accountID).Int64("deleted", resp.Deleted).Msg("profile data wiped")

	_, _ = utils.WriteJSON(w, resp, http.StatusOK)
}

func profileKeyFromQuery(r *http.Request) (models.ProfileKey, error) {
	q := r.URL.Query()

	version, err := strconv.Atoi(q.Get("version"))
	if err != nil {
		return models.ProfileKey{}, fmt.Errorf("%w: %q", ErrInvalidVersion, q.Get("version"))
	}

	return models.NewProfileKey(q.Get("account_id"), version), nil
}
