// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

type profileService struct {
	profileRepository store.ProfileRepository

	logger *logger.Logger
}

func NewProfileService(profileRepository store.ProfileRepository, logger *logger.Logger) ProfileService {
	return &profileService{
		profileRepository: profileRepository,
		logger:            logger,
	}
}

func (p *profileService) ApplyUpdates(ctx context.Context, userID string, req models.UpdateRequest) (models.UpdateResponse, error) {
	log := logger.FromContext(ctx)

	resp := models.UpdateResponse{Results: make([]models.UpdateResult, 0, len(req.Updates))}
	for _, u := range req.Updates {
		mutations, err := u.Mutations()
		if err != nil {
			log.Warn().Err(err).Str("func", "*profileService.ApplyUpdates").Str("update_id", u.ID).Msg("rejecting update")
			resp.Results = append(resp.Results, models.UpdateResult{
				ID:      u.ID,
				Status:  models.UpdateStatusFailed,
				Message: err.Error(),
			})
			continue
		}

		if len(mutations) > 0 {
			key := req.ProfileKey
			if u.ProfileKey != nil {
				key = *u.ProfileKey
			}

			stamp, err := p.profileRepository.ApplyMutations(ctx, userID, key, mutations)
			if err != nil {
				log.Err(err).Str("func", "*profileService.ApplyUpdates").Str("update_id", u.ID).Msg("storing update failed")
				return models.UpdateResponse{}, fmt.Errorf("apply update %s: %w", u.ID, err)
			}
			resp.LastModified = max(resp.LastModified, stamp)
		}

		resp.Results = append(resp.Results, models.UpdateResult{ID: u.ID, Status: models.UpdateStatusOK})
	}

	return resp, nil
}

// GetProfile uses the highest last_modified stamp the client has seen as
// its sync token.
func (p *profileService) GetProfile(ctx context.Context, userID string, req models.ProfileRequest) (models.ProfileResponse, error) {
	var since int64
	full := req.SyncToken == ""
	if !full {
		v, err := strconv.ParseInt(req.SyncToken, 10, 64)
		if err != nil || v < 0 {
			return models.ProfileResponse{}, fmt.Errorf("%w: %q", ErrInvalidSyncToken, req.SyncToken)
		}
		since = v
	}

	items, err := p.profileRepository.FetchItems(ctx, userID, req.ProfileKey, since, !full)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*profileService.GetProfile").Msg("fetching profile items failed")
		return models.ProfileResponse{}, fmt.Errorf("fetch profile %s: %w", req.ProfileKey, err)
	}

	lastModified := since
	for _, item := range items {
		lastModified = max(lastModified, item.LastModified)
	}
	if items == nil {
		items = []models.ProfileItem{}
	}

	return models.ProfileResponse{
		ProfileKey:   req.ProfileKey,
		Items:        items,
		SyncToken:    strconv.FormatInt(lastModified, 10),
		LastModified: lastModified,
		Full:         full,
	}, nil
}

func (p *profileService) DeleteProfile(ctx context.Context, userID, accountID string) (models.DeleteResponse, error) {
	deleted, err := p.profileRepository.DeleteAccount(ctx, userID, accountID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*profileService.DeleteProfile").Str("account_id", accountID).Msg("wipe failed")
		return models.DeleteResponse{}, fmt.Errorf("delete account %s: %w", accountID, err)
	}

	return models.DeleteResponse{Deleted: deleted}, nil
}
