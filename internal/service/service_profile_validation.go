package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/profile-sync/models"
)

// ProfileValidationService rejects malformed requests before they reach
// the store. Per-update payload problems are left to the inner service,
// which reports them as failed results.
type ProfileValidationService struct {
	inner ProfileService
}

func NewProfileValidationService() ProfileServiceWrapper {
	return &ProfileValidationService{}
}

func (v *ProfileValidationService) ApplyUpdates(ctx context.Context, userID string, req models.UpdateRequest) (models.UpdateResponse, error) {
	if err := validateProfileKey(req.ProfileKey); err != nil {
		return models.UpdateResponse{}, err
	}
	if len(req.Updates) == 0 {
		return models.UpdateResponse{}, ErrNoUpdatesProvided
	}
	if req.Length != len(req.Updates) {
		return models.UpdateResponse{}, fmt.Errorf("%w: declared %d, got %d", ErrBatchLengthMismatch, req.Length, len(req.Updates))
	}
	for _, u := range req.Updates {
		if u.ID == "" {
			return models.UpdateResponse{}, fmt.Errorf("%w: update without id", ErrInvalidDataProvided)
		}
		if u.ProfileKey != nil {
			if err := validateProfileKey(*u.ProfileKey); err != nil {
				return models.UpdateResponse{}, err
			}
		}
	}

	return v.inner.ApplyUpdates(ctx, userID, req)
}

func (v *ProfileValidationService) GetProfile(ctx context.Context, userID string, req models.ProfileRequest) (models.ProfileResponse, error) {
	if err := validateProfileKey(req.ProfileKey); err != nil {
		return models.ProfileResponse{}, err
	}

	return v.inner.GetProfile(ctx, userID, req)
}

func (v *ProfileValidationService) DeleteProfile(ctx context.Context, userID, accountID string) (models.DeleteResponse, error) {
	if strings.TrimSpace(accountID) == "" {
		return models.DeleteResponse{}, ErrNoAccountID
	}

	return v.inner.DeleteProfile(ctx, userID, accountID)
}

func (v *ProfileValidationService) Wrap(wrapped ProfileService) ProfileService {
	v.inner = wrapped
	return v
}

func validateProfileKey(key models.ProfileKey) error {
	if key.IsZero() || strings.TrimSpace(key.AccountID) == "" || key.Version < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidProfileKey, key.String())
	}
	return nil
}
