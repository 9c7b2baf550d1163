package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/models"
)

const (
	profilePath        = "/api/profile"
	profileUpdatesPath = "/api/profile/updates"
)

type httpProfileAdapter struct {
	client *utils.HTTPClient
	logger *logger.Logger
}

// NewHTTPProfileAdapter constructs an HTTP/REST implementation of
// [ProfileAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and applies the request timeout; a timed-out call
// surfaces as [ErrNetwork].
func NewHTTPProfileAdapter(adapterCfg config.ClientAdapter, log *logger.Logger) (ProfileAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)

	return &httpProfileAdapter{client: client, logger: log.Component("adapter")}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// PushUpdates implements [ProfileAdapter]. It sets req.Length and POSTs the
// batch to POST /api/profile/updates. A response whose result count differs
// from the batch size is rejected with [ErrMalformedResponse].
func (h *httpProfileAdapter) PushUpdates(ctx context.Context, token string, req models.UpdateRequest) (models.UpdateResponse, error) {
	req.Length = len(req.Updates)

	resp, err := h.authedRequest(ctx, token).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(profileUpdatesPath)
	if err != nil {
		return models.UpdateResponse{}, fmt.Errorf("%w: push updates request: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UpdateResponse{}, err
	}

	var out models.UpdateResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.UpdateResponse{}, fmt.Errorf("%w: decode update response: %w", ErrMalformedResponse, err)
	}
	if len(out.Results) != len(req.Updates) {
		return models.UpdateResponse{}, fmt.Errorf("%w: %d results for %d updates",
			ErrMalformedResponse, len(out.Results), len(req.Updates))
	}

	h.logger.Debug().Str("func", "*httpProfileAdapter.PushUpdates").
		Int("updates", req.Length).
		Int64("last_modified", out.LastModified).
		Msg("batch acknowledged")

	return out, nil
}

// FetchProfile implements [ProfileAdapter]. It GETs /api/profile with the
// profile key and, when present, the sync token as query parameters.
func (h *httpProfileAdapter) FetchProfile(ctx context.Context, token string, req models.ProfileRequest) (models.ProfileResponse, error) {
	r := h.authedRequest(ctx, token).
		SetQueryParam("account_id", req.ProfileKey.AccountID).
		SetQueryParam("version", strconv.Itoa(req.ProfileKey.Version))
	if req.SyncToken != "" {
		r.SetQueryParam("sync_token", req.SyncToken)
	}

	resp, err := r.Get(profilePath)
	if err != nil {
		return models.ProfileResponse{}, fmt.Errorf("%w: fetch profile request: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ProfileResponse{}, err
	}

	var out models.ProfileResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.ProfileResponse{}, fmt.Errorf("%w: decode profile response: %w", ErrMalformedResponse, err)
	}

	return out, nil
}

// DeleteProfile implements [ProfileAdapter]. It sends
// DELETE /api/profile?account_id=<accountID>.
func (h *httpProfileAdapter) DeleteProfile(ctx context.Context, token string, accountID string) (models.DeleteResponse, error) {
	resp, err := h.authedRequest(ctx, token).
		SetQueryParam("account_id", accountID).
		Delete(profilePath)
	if err != nil {
		return models.DeleteResponse{}, fmt.Errorf("%w: delete profile request: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DeleteResponse{}, err
	}

	var out models.DeleteResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.DeleteResponse{}, fmt.Errorf("%w: decode delete response: %w", ErrMalformedResponse, err)
	}

	return out, nil
}

func (h *httpProfileAdapter) authedRequest(ctx context.Context, token string) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token = strings.TrimSpace(token); token != "" {
		req.SetAuthToken(token)
	}
	return req
}
