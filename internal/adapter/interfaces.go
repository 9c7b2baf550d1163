// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport used by the sync engine to talk to
// the profile server.
//
// The primary abstraction is [ProfileAdapter], which decouples the engine from
// the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPProfileAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling. [Classify] reduces any returned error to a [Status].
package adapter

import (
	"context"

	"github.com/MKhiriev/profile-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/profile_adapter_mock.go -package=mock

// ProfileAdapter defines transport-agnostic communication with the profile
// server. Every call is authenticated with the bearer token passed in; the
// adapter holds no credentials of its own.
type ProfileAdapter interface {
	// PushUpdates sends one batch of queued updates. The response carries one
	// result per update, in submission order.
	PushUpdates(ctx context.Context, token string, req models.UpdateRequest) (models.UpdateResponse, error)

	// FetchProfile loads the profile named by req.ProfileKey. An empty
	// req.SyncToken requests a full load.
	FetchProfile(ctx context.Context, token string, req models.ProfileRequest) (models.ProfileResponse, error)

	// DeleteProfile wipes every profile of accountID together with the
	// account-wide settings.
	DeleteProfile(ctx context.Context, token string, accountID string) (models.DeleteResponse, error)
}
