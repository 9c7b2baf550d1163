// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used by the
// profile server handlers and by the sync daemon when it interprets server
// responses.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies or log entries to describe the outcome of an operation.
// Keeping them in one place ensures consistent wording throughout the API.
package app

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded or fails basic validation.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs that the client cannot resolve.
	MsgInternalServerError = "internal server error"

	// MsgServiceUnavailable is returned when the profile store reports a
	// retryable failure (lost connection, serialization failure).
	MsgServiceUnavailable = "service temporarily unavailable"

	// MsgTokenIsExpired is returned when a JWT bearer token is
	// syntactically valid but its expiry time has passed.
	MsgTokenIsExpired = "token is expired"

	// MsgTokenIsExpiredOrInvalid is returned when a JWT bearer token is
	// either expired or cannot be verified.
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgNoUserIDProvided is returned when a handler requires the user ID
	// from the token but none is present in the request context.
	MsgNoUserIDProvided = "no user ID provided"

	// MsgInvalidProfileKey is returned when account_id or version is missing
	// or malformed.
	MsgInvalidProfileKey = "invalid profile key"

	// MsgNoAccountIDProvided is returned by the wipe endpoint when the
	// account_id query parameter is empty.
	MsgNoAccountIDProvided = "no account ID provided"

	// MsgNoUpdatesProvided is returned when an update batch is empty.
	MsgNoUpdatesProvided = "no updates provided"

	// MsgBatchLengthMismatch is returned when the declared length of an
	// update batch does not match the number of updates sent.
	MsgBatchLengthMismatch = "update batch length mismatch"

	// MsgInvalidSyncToken is returned when a sync token cannot be parsed.
	MsgInvalidSyncToken = "invalid sync token"
)
