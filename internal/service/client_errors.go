// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/profile-sync/internal/adapter"
	"github.com/MKhiriev/profile-sync/internal/app"
)

// ErrorKind is the sync error taxonomy.
type ErrorKind string

const (
	// KindFatalAuth stops every automatic retry until the user acts.
	KindFatalAuth ErrorKind = "fatal_auth"
	// KindTransient is retried with backoff.
	KindTransient ErrorKind = "transient"
	// KindValidation marks malformed local data; it is logged and the data
	// is treated as absent.
	KindValidation ErrorKind = "validation"
)

// SyncError is a classified failure of one engine operation.
type SyncError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsFatalAuth reports whether err is classified as a fatal authentication
// failure.
func IsFatalAuth(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind == KindFatalAuth
	}
	return errors.Is(err, ErrFatalAuth)
}

// classifyError maps an adapter or credential error to the sync taxonomy.
// Errors that are already classified keep their kind.
func classifyError(op string, err error) *SyncError {
	if err == nil {
		return nil
	}

	var se *SyncError
	if errors.As(err, &se) {
		return se
	}

	err = mapAdapterError(err)
	switch {
	case errors.Is(err, ErrFatalAuth):
		return &SyncError{Kind: KindFatalAuth, Op: op, Err: err}
	case errors.Is(err, ErrInvalidDataProvided):
		return &SyncError{Kind: KindValidation, Op: op, Err: err}
	case adapter.Classify(err) == adapter.StatusUnauthorized:
		return &SyncError{Kind: KindFatalAuth, Op: op, Err: fmt.Errorf("%w: %w", ErrFatalAuth, err)}
	default:
		// network, 429, 5xx, timeouts and malformed responses
		return &SyncError{Kind: KindTransient, Op: op, Err: err}
	}
}

// mapAdapterError translates the server message carried by a transport
// error into a service error where the daemon cares about the difference.
func mapAdapterError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrUnauthorized):
		switch msg {
		case app.MsgTokenIsExpired:
			return fmt.Errorf("%w: %w", ErrFatalAuth, ErrTokenIsExpired)
		case app.MsgTokenIsExpiredOrInvalid:
			return fmt.Errorf("%w: %w", ErrFatalAuth, ErrTokenIsExpiredOrInvalid)
		}

	case errors.Is(err, adapter.ErrBadRequest):
		switch msg {
		case app.MsgBatchLengthMismatch:
			return fmt.Errorf("%w: %w", ErrBatchLengthMismatch, err)
		case app.MsgInvalidSyncToken:
			return fmt.Errorf("%w: %w", ErrInvalidSyncToken, err)
		case app.MsgInvalidProfileKey:
			return fmt.Errorf("%w: %w", ErrInvalidProfileKey, err)
		}
	}

	return err
}

// extractBody extracts the body from a message of the form "bad request: <body>"
func extractBody(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return msg
}
