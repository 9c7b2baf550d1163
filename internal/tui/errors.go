// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"errors"
	"strings"

	"github.com/MKhiriev/profile-sync/internal/service"
)

var (
	// ErrPromptDismissed is returned by the permission prompts when the
	// user closes them without answering.
	ErrPromptDismissed = errors.New("permission prompt dismissed")

	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

func humanizeSyncError(err error) string {
	if err == nil {
		return ""
	}

	if service.IsFatalAuth(err) {
		return "Sign-in expired: sync stopped until a new token is provided"
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "network is unreachable") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "Network unavailable or profile server unreachable"
	}

	return err.Error()
}
