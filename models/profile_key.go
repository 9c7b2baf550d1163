// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidProfileKey is returned by [ParseProfileKey] when the textual form
// is not "<account>:<version>".
var ErrInvalidProfileKey = errors.New("invalid profile key")

// ProfileKey identifies one (account, data-version) bucket of synchronized
// user state. It is a comparable value type and is used as a map key for all
// per-profile state.
//
// The key serialises as the compact text form "<account>:<version>", both as
// a JSON value and as a JSON object key.
type ProfileKey struct {
	// AccountID is the remote account (membership) the data belongs to.
	AccountID string

	// Version is the data/game version the profile is scoped to.
	Version int
}

// NewProfileKey constructs a [ProfileKey].
func NewProfileKey(accountID string, version int) ProfileKey {
	return ProfileKey{AccountID: accountID, Version: version}
}

// IsZero reports whether the key is unset.
func (k ProfileKey) IsZero() bool {
	return k.AccountID == "" && k.Version == 0
}

// String returns "<account>:<version>".
func (k ProfileKey) String() string {
	return k.AccountID + ":" + strconv.Itoa(k.Version)
}

// MarshalText implements [encoding.TextMarshaler].
func (k ProfileKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *ProfileKey) UnmarshalText(text []byte) error {
	parsed, err := ParseProfileKey(string(text))
	if err != nil {
		return err
	}

	*k = parsed
	return nil
}

// ParseProfileKey parses the "<account>:<version>" form produced by
// [ProfileKey.String]. The account part may itself contain colons or be
// empty; the version is taken after the last colon.
func ParseProfileKey(s string) (ProfileKey, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 || idx == len(s)-1 {
		return ProfileKey{}, fmt.Errorf("%w: %q", ErrInvalidProfileKey, s)
	}

	version, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return ProfileKey{}, fmt.Errorf("%w: %q: %w", ErrInvalidProfileKey, s, err)
	}

	return ProfileKey{AccountID: s[:idx], Version: version}, nil
}
