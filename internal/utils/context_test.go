// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDCtxKey(t *testing.T) {
	if UserIDCtxKey.String() != "userID" {
		t.Errorf("expected 'userID', got '%s'", UserIDCtxKey.String())
	}
}

func TestGetUserIDFromContext_Success(t *testing.T) {
	ctx := WithUserID(context.Background(), "u-42")

	userID, ok := GetUserIDFromContext(ctx)

	if !ok {
		t.Fatal("expected ok=true, got false")
	}
	if userID != "u-42" {
		t.Errorf("expected userID=u-42, got %s", userID)
	}
}

func TestGetUserIDFromContext_MissingOrWrongType(t *testing.T) {
	cases := []context.Context{
		context.Background(),
		context.WithValue(context.Background(), UserIDCtxKey, int64(42)),
		WithUserID(context.Background(), ""),
	}

	for _, ctx := range cases {
		if _, ok := GetUserIDFromContext(ctx); ok {
			t.Error("expected ok=false")
		}
	}
}

func TestNewID_IsUUIDv7(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("expected distinct IDs")
	}

	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("expected valid UUID, got %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
}
