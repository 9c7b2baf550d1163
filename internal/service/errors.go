package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrNoUpdatesProvided   = errors.New("no updates provided")
	ErrBatchLengthMismatch = errors.New("update batch length mismatch")
	ErrInvalidProfileKey   = errors.New("invalid profile key")
	ErrInvalidSyncToken    = errors.New("invalid sync token")
	ErrNoAccountID         = errors.New("no account ID provided")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrTokenIsExpired          = errors.New("token is expired")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")

	// ErrFatalAuth means the credential can no longer be used; no automatic
	// retry will succeed until the user authenticates again.
	ErrFatalAuth = errors.New("authentication failed permanently")

	ErrSyncUnavailable = errors.New("remote sync is disabled or not permitted")
	ErrFlushInFlight   = errors.New("a flush is in flight")
	ErrWipeInProgress  = errors.New("a remote wipe is in progress")
	ErrQueueFrozen     = errors.New("queue items are frozen for an in-flight flush")
	ErrEngineClosed    = errors.New("sync engine closed")
)
