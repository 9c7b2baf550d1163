package store

import "errors"

// Sentinel errors returned by stores and repositories. Callers match them
// with [errors.Is].
var (
	// ErrKeyNotFound is returned by [LocalStorage.Get] when nothing is stored
	// under the key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStorageClosed is returned by a local store used after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrRetryable marks a database failure that may succeed on retry
	// (connection loss, serialization failure, deadlock).
	ErrRetryable = errors.New("retryable database error")
)

// Low-level database operation errors, wrapped around the driver error.
var (
	// ErrBuildingSQLQuery is returned when a squirrel builder fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when a transaction cannot start.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when commit fails; the transaction
	// is rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when an INSERT, UPDATE or DELETE
	// fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when a result row cannot be scanned.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when row iteration fails mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
