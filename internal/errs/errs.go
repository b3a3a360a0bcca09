// Package errs defines the error taxonomy of the data layer.
//
// Its purpose is to give callers a small, stable set of error kinds they
// can branch on with errors.Is / errors.As instead of matching strings:
// configuration defects, exhausted retries, failed migrations, and the
// intentionally unimplemented surfaces.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the store handle is absent. This is a
// deployment defect, not a transient condition, and is never retried.
var ErrNotConfigured = errors.New("database binding not configured")

// ErrNotImplemented is returned by the surfaces that are deliberate scope
// boundaries: migration rollback and schema introspection.
var ErrNotImplemented = errors.New("not implemented")

// ErrNotFound is returned by repository lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// QueryFailedError is the terminal error of the retry loop: every attempt
// failed and the budget is spent. It carries the attempt count and the last
// underlying error.
type QueryFailedError struct {
	Attempts int
	Err      error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *QueryFailedError) Unwrap() error { return e.Err }

// NewQueryFailedError wraps the last attempt error with the attempt count.
func NewQueryFailedError(attempts int, err error) *QueryFailedError {
	return &QueryFailedError{Attempts: attempts, Err: err}
}

// MigrationError reports a migration whose up script failed. It halts all
// subsequent migrations in the run.
type MigrationError struct {
	MigrationID int
	Name        string
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed: %v", e.MigrationID, e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// NewMigrationError wraps a failed migration with its identity.
func NewMigrationError(id int, name string, err error) *MigrationError {
	return &MigrationError{MigrationID: id, Name: name, Err: err}
}
