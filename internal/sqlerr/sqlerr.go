// Package sqlerr classifies the errors the remote store surfaces.
//
// The store does not raise typed, retryable-vs-fatal error distinctions;
// everything arrives as an opaque error. This package inspects those errors
// conservatively (string-based, to avoid importing driver packages) and
// decides whether retrying could possibly help.
//
// The executor's default is to retry every failure identically. Classify is
// the opt-in alternative for callers who do not want a malformed statement
// retried like a network blip.
package sqlerr

import (
	"context"
	"errors"
	"strings"

	"github.com/statelayer/edgebase/internal/errs"
)

// permanentMarkers are substrings that indicate the statement itself is
// defective or violates the schema. Retrying such a statement yields the
// same failure. Covers the SQLite-class messages the edge store emits plus
// the common Postgres/MySQL spellings.
var permanentMarkers = []string{
	"syntax error",
	"unique constraint",
	"constraint failed",
	"constraint violation",
	"no such table",
	"no such column",
	"duplicate",
	"23505", // postgres unique_violation
	"1062",  // mysql duplicate entry
	"malformed",
	"too many sql variables",
}

// Classify reports whether err is worth retrying. Context cancellation from
// the caller is permanent (the request is gone); an attempt deadline is
// transient (the next attempt gets a fresh one). Unknown errors are assumed
// transient, matching the store's "mostly reliable, occasionally fails"
// contract.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errs.ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	le := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(le, marker) {
			return false
		}
	}
	return true
}

// RetryAll is the classifier that preserves the historical behavior: every
// failure is treated as transient and retried up to the budget.
func RetryAll(err error) bool {
	return err != nil
}

// IsDuplicate reports whether err is a uniqueness violation. Repositories
// use it to map driver noise to errs-level semantics.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	le := strings.ToLower(err.Error())
	return strings.Contains(le, "unique") || strings.Contains(le, "duplicate") ||
		strings.Contains(le, "23505") || strings.Contains(le, "1062")
}
