// Package common defines the sentinel errors and shared helpers used across
// the upmon core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation / input errors.
	ErrValidation = errors.New("missing required field(s) or field(s) are invalid")

	// Record lookup errors (shared by the store and the services).
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Authorization errors.
	ErrForbidden = errors.New("missing required token, or token is invalid")

	// User registry errors.
	ErrDuplicateUser    = errors.New("a user with that phone number already exists")
	ErrPasswordMismatch = errors.New("the password does not match")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("the token has already expired")

	// Check registry errors.
	ErrMaxChecksExceeded = errors.New("the user already has the maximum number of checks")

	// ErrConsistency reports drift between linked collections, e.g. a check
	// record whose id is missing from its owner's list. Distinct from
	// ErrNotFound so operators can tell corruption from an ordinary miss.
	ErrConsistency = errors.New("linked records have drifted out of sync")

	// ErrStore marks collaborator I/O failures. Store implementations wrap
	// their underlying errors with it so callers can separate retryable
	// infrastructure faults from domain errors.
	ErrStore = errors.New("store failure")
)
