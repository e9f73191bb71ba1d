// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Credential errors. The first three are all reported as 401 at the
	// HTTP boundary.
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrStoreUnavailable  = errors.New("credential store unavailable")

	// ErrVerificationMismatch is a business outcome, not a fault: the
	// password did not match the stored digest.
	ErrVerificationMismatch = errors.New("verification mismatch")
)
