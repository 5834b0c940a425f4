package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes.
var (
	// ErrNotFound indicates the requested record does not exist or is deleted
	ErrNotFound = errors.New("record not found")

	// ErrInvalidState indicates a lifecycle transition is not allowed from
	// the record's current status
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidBalance indicates an operation would drive a balance below zero
	ErrInvalidBalance = errors.New("balance would fall below zero")

	// ErrSettingsMissing indicates no settings row exists for the requested
	// loan type or deposit category
	ErrSettingsMissing = errors.New("settings not configured")

	// ErrValidation indicates a request failed input validation
	ErrValidation = errors.New("validation failed")
)

// validationError wraps ErrValidation with the offending field
func validationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
