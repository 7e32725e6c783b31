package schema

import "errors"

var (
	// ErrValidationSystem is returned when the validator itself fails
	// (malformed schema document, loader error) rather than the payload.
	ErrValidationSystem = errors.New("schema: validation system error")
	// ErrValidationFailed is returned when a payload fails structural validation.
	ErrValidationFailed = errors.New("schema: validation failed")
)
