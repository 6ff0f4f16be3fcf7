package common

import "errors"

// Business logic errors
var (
	// Content errors
	ErrContentNotFound = errors.New("content not found")
	ErrSlugTaken       = errors.New("slug already in use")

	// Versioning errors
	ErrVersionNotFound        = errors.New("version not found")
	ErrVersionContentMismatch = errors.New("version does not belong to this content")
	ErrRollbackFailure        = errors.New("rollback failed")

	// Moderation errors
	ErrModerationFailure = errors.New("moderation failed")
	ErrDecisionRequired  = errors.New("explicit moderation decision required")
	ErrInvalidDecision   = errors.New("invalid moderation decision")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
