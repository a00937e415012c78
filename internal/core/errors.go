package core

import "errors"

// Errors shared across the pipeline. The HTTP layer maps them with errors.Is.
var (
	// ErrValidation indicates a missing or malformed request field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown deck or object.
	ErrNotFound = errors.New("not found")

	// ErrSlideIndex indicates an edit addressed a slide the deck doesn't have.
	ErrSlideIndex = errors.New("slide index out of range")

	// ErrUnauthorized indicates a missing, invalid or expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamUnavailable indicates an external capability failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNoAIProvider indicates no language model credential is configured at all.
	ErrNoAIProvider = errors.New("no AI provider configured")

	// ErrGenerationFailed indicates the language model produced no usable outline.
	ErrGenerationFailed = errors.New("outline generation failed")

	// ErrRenderRequired indicates an update changed content without a fresh render.
	ErrRenderRequired = errors.New("content change requires a rendered binary")

	// ErrVersionConflict indicates the deck changed since it was read.
	ErrVersionConflict = errors.New("deck version conflict")

	// ErrStorageDisabled indicates object storage is not configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
