package services

import "errors"

// Failure taxonomy for the suggestion pipeline. Handlers match these with
// errors.Is to pick a response status; services wrap them with context via
// fmt.Errorf("%w: ...").
var (
	// ErrExtractionFailed means the whole document was unreadable. Partial
	// extraction failures are not errors; they just yield less text.
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrEmptyResume means extraction succeeded but produced no text.
	ErrEmptyResume = errors.New("resume contains no extractable text")

	ErrInferenceTimeout     = errors.New("inference request timed out")
	ErrInferenceBadResponse = errors.New("inference service returned a malformed response")
	ErrInferenceUnavailable = errors.New("inference service unavailable")

	// ErrProfileBuildFailed means both inference calls failed and no usable
	// signal survived.
	ErrProfileBuildFailed = errors.New("profile build failed")

	ErrSearchUnavailable = errors.New("job search service unavailable")
	ErrSearchRejected    = errors.New("job search query rejected")

	// ErrInsufficientProfile means the profile has neither skills nor role
	// keywords, so no bounded search query can be derived.
	ErrInsufficientProfile = errors.New("profile has no usable signal")
)
