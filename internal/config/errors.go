package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is()
// while still getting a human-readable message.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http or https URL with a host.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL with a host")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxConcurrent is returned when max concurrent is not positive.
	ErrInvalidMaxConcurrent = errors.New("invalid max concurrent: must be positive")

	// ErrInvalidDelay is returned when the delay between requests is negative.
	// Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay between requests: must be non-negative")

	// ErrInvalidMaxIterations is returned when the iteration cap is not positive.
	ErrInvalidMaxIterations = errors.New("invalid max iterations: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRequestsPerSecond is returned when the request rate cap is negative.
	// Use 0 for no cap.
	ErrInvalidRequestsPerSecond = errors.New("invalid requests per second: must be non-negative")

	// ErrInvalidPattern is returned when an exclude or include pattern is not
	// a valid regular expression.
	ErrInvalidPattern = errors.New("invalid URL pattern")
)
