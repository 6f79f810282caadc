package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PageStatus is the status recorded for a failed page.
// It is either an HTTP status code or StatusException for failures that
// happened below HTTP (DNS, refused connections, timeouts, TLS errors).
type PageStatus int

// StatusException marks a failure that produced no HTTP response.
// It never collides with a real HTTP status code.
const StatusException PageStatus = -1

// exceptionLabel is the textual form of StatusException in JSON and CSV output.
const exceptionLabel = "exception"

// IsException reports whether the status is the transport failure sentinel.
func (s PageStatus) IsException() bool {
	return s == StatusException
}

// Code returns the HTTP status code, or 0 for StatusException.
func (s PageStatus) Code() int {
	if s.IsException() {
		return 0
	}
	return int(s)
}

// String returns the numeric code or "exception".
func (s PageStatus) String() string {
	if s.IsException() {
		return exceptionLabel
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON encodes HTTP codes as numbers and StatusException as the
// string "exception".
func (s PageStatus) MarshalJSON() ([]byte, error) {
	if s.IsException() {
		return json.Marshal(exceptionLabel)
	}
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts either a number or the string "exception".
func (s *PageStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = PageStatus(code)
		return nil
	}

	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("page status must be a number or %q: %w", exceptionLabel, err)
	}
	if label != exceptionLabel {
		return fmt.Errorf("unknown page status %q", label)
	}
	*s = StatusException
	return nil
}
