package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is an API error response. Detail carries the backend's message
// verbatim.
type Error struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsAuth reports whether the error is an authentication failure.
func IsAuth(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether the error is a missing-resource failure.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsValidation reports whether the error is a request rejection other than
// auth or not-found.
func IsValidation(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusUnauthorized &&
		apiErr.StatusCode != http.StatusNotFound
}

// IsNetwork reports whether the error is a transport failure rather than an
// API response.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	return !errors.As(err, &apiErr)
}

// APIError extracts the API error from err, if any.
func APIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseError turns an error response body into an *Error. Backends answer
// {"detail": "..."}; anything else falls back to the raw body.
func parseError(statusCode int, body []byte) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &Error{StatusCode: statusCode, Detail: payload.Detail}
	}
	return &Error{StatusCode: statusCode, Detail: string(body)}
}
