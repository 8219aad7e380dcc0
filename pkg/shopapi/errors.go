package shopapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidConfig is returned when the client configuration is unusable
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrNetwork is returned when the backend could not be reached
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned when there is no valid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest is returned when the backend rejects the request, e.g. out of stock
	ErrBadRequest = errors.New("request rejected")

	// ErrNotFound is returned when the addressed resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the server state changed under the request
	ErrConflict = errors.New("conflict")

	// ErrServer is returned for 5xx responses
	ErrServer = errors.New("server error")

	// ErrUnexpectedStatus is returned for any other non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrEmptyData is returned when a response envelope carries no data
	ErrEmptyData = errors.New("response has no data")

	// ErrResponseTooLarge is returned when a body exceeds the read limit
	ErrResponseTooLarge = errors.New("response body too large")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	err        error
}

// NewAPIError builds the error for a non-2xx response with the given status.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		err:        sentinelForStatus(status),
	}
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: status %d, code %s: %s", e.err, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: status %d: %s", e.err, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}
