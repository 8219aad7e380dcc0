package storefront

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

var (
	// ErrInvalidTransition is returned when a checkout operation is not allowed in the current state
	ErrInvalidTransition = errors.New("checkout: operation not allowed in current state")

	// ErrOperationPending is returned when the same control is already busy
	ErrOperationPending = errors.New("operation already in progress")

	// ErrUnknownView is returned by Shell.Navigate for views that cannot be selected
	ErrUnknownView = errors.New("unknown view")
)

// AuthError is a login or session failure, shown on the login form.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RequestError is a failed product, cart or checkout call. The shopper may retry.
type RequestError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ValidationError lists missing or malformed input. It is raised before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func newAuthError(op string, err error) *AuthError {
	message := "could not sign in"
	var apiErr *shopapi.APIError
	switch {
	case errors.As(err, &apiErr) && errors.Is(err, shopapi.ErrUnauthorized):
		message = "invalid email or password"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		message = apiErr.Message
	case errors.Is(err, shopapi.ErrNetwork):
		message = "the shop is unreachable, try again"
	}
	return &AuthError{Op: op, Message: message, Err: err}
}

func newRequestError(op string, err error) *RequestError {
	reqErr := &RequestError{Op: op, Message: "request failed, try again", Err: err}
	var apiErr *shopapi.APIError
	switch {
	case errors.As(err, &apiErr):
		reqErr.Code = apiErr.Code
		if apiErr.Message != "" {
			reqErr.Message = apiErr.Message
		}
	case errors.Is(err, shopapi.ErrNetwork):
		reqErr.Message = "the shop is unreachable, try again"
	}
	return reqErr
}

// Message returns the text to show the shopper for err.
func Message(err error) string {
	var authErr *AuthError
	var reqErr *RequestError
	var valErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &reqErr):
		return reqErr.Message
	default:
		return err.Error()
	}
}
