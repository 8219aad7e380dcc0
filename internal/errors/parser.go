package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the code and message shown for an error.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and infrastructure errors to a code and a safe
// message. context names the operation, e.g. "fetch cart".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
	}

	errStrLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	// Postgres 23505 and SQLite UNIQUE failures
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "a record with the same value already exists"}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{Code: InternalUnavailable, Message: "a backing service is unavailable, please try again later"}
	}

	if strings.Contains(errStrLower, "sql") || strings.Contains(errStrLower, "database") {
		return ErrorInfo{Code: InternalDatabaseError, Message: getDefaultErrorMessage(context)}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

// StatusFor returns the HTTP status that goes with a code from ParseError.
func StatusFor(code string) int {
	switch code {
	case ResourceNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists:
		return http.StatusConflict
	case InternalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "cart"):
		return "cart item not found"
	case strings.Contains(contextLower, "user"), strings.Contains(contextLower, "profile"):
		return "user not found"
	case strings.Contains(contextLower, "order"), strings.Contains(contextLower, "checkout"):
		return "order not found"
	}
	return "the requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	if context == "" {
		return "something went wrong, please try again later"
	}
	return "failed to " + context + ", please try again later"
}

// ParseAndRespond writes the ParseError result with its matching status.
func ParseAndRespond(c interface {
	AbortWithStatusJSON(int, interface{})
}, err error, context string) {
	info := ParseError(err, context)
	c.AbortWithStatusJSON(StatusFor(info.Code), ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
