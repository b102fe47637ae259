// Package errors defines the storefront's error vocabulary: sentinel causes,
// the AppError carried to the HTTP layer, and their status mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel causes. AppErrors wrap one of these so callers can use errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrTransport      = errors.New("upstream transport failure")
)

// kind ties a sentinel to its wire code, status and the message shown when
// the error carries no message of its own.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is ordered by lookup priority.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "resource already exists"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"},
	{ErrTransport, "BAD_GATEWAY", http.StatusBadGateway, "upstream service failed"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable"},
}

var internalKind = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}

func kindOf(err error) kind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k
		}
	}
	return internalKind
}

// AppError is an error with a stable code and a user-facing message. Err is
// kept for logs and never rendered.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(k kind, message string, cause error) *AppError {
	if cause == nil {
		cause = k.sentinel
	}
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: cause}
}

// NotFound reports a missing resource identified by id.
func NotFound(resource, id string) *AppError {
	return NotFoundMessage(fmt.Sprintf("%s with id %s not found", resource, id))
}

// NotFoundMessage reports a missing resource with an upstream-provided message.
func NotFoundMessage(message string) *AppError {
	return newAppError(kinds[0], message, nil)
}

func Conflict(message string) *AppError     { return newAppError(kinds[1], message, nil) }
func InvalidInput(message string) *AppError { return newAppError(kinds[2], message, nil) }
func Unauthorized(message string) *AppError { return newAppError(kinds[3], message, nil) }
func Forbidden(message string) *AppError    { return newAppError(kinds[4], message, nil) }

// TransportFailure reports a backend request that could not complete or was
// answered with a non-success status. Only message reaches users.
func TransportFailure(message string, cause error) *AppError {
	if cause != nil {
		cause = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	return newAppError(kinds[5], message, cause)
}

// ServiceUnavailable reports a backend that is refusing work, such as one
// behind an open circuit breaker.
func ServiceUnavailable(message string, cause error) *AppError {
	if cause != nil {
		cause = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return newAppError(kinds[6], message, cause)
}

// IsTransport reports whether err describes an upstream transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Describe(err)
	return status
}

// Describe returns the status, code and user-facing message for err. An
// AppError is rendered as is; a bare sentinel chain gets its kind's generic
// message, except invalid input whose own text is shown.
func Describe(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	k := kindOf(err)
	if k.message == "" {
		return k.status, k.code, err.Error()
	}
	return k.status, k.code, k.message
}
