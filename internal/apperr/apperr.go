// Package apperr defines the service's error taxonomy. Components return
// these typed errors; only the transport layer maps them to HTTP status
// codes, so no handler or engine raises HTTP concepts directly.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = iota
	// KindUnauthenticated covers missing, invalid or expired credentials.
	KindUnauthenticated
	// KindForbidden covers valid identity with insufficient standing:
	// inactive account, unapproved partner, plan limit reached.
	KindForbidden
	// KindNotFound covers true absence and disguised ownership denial.
	KindNotFound
	// KindConflict covers duplicate unique keys (CNPJ, SKU) within a tenant.
	KindConflict
)

// Error is a typed application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthenticated returns a new unauthenticated error.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Forbidden returns a new forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound returns a new not-found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict returns a new conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind of an error, KindInternal when untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status code. Conflict maps to 400 rather
// than 409 to stay wire-compatible with existing API clients.
func Status(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write renders an error as a JSON response. 401 responses carry the
// WWW-Authenticate challenge header.
func Write(c echo.Context, err error) error {
	status := Status(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	return c.JSON(status, echo.Map{"error": message})
}
