package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Application-wide standard errors
var (
	// Common Resource Errors
	ErrNotFound = errors.New("resource not found")

	// Authentication / Authorization Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Graph Invariant Errors (state-dependent, not input-shape)
	ErrConflict           = errors.New("conflict with current state")
	ErrFirstPageExists    = fmt.Errorf("%w: story already has a first page", ErrConflict)
	ErrChoiceLinked       = fmt.Errorf("%w: choice already leads to another page", ErrConflict)
	ErrChoiceNotDeletable = fmt.Errorf("%w: choice leads to another page; delete that page or remove the connection first", ErrConflict)

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)

// ValidationError is a field-scoped schema violation. It is returned
// alongside the rejected submission so the caller can re-render the form
// with inline messages.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// WrapValidationErrors converts ozzo validation.Errors into the service's
// field-scoped ValidationError. Returns nil for a nil input.
func WrapValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	return &ValidationError{Fields: fields}
}

// AsValidationError extracts a *ValidationError if err carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
