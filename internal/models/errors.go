package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the API layer
type ErrorKind string

const (
	ErrInvalidInput     ErrorKind = "invalid_input"
	ErrNotFound         ErrorKind = "not_found"
	ErrConflict         ErrorKind = "conflict"
	ErrStoreUnavailable ErrorKind = "store_unavailable"
	ErrUnauthorized     ErrorKind = "unauthorized"
	ErrForbidden        ErrorKind = "forbidden"
)

// ServiceError is the structured error returned by services
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response status code
func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code is the upper-case error code used in response bodies
func (e *ServiceError) Code() string {
	switch e.Kind {
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrConflict:
		return "CONFLICT"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrForbidden:
		return "FORBIDDEN"
	default:
		return "STORE_UNAVAILABLE"
	}
}

func NewInvalidInput(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrConflict, Message: message, Err: err}
}

func NewStoreUnavailable(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrStoreUnavailable, Message: message, Err: err}
}

func NewUnauthorized(message string) *ServiceError {
	return &ServiceError{Kind: ErrUnauthorized, Message: message}
}

func NewForbidden(message string) *ServiceError {
	return &ServiceError{Kind: ErrForbidden, Message: message}
}

// AsServiceError extracts a ServiceError from an error chain
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsKind reports whether err carries a ServiceError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	se, ok := AsServiceError(err)
	return ok && se.Kind == kind
}
