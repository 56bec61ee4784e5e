package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by storage when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRaceLost is returned by storage when a concurrent writer won a serialized resource.
	ErrRaceLost = errors.New("concurrent modification")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports malformed input or a missing precondition.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusUnprocessableEntity, details)
}

// NewFieldError is a validation error keyed to a single input field.
func NewFieldError(field, message string) error {
	return NewValidationError(message, map[string]any{
		"fields": map[string]string{field: message},
	})
}

// NewInvalidTransition reports a status change the state table does not allow.
func NewInvalidTransition(from, to string) error {
	return NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("cannot change status from %s to %s", from, to),
		http.StatusUnprocessableEntity,
		map[string]any{"from": from, "to": to})
}

// NewBookingConflict carries the overlapping bookings so the caller can pick another slot.
func NewBookingConflict(message string, conflicts any) error {
	return NewDomainError("BOOKING_CONFLICT", message, http.StatusUnprocessableEntity,
		map[string]any{"conflicts": conflicts})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewRaceLost reports that a concurrent writer won; callers may retry.
func NewRaceLost(message string, err error) error {
	return &DomainError{
		Code:       "RACE_LOST",
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"retryable": true},
		Err:        err,
	}
}

func NewRateLimited() error {
	return NewDomainError("RATE_LIMITED", "too many requests", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFound("resource", nil).(*DomainError)
	case errors.Is(err, ErrRaceLost):
		return NewRaceLost("resource was modified concurrently, retry the request", err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
