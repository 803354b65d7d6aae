// Package apperrors defines the tagged error type shared by every layer.
// Each error carries a Kind discriminant plus the fields specific to it, so
// driving adapters can pick a status code without string matching.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the error categories surfaced to callers.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindGateway    Kind = "gateway"
	KindUnexpected Kind = "unexpected"
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrGateway    = errors.New("github request failed")
	ErrUnexpected = errors.New("unexpected error")
)

// Error is the tagged application error.
type Error struct {
	Kind Kind

	// Validation.
	Field string

	// NotFound.
	ResourceType string
	ResourceID   string

	// Gateway.
	StatusCode int

	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	case KindNotFound:
		return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceID)
	case KindGateway:
		if e.Err != nil {
			return fmt.Sprintf("github (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
		}
		return fmt.Sprintf("github (status %d): %s", e.StatusCode, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrGateway:
		return e.Kind == KindGateway
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	}
	return false
}

// Validation reports bad caller input on the named field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports a missing resource, e.g. NotFound("PR", "999").
func NotFound(resourceType, resourceID string) *Error {
	return &Error{
		Kind:         KindNotFound,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Message:      fmt.Sprintf("%s #%s not found", resourceType, resourceID),
	}
}

// Gateway reports a failed call to GitHub. A zero status becomes 502.
func Gateway(status int, message string, err error) *Error {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindGateway, StatusCode: status, Message: message, Err: err}
}

// Unexpected wraps an error that has no more specific category.
func Unexpected(message string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps err to the status code a driving adapter should send.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return appErr.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a user. Gateway and unexpected
// errors never leak their details.
func PublicMessage(err error) string {
	appErr, ok := As(err)
	if !ok {
		return "Something went wrong, please try again later."
	}
	switch appErr.Kind {
	case KindValidation, KindNotFound:
		return appErr.Message
	case KindGateway:
		return "GitHub request failed, please try again later."
	default:
		return "Something went wrong, please try again later."
	}
}
