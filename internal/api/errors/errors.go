// Package errors defines the error taxonomy exposed by the API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error independently of its transport representation.
type Kind string

const (
	KindDuplicateEmail        Kind = "DuplicateEmail"
	KindWeakPassword          Kind = "WeakPassword"
	KindInvalidCredentials    Kind = "InvalidCredentials"
	KindInvalidOrExpiredToken Kind = "InvalidOrExpiredToken"
	KindUserNotFound          Kind = "UserNotFound"
	KindUnauthenticated       Kind = "Unauthenticated"
	KindInvalidRequest        Kind = "InvalidRequest"
	KindInternal              Kind = "Internal"
)

// APIError is an expected business failure with a client-safe message.
type APIError struct {
	Kind     Kind
	HTTPCode int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// As extracts an *APIError from err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}

func NewErrEmailIsTaken(email string) *APIError {
	return &APIError{
		Kind:     KindDuplicateEmail,
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("email %s is already registered", email),
	}
}

func NewErrWeakPassword(minLength int) *APIError {
	return &APIError{
		Kind:     KindWeakPassword,
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("password must be at least %d characters long", minLength),
	}
}

func NewErrPasswordTooLong(maxBytes int) *APIError {
	return &APIError{
		Kind:     KindWeakPassword,
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("password must be at most %d bytes long", maxBytes),
	}
}

// NewErrInvalidCredentials is shared by every credential check so callers
// cannot tell an unknown email from a wrong password.
func NewErrInvalidCredentials() *APIError {
	return &APIError{
		Kind:     KindInvalidCredentials,
		HTTPCode: http.StatusUnauthorized,
		Message:  "invalid email or password",
	}
}

func NewErrInvalidCurrentPassword() *APIError {
	return &APIError{
		Kind:     KindInvalidCredentials,
		HTTPCode: http.StatusBadRequest,
		Message:  "current password is incorrect",
	}
}

func NewErrInvalidOrExpiredToken() *APIError {
	return &APIError{
		Kind:     KindInvalidOrExpiredToken,
		HTTPCode: http.StatusBadRequest,
		Message:  "reset link is invalid or has expired",
	}
}

func NewErrUserNotFound() *APIError {
	return &APIError{
		Kind:     KindUserNotFound,
		HTTPCode: http.StatusNotFound,
		Message:  "user not found",
	}
}

func NewErrMissingAuthorizationToken() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		HTTPCode: http.StatusUnauthorized,
		Message:  "authorization token is missing",
	}
}

func NewErrInvalidAuthorizationToken() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		HTTPCode: http.StatusUnauthorized,
		Message:  "authorization token is invalid or expired",
	}
}

func NewErrInvalidRequest(message string) *APIError {
	return &APIError{
		Kind:     KindInvalidRequest,
		HTTPCode: http.StatusBadRequest,
		Message:  message,
	}
}

func NewErrInternalServerError(err error) *APIError {
	return &APIError{
		Kind:     KindInternal,
		HTTPCode: http.StatusInternalServerError,
		Message:  "internal server error",
		Err:      err,
	}
}
