// Package errors holds the application error taxonomy and its mapping onto
// HTTP responses.
//
// Services wrap these sentinels (usually through oops) and the web layer
// resolves them back with errors.Is:
//
//	if errors.Is(err, apperrors.ErrNotFoundOrForbidden) {
//	    // 404, same shape as a missing post
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration is fatal and only surfaces at startup.
	ErrConfiguration = errors.New("configuration error")

	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEntry = errors.New("already exists")
	ErrDuplicateEmail = fmt.Errorf("email %w", ErrDuplicateEntry)

	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound = fmt.Errorf("post %w", ErrNotFound)

	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrNotFoundOrForbidden is returned both for missing posts and for posts
	// owned by someone else, so callers cannot probe for existence.
	ErrNotFoundOrForbidden = errors.New("post not found or not yours")

	ErrHashing          = errors.New("password hashing failed")
	ErrDatabaseInternal = errors.New("database internal error")
)

// ValidationError is an ErrInvalidInput carrying a client-safe reason.
type ValidationError struct {
	Reason string
	Err    error
}

func NewValidationError(reason string, cause error) *ValidationError {
	return &ValidationError{Reason: reason, Err: cause}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

type publicError struct {
	target  error
	status  int
	message string
}

// Order matters: the more specific sentinel has to come first.
var publicErrors = []publicError{
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{ErrExpiredToken, http.StatusUnauthorized, "unauthorized"},
	{ErrInvalidCredentials, http.StatusUnauthorized, ErrInvalidCredentials.Error()},
	{ErrNotFoundOrForbidden, http.StatusNotFound, ErrNotFoundOrForbidden.Error()},
	{ErrUserNotFound, http.StatusNotFound, ErrUserNotFound.Error()},
	{ErrPostNotFound, http.StatusNotFound, ErrPostNotFound.Error()},
	{ErrNotFound, http.StatusNotFound, ErrNotFound.Error()},
	{ErrDuplicateEmail, http.StatusBadRequest, ErrDuplicateEmail.Error()},
	{ErrDuplicateEntry, http.StatusBadRequest, ErrDuplicateEntry.Error()},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "service unavailable"},
}

// Resolve maps err to an HTTP status and a message that is safe to send to
// clients. Anything it does not recognise becomes a 500 with a generic
// message.
func Resolve(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Reason
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest, ErrInvalidInput.Error()
	}

	for _, pe := range publicErrors {
		if errors.Is(err, pe.target) {
			return pe.status, pe.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// IsExpected reports whether err is part of the user-facing taxonomy, i.e.
// not something that should be logged as a server failure.
func IsExpected(err error) bool {
	status, _ := Resolve(err)
	return status < http.StatusInternalServerError
}
