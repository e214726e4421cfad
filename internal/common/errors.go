// Package common defines the error taxonomy, header names and small helpers
// shared by every gestcard component. Callers match errors with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Taxonomy surfaced to callers. AppError wraps one of these as its Kind.
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")

	// Token could not be verified (bad signature, malformed or expired).
	ErrInvalidToken = errors.New("invalid token")

	ErrInternal = errors.New("internal error")
)

// User-visible messages that must stay byte-identical across call sites.
const (
	MsgInvalidCredentials  = "Invalid credentials"
	MsgAccountDeactivated  = "Account is deactivated"
	MsgUserExists          = "User with this email already exists"
	MsgUserNotFound        = "User not found"
	MsgUserNotFoundOrInact = "User not found or inactive"
	MsgInvalidResetToken   = "Invalid or expired reset token"
	MsgMissingToken        = "Missing bearer token"
	MsgInvalidToken        = "Invalid or expired token"
)

// AppError is a taxonomy error with a message that is safe to show to the
// caller as-is.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

func newAppError(kind error, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Kind: kind, Message: msg}
}

func Validation(format string, args ...any) error {
	return newAppError(ErrValidation, format, args...)
}

func Conflict(format string, args ...any) error {
	return newAppError(ErrConflict, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newAppError(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newAppError(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) error {
	return newAppError(ErrNotFound, format, args...)
}

func BadRequest(format string, args ...any) error {
	return newAppError(ErrBadRequest, format, args...)
}

// Message returns the user-visible message of err, or fallback when err is
// not an AppError.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
