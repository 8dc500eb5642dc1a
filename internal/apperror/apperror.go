package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// UniformCredentialsMessage is the single message returned for EVERY
// authentication rejection: unknown email, wrong password, missing token,
// invalid token, expired token.
//
// UNIFORM REJECTION (OWASP A07 — Identification and Authentication Failures):
// If "no such user" and "wrong password" produced different messages or
// status codes, an attacker could enumerate which emails are registered.
// Every rejection path must return this exact string.
const UniformCredentialsMessage = "invalid email or password"

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable, safe to show the client
	Field   string // optional: input field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns the uniform authentication rejection.
// There is deliberately no variant that takes a custom message.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: UniformCredentialsMessage,
	}
}
