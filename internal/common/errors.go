// Package common defines shared constants and sentinel errors used across
// the server, the admin tool and the CLI client. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Access errors.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrIncorrectPassword = errors.New("incorrect old password")

	// Request validation errors.
	ErrInvalidInput = errors.New("invalid input")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")
)
