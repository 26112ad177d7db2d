package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Registration conflicts
	ErrDuplicateUsername = errors.New("a user with that username already exists")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")

	// Confirmation state errors
	ErrConfirmationExpired = errors.New("confirmation has expired")
	ErrAlreadyConfirmed    = errors.New("registration has already been confirmed")
	ErrNotConfirmed        = errors.New("email address has not been confirmed")

	// Token errors
	ErrTokenRevoked = errors.New("token has been revoked")

	// External mail channel failure
	ErrMailDispatch = errors.New("failed to send confirmation email")
)
