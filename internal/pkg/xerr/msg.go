package xerr

import (
	"errors"
	"fmt"
)

var (
	// client request errors
	ErrInvalidParams     = errors.New("invalid request parameters")
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidVisibility = errors.New("visibility must be public or user_specific")
	ErrSelfShare         = errors.New("you cannot share a dive with yourself")

	// authentication
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenInvalid       = errors.New("authentication token is invalid or expired")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDeactivated = errors.New("account is deactivated")

	// permission
	ErrForbidden        = errors.New("forbidden")
	ErrPermissionDenied = errors.New("permission denied")

	// not found
	ErrUserNotFound  = errors.New("user not found")
	ErrDiveNotFound  = errors.New("dive not found")
	ErrShareNotFound = errors.New("share link not found")

	// gone
	ErrShareExpired = errors.New("share link expired")

	// conflicts
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// storage
	ErrDatabaseError = errors.New("database operation failed")
)

// detailError keeps a sentinel reachable through errors.Is while replacing
// the message shown to clients.
type detailError struct {
	target error
	msg    string
}

func (e *detailError) Error() string { return e.msg }

func (e *detailError) Unwrap() error { return e.target }

// Wrapf returns an error that matches target and reads as the formatted message.
func Wrapf(target error, format string, args ...any) error {
	return &detailError{target: target, msg: fmt.Sprintf(format, args...)}
}
