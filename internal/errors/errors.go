package errors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Common error types for the storefront client
var (
	// Session errors
	ErrAuthRequired    = errors.New("authentication required")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionSealed   = errors.New("session is sealed and no passphrase was provided")
	ErrSessionCorrupt  = errors.New("stored session is corrupt")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidResponse = errors.New("invalid response")

	// Collection errors
	ErrLineNotFound    = errors.New("line not found")
	ErrQuantityFloor   = errors.New("quantity would drop below 1")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidStatus   = errors.New("invalid order status")

	// General errors
	ErrInvalidArgument = errors.New("invalid argument")
)

// Wrapf wraps an error with context and a stack trace. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error wrapping the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ValidationError is input rejected before it was sent. Reason is fit to show a user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// Invalidf returns a ValidationError that matches ErrInvalidArgument
func Invalidf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
