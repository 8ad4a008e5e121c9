package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a PIN that matches no active user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates rejected input (negative amount, blank
	// customer name, future-dated creation or payment).
	ErrValidation = errors.New("validation failed")
)

// ValidationError wraps ErrValidation with a field-level detail so the
// UI can surface which input was rejected.
func ValidationError(field, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, detail)
}

// UserSafeMessage strips internals from an error before it reaches a
// client-facing response.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return err.Error()
	default:
		return "internal error"
	}
}
