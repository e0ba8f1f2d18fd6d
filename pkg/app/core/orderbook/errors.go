package orderbook

import "github.com/cockroachdb/errors"

// Error kinds. Concrete errors are marked with one of these so callers can
// branch with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrDuplicateID  = errors.New("duplicate id")
)

func validationf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// Validationf builds an error of kind ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return validationf(format, args...)
}
