package domain

import (
	"errors"
	"strings"
)

// ErrIllegalTransition is returned when an adoption is moved out of a state
// that does not allow it.
var ErrIllegalTransition = errors.New("illegal adoption transition")

// ValidationError carries every human readable reason a request was refused.
type ValidationError struct {
	Reasons []string
}

func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
