package model

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

var (
	emailRegexp    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	usernameRegexp = regexp.MustCompile(`^\S+$`)

	// ErrPasswordNotReadable is returned when reading a user's password.
	ErrPasswordNotReadable = errors.New("password is not a readable attribute")
)

// A ValidationError is returned when an attribute is assigned an invalid value.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, value, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError returns true if the cause of err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// CheckLength returns true if s is not empty and at most max characters long.
func CheckLength(s string, max int) bool {
	return s != "" && len([]rune(s)) <= max
}
