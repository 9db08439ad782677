package apierror

import (
	"net/http"

	"github.com/pkg/errors"
)

// Tags rendered in the error payloads.
const (
	TagInvalidParameters = "invalid-parameters"
	TagInvalidAuth       = "invalid-auth"
	TagForbidden         = "forbidden"
	TagNotFound          = "not-found"
	TagConflict          = "already-exists"
)

type (
	// An Error represents the error format that can be rendered by the API.
	Error struct {
		HTTPCode   int   `json:"-"`
		FieldError field `json:"error"`
	}

	field struct {
		Tag     string `json:"tag,omitempty"`
		Message string `json:"message"`
	}
)

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	if apierr, ok := errors.Cause(err).(*Error); ok && apierr.HTTPCode != 0 {
		return apierr.HTTPCode
	}
	return http.StatusInternalServerError
}

// New returns a new Error with the given message.
func New(message string) *Error {
	return &Error{FieldError: field{Message: message}}
}

// NewWithTagCode returns a new Error with the given code, tag and message.
func NewWithTagCode(code int, tag, message string) *Error {
	return &Error{HTTPCode: code, FieldError: field{Tag: tag, Message: message}}
}

// InvalidParameters returns a 400 error.
func InvalidParameters(message string) *Error {
	return NewWithTagCode(http.StatusBadRequest, TagInvalidParameters, message)
}

// InvalidAuth returns a 401 error.
func InvalidAuth(message string) *Error {
	return NewWithTagCode(http.StatusUnauthorized, TagInvalidAuth, message)
}

// Forbidden returns a 403 error.
func Forbidden(message string) *Error {
	return NewWithTagCode(http.StatusForbidden, TagForbidden, message)
}

// NotFound returns a 404 error.
func NotFound(message string) *Error {
	return NewWithTagCode(http.StatusNotFound, TagNotFound, message)
}

// Conflict returns a 409 error.
func Conflict(message string) *Error {
	return NewWithTagCode(http.StatusConflict, TagConflict, message)
}

// Error implements error interface.
func (e *Error) Error() string {
	return e.FieldError.Message
}

// Tag returns the tag of the error.
func (e *Error) Tag() string {
	return e.FieldError.Tag
}
