package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and machine code a failure should surface as.
// Err holds the client-facing message; Detail is optional diagnostic text.
type Error struct {
	Status int
	Code   string
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeValidation           = "validation_error"
	CodeConflict             = "conflict"
	CodeUnauthorized         = "unauthorized"
	CodeAccountLocked        = "account_locked"
	CodeNotFound             = "not_found"
	CodeUnsupportedMediaType = "unsupported_media_type"
	CodePayloadTooLarge      = "payload_too_large"
	CodeConversion           = "conversion_failed"
)

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

// Conflict is reported as 400 to match what existing clients expect for duplicate registrations.
func Conflict(msg string) *Error {
	return New(http.StatusBadRequest, CodeConflict, errors.New(msg))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

func AccountLocked(msg string) *Error {
	return New(http.StatusUnauthorized, CodeAccountLocked, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

func UnsupportedMediaType(msg string) *Error {
	return New(http.StatusBadRequest, CodeUnsupportedMediaType, errors.New(msg))
}

func PayloadTooLarge(msg string) *Error {
	return New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, errors.New(msg))
}

func Conversion(msg, detail string) *Error {
	e := New(http.StatusInternalServerError, CodeConversion, errors.New(msg))
	e.Detail = detail
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
