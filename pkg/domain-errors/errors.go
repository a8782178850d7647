// Package domainerrors carries coded errors from services to transports.
//
// Services return *Error values (optionally wrapping an underlying cause) and
// the HTTP layer translates the Code into a status and the uniform JSON error
// envelope. Codes describe what went wrong in domain terms; they never leak a
// specific datastore's or storage provider's vocabulary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeParse         Code = "parse_error"
	CodeValidation    Code = "validation_error"
	CodeConfiguration Code = "configuration_error"
	CodeUpload        Code = "upload_error"
	CodeNotFound      Code = "not_found"
	CodeRateLimited   Code = "rate_limited"
	CodeInternal      Code = "internal_error"

	// Persistence subkinds.
	CodeSchemaMissing     Code = "schema_missing"
	CodePermissionDenied  Code = "permission_denied"
	CodePersistenceFailed Code = "persistence_failed"
)

// Error is a coded error with optional client-facing details and hint.
type Error struct {
	Code    Code
	Message string
	// Details names what failed (fields, file names) without exposing internals.
	Details string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithHint returns a copy of e carrying a hint.
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// As extracts the outermost *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// IsPersistence reports whether code is one of the persistence subkinds.
func IsPersistence(code Code) bool {
	switch code {
	case CodeSchemaMissing, CodePermissionDenied, CodePersistenceFailed:
		return true
	}
	return false
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeParse, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
