// Package domainerrors provides coded errors for the service layer.
//
// Stores return pkg/sentinel errors for infrastructure facts; services wrap or
// translate them into coded errors so transports can map them to responses
// without string matching. Import as dErrors:
//
//	import dErrors "revalid/pkg/domain-errors"
//
//	return dErrors.New(dErrors.CodeNotFound, "doctor not found")
//	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
//	if dErrors.HasCode(err, dErrors.CodeConflict) { ... }
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and caller branching.
type Code string

const (
	CodeInternal           Code = "internal"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// CodeSubmissionRejected marks a submission the regulator refused.
	// Recoverable: no local state was mutated, the caller may fix and retry.
	CodeSubmissionRejected Code = "submission_rejected"
)

// Error carries a code, a human-readable message, optional per-field details,
// and the wrapped cause.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Returns nil if err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WithField returns a validation error carrying a per-field message, so
// handlers can render field-level feedback.
func WithField(code Code, field, message string) error {
	return &Error{
		Code:    code,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal if the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf collects per-field messages from the chain, outermost first.
func FieldsOf(err error) map[string]string {
	fields := map[string]string{}
	var de *Error
	for errors.As(err, &de) {
		for k, v := range de.Fields {
			if _, seen := fields[k]; !seen {
				fields[k] = v
			}
		}
		err = de.Err
		de = nil
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
