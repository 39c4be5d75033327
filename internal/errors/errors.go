package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is an application-specific error type
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wraps an error with a code and message
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Error code constants
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInvalidArg = "INVALID_ARGUMENT"
	CodeExternal   = "EXTERNAL_ERROR"
	CodeConflict   = "CONFLICT"         // Resource already exists (UNIQUE violation)
	CodeDependency = "DEPENDENCY_ERROR" // Foreign key constraint violation

	CodeTransient    = "TRANSIENT_ERROR"     // Retry may succeed (network, timeout, 5xx)
	CodeTerminal     = "TERMINAL_ERROR"      // Retrying repeats the same outcome
	CodeConfig       = "CONFIG_ERROR"        // Missing or invalid connectivity settings
	CodeAccessDenied = "ACCESS_DENIED"       // Credentials rejected by a collaborator
	CodeInvariant    = "INVARIANT_VIOLATION" // Programming error, never corrected silently
)

// CodeOf returns the code of the outermost AppError in the chain, or "" when
// the chain has none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return HasCode(err, CodeTransient)
}

// IsTerminal reports whether err describes an outcome that a retry would repeat.
func IsTerminal(err error) bool {
	return HasCode(err, CodeTerminal) || HasCode(err, CodeNotFound)
}
