// Package apperror defines the operational error type used across the
// application. Operational errors are failures we can predict beforehand
// (bad user input, auth failures, missing records, conflicts) and are safe
// to show to the caller. Anything that is not an *apperror.Error is treated
// as a programming or infrastructure failure and never leaks detail in
// production.
package apperror

import (
	"fmt"
	"net/http"
)

// Error carries an HTTP status code and a caller-safe message. The wrapped
// Err, when set, preserves the underlying cause for logs and dev output.
type Error struct {
	Code    int    // HTTP status code, defaults to 500 when unset
	Message string // safe, user-facing message
	Err     error  // underlying cause (optional)
}

// New builds an operational error with the given status code and message.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with fmt-style formatting of the message.
func Newf(code int, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Wrap attaches an underlying cause to an operational error so that dev
// mode and internal logs can surface it.
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the error's HTTP status, defaulting to 500.
func (e *Error) StatusCode() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Status returns the envelope status class: "fail" for 4xx codes and
// "error" for everything else.
func (e *Error) Status() string {
	if c := e.StatusCode(); c >= 400 && c < 500 {
		return "fail"
	}
	return "error"
}
