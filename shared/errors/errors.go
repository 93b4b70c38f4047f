package errors

import (
	"errors"
	"fmt"
)

// NotFound covers single missing records (post, like mark, comment).
var NotFound = errors.New("not found")

// RippleNotFound is returned when a continuation is resolved against a
// ripple group with zero readable members.
var RippleNotFound = errors.New("ripple not found")

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	if _, ok := err.(T); ok {
		return true
	}
	return false
}

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Validation builds the 400-status error used for rejected input.
func Validation(format string, args ...any) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: fmt.Sprintf(format, args...), StatusCode: 400}
}
