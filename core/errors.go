package core

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// StackTraceDepth bounds the number of frames captured for an error stack
const StackTraceDepth = 32

// AppError is an intentionally raised failure that carries the HTTP status
// it should be reported with. Anything that is not an AppError is treated as
// an unexpected failure by the API boundary.
type AppError struct {
	StatusCode int
	Message    string
	stack      string
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// Status returns the HTTP status code
func (e *AppError) Status() int {
	return e.StatusCode
}

// StackTrace returns the call stack captured when the error was created
func (e *AppError) StackTrace() string {
	return e.stack
}

// NewAppError creates an AppError with the given status. An empty message is
// replaced by the canonical status text.
func NewAppError(statusCode int, message string) *AppError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &AppError{
		StatusCode: statusCode,
		Message:    message,
		stack:      captureStack(3, message),
	}
}

// BadRequest returns a 400 AppError
func BadRequest(message string) *AppError {
	return newAt(http.StatusBadRequest, message)
}

// Unauthorized returns a 401 AppError
func Unauthorized(message string) *AppError {
	return newAt(http.StatusUnauthorized, message)
}

// Forbidden returns a 403 AppError
func Forbidden(message string) *AppError {
	return newAt(http.StatusForbidden, message)
}

// NotFound returns a 404 AppError
func NotFound(message string) *AppError {
	return newAt(http.StatusNotFound, message)
}

// Conflict returns a 409 AppError
func Conflict(message string) *AppError {
	return newAt(http.StatusConflict, message)
}

// PayloadTooLarge returns a 413 AppError
func PayloadTooLarge(message string) *AppError {
	return newAt(http.StatusRequestEntityTooLarge, message)
}

// Internal returns a 500 AppError
func Internal(message string) *AppError {
	return newAt(http.StatusInternalServerError, message)
}

// newAt skips one extra frame so the stack starts at the constructor's caller
func newAt(statusCode int, message string) *AppError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &AppError{
		StatusCode: statusCode,
		Message:    message,
		stack:      captureStack(4, message),
	}
}

// AsAppError reports whether err (or anything it wraps) is an AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// PanicError wraps a value recovered from a panic. It is never a known error.
type PanicError struct {
	Value interface{}
	Stack string
}

// Error implements the error interface
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is/As
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StackTrace returns the goroutine stack captured at recovery
func (e *PanicError) StackTrace() string {
	return e.Stack
}

// StackTrace returns the stack attached to err, or "" when err carries none
func StackTrace(err error) string {
	var st interface{ StackTrace() string }
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}

func captureStack(skip int, message string) string {
	pcs := make([]uintptr, StackTraceDepth)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(message)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "\n    at %s (%s:%d)", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
