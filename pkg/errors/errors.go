// Package errors provides structured error handling for reshape
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeSourceNotFound means the input source does not exist or cannot be read
	ErrorTypeSourceNotFound ErrorType = "source_not_found"
	// ErrorTypeMissingColumn means a configured identifier or category column is absent
	ErrorTypeMissingColumn ErrorType = "missing_column"
	// ErrorTypeTransform represents any other failure while parsing, splitting or encoding
	ErrorTypeTransform ErrorType = "transform"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeWrite represents failures committing the output artifact
	ErrorTypeWrite ErrorType = "write"
)

// Exit codes reported by the CLI for each error class.
const (
	ExitOK             = 0
	ExitUnexpected     = 1
	ExitConfig         = 2
	ExitSourceNotFound = 3
	ExitMissingColumn  = 4
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value and whether it was set.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// SourceNotFound reports an input path that is missing or unreadable.
func SourceNotFound(path string, cause error) *Error {
	e := &Error{
		Type:    ErrorTypeSourceNotFound,
		Message: fmt.Sprintf("input %q not found or unreadable", path),
		Cause:   cause,
		Stack:   captureStack(2),
	}
	return e.WithDetail("path", path)
}

// MissingColumn reports a configured column that the input header does not contain.
func MissingColumn(column string) *Error {
	e := &Error{
		Type:    ErrorTypeMissingColumn,
		Message: fmt.Sprintf("expected column %q not found in input", column),
		Stack:   captureStack(2),
	}
	return e.WithDetail("column", column)
}

// Unexpected wraps any other transform failure.
func Unexpected(cause error, message string) *Error {
	return &Error{
		Type:    ErrorTypeTransform,
		Message: message,
		Cause:   cause,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error, or any error it wraps, is of the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsType(err, ErrorTypeMissingColumn):
		return ExitMissingColumn
	case IsType(err, ErrorTypeSourceNotFound):
		return ExitSourceNotFound
	case IsType(err, ErrorTypeConfig):
		return ExitConfig
	default:
		return ExitUnexpected
	}
}

// MissingColumnName returns the column named by a MissingColumn error anywhere in the chain.
func MissingColumnName(err error) (string, bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return "", false
		}
		if e.Type == ErrorTypeMissingColumn {
			col, ok := e.Details["column"].(string)
			return col, ok
		}
		err = e.Cause
	}
	return "", false
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
