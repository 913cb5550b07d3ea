// Package errors provides structured error types for molforge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the engine
//   - Machine-readable error codes for programmatic handling
//   - Offending vertex, edge or atom identifiers attached as details
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND / UNKNOWN_*: Resource not found
//   - TOPOLOGY, EMBEDDING: Construction failures that abort a build
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTopology, "vertex %d has %d connections", id, n).
//	    WithDetail("vertex", id)
//	if errors.Is(err, errors.ErrCodeTopology) {
//	    // abort the build
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidAssignment Code = "INVALID_ASSIGNMENT"
	ErrCodeInvalidRecipe     Code = "INVALID_RECIPE"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeUnknownTopology Code = "UNKNOWN_TOPOLOGY"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Construction errors
	ErrCodeTopology  Code = "TOPOLOGY"
	ErrCodeEmbedding Code = "EMBEDDING"

	// Backend errors
	ErrCodeUnavailable Code = "UNAVAILABLE"
	ErrCodeTimeout     Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code           // Machine-readable error code
	Message string         // Human-readable message
	Cause   error          // Underlying error (optional)
	Details map[string]any // Offending identifiers (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, k := range slices.Sorted(maps.Keys(e.Details)) {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, " "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches an identifier to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCodeOr is like [GetCode] but returns fallback for errors without a code.
func GetCodeOr(err error, fallback Code) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	return fallback
}

// Detail returns the detail stored under key on the first *Error in the chain.
func Detail(err error, key string) (any, bool) {
	var e *Error
	if errors.As(err, &e) {
		v, ok := e.Details[key]
		return v, ok
	}
	return nil, false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
