// Package errors provides structured error types for flyersmith.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Codes fall into a few families:
//   - INVALID_* / EMPTY_*: Input validation failures
//   - *_PLAN / MISSING_SECTIONS: The planning model returned an unusable plan
//   - IMAGE_GENERATION, COUNT_MISMATCH, DEGRADED_INJECTION: Asset problems
//   - MALFORMED_EDIT: The critique model returned an unusable edit
//   - NETWORK_*, UPSTREAM, RATE_LIMITED: Model service failures
//
// Plan, asset and edit errors are recoverable. Pipeline stages turn them into
// a fallback value plus a log entry rather than returning them to the caller.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyPrompt, "prompt cannot be empty")
//	if errors.Is(err, errors.ErrCodeEmptyPrompt) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeUpstream, origErr, "chat completion failed")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeEmptyPrompt   Code = "EMPTY_PROMPT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidID     Code = "INVALID_ID"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Plan errors
	ErrCodeUndecodablePlan Code = "UNDECODABLE_PLAN"
	ErrCodeMissingSections Code = "MISSING_SECTIONS"

	// Asset errors
	ErrCodeImageGeneration   Code = "IMAGE_GENERATION"
	ErrCodeCountMismatch     Code = "COUNT_MISMATCH"
	ErrCodeDegradedInjection Code = "DEGRADED_INJECTION"

	// Refinement errors
	ErrCodeMalformedEdit Code = "MALFORMED_EDIT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Model service errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeUpstream    Code = "UPSTREAM_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
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
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
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

// Recoverable reports whether err belongs to a class the pipeline absorbs
// with a fallback value instead of aborting the request.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeUndecodablePlan, ErrCodeMissingSections, ErrCodeImageGeneration,
		ErrCodeCountMismatch, ErrCodeDegradedInjection, ErrCodeMalformedEdit:
		return true
	}
	return false
}
