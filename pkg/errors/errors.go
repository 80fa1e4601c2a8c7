// Package errors provides structured error types for the Verscout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the orchestrator, strategies and CLI
//   - Machine-readable error codes for programmatic handling
//   - Transient-vs-permanent classification that drives retry policy
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Source reachable, no version information present
//   - SOURCE_*: Network-level failures (timeouts, 5xx, connection refused)
//   - CIRCUIT_OPEN: Breaker rejected the call before any network attempt
//   - INTERNAL_*: Unexpected internal errors
//
// # Classification
//
// Retry policy hinges on [Transient]: SOURCE_UNAVAILABLE, TIMEOUT and
// RATE_LIMITED errors are transient and may be retried; NOT_FOUND and
// PARSE_FAILURE are permanent and cause immediate fall-through to the next
// detection strategy.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "no release for %s", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Try the next strategy
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSourceUnavailable, origErr, "fetch %s", url)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidURL      Code = "INVALID_URL"
	ErrCodeInvalidVersion  Code = "INVALID_VERSION"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"

	// Detection errors
	ErrCodeNotFound     Code = "NOT_FOUND"     // source reachable, no version info (permanent)
	ErrCodeParseFailure Code = "PARSE_FAILURE" // response received but unparseable (permanent)
	ErrCodeExhausted    Code = "EXHAUSTED"     // every candidate strategy failed or was skipped

	// Network errors
	ErrCodeSourceUnavailable Code = "SOURCE_UNAVAILABLE" // network error, timeout, 5xx (transient)
	ErrCodeTimeout           Code = "TIMEOUT"
	ErrCodeRateLimited       Code = "RATE_LIMITED"

	// Breaker / admission errors
	ErrCodeCircuitOpen Code = "CIRCUIT_OPEN" // failure domain open, call rejected pre-network

	// Cache errors (never surfaced to detection callers; logged and bypassed)
	ErrCodeCacheUnavailable Code = "CACHE_UNAVAILABLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
	ErrCodeCanceled Code = "CANCELED"
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

// Transient reports whether err represents a failure that may succeed on
// retry. Permanent failures (NOT_FOUND, PARSE_FAILURE, validation errors)
// return false; unclassified errors are treated as permanent so that unknown
// failures never loop.
func Transient(err error) bool {
	switch GetCode(err) {
	case ErrCodeSourceUnavailable, ErrCodeTimeout, ErrCodeRateLimited:
		return true
	}
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
