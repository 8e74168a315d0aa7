// Package errors provides structured error types for the Jargo build tool.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across all commands
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages with a structured context block
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - MANIFEST_*: Jargo.toml problems
//   - LOCK_*: Jargo.lock problems
//   - NETWORK_ERROR, *_NOT_FOUND, CHECKSUM_MISMATCH: registry and cache failures
//   - RESOLUTION_*, UNRESOLVED_*: dependency graph failures
//   - STAGING_*, COMPILE_*, RUN_*, TEST_*, FORMAT_*: build and tool failures
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeManifestField, "missing required field `java`")
//	if errors.Is(err, errors.ErrCodeManifestField) {
//	    // Handle manifest error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Manifest errors
	ErrCodeManifestNotFound Code = "MANIFEST_NOT_FOUND"
	ErrCodeManifestParse    Code = "MANIFEST_PARSE"
	ErrCodeManifestField    Code = "MANIFEST_FIELD"
	ErrCodeInvalidName      Code = "INVALID_PROJECT_NAME"

	// Lock file errors
	ErrCodeLockParse Code = "LOCK_PARSE"

	// Registry and cache errors
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeArtifactNotFound Code = "ARTIFACT_NOT_FOUND"
	ErrCodeParentNotFound   Code = "PARENT_NOT_FOUND"
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"

	// Resolution errors
	ErrCodeUnresolvedVersion Code = "UNRESOLVED_VERSION"
	ErrCodeResolution        Code = "RESOLUTION_ERROR"

	// Build and tool errors
	ErrCodeStaging Code = "STAGING_FAILED"
	ErrCodeCompile Code = "COMPILE_FAILED"
	ErrCodeRun     Code = "RUN_FAILED"
	ErrCodeTest    Code = "TEST_HARNESS_FAILED"
	ErrCodeFormat  Code = "FORMAT_FAILED"

	// Environment errors
	ErrCodeToolNotFound  Code = "TOOL_NOT_FOUND"
	ErrCodeProjectExists Code = "PROJECT_EXISTS"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Process exit codes reported by the jargo binary.
const (
	ExitOK       = 0   // success
	ExitUser     = 1   // user error: bad manifest, resolution or compile failure
	ExitInternal = 2   // unexpected filesystem or internal state
	ExitPanic    = 101 // recovered panic
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable single-line summary
	Cause   error  // Underlying error (optional)

	// Context holds extra lines printed under the summary, such as the
	// dependency chain for resolver errors or a rewritten compiler
	// diagnostic excerpt.
	Context []string
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

// WithContext returns e with the given context lines appended.
func (e *Error) WithContext(lines ...string) *Error {
	e.Context = append(e.Context, lines...)
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

// GetContext extracts the structured context lines from an error.
// Returns nil if the error is not an *Error or carries no context.
func GetContext(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Context
	}
	return nil
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

// ExitCode maps an error to the process exit code jargo should report:
// nil to ExitOK, INTERNAL_ERROR to ExitInternal, everything else to ExitUser.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if GetCode(err) == ErrCodeInternal {
		return ExitInternal
	}
	return ExitUser
}
