// Package errors provides structured error types for the branchline engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map the engine's error taxonomy:
//   - INVALID_*: Input validation failures, rejected before any store mutation
//   - *_NOT_FOUND: Referential failures (missing branch, commit, playbook)
//   - CONCURRENT_MODIFICATION: A lost compare-and-swap on a branch head;
//     callers must re-read state and recompute, not blindly retry
//   - PROTECTED_BRANCH, NON_FAST_FORWARD: Policy rejections
//   - NO_CHANGES: A commit whose graph is identical to the branch head
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidBranchName, "invalid branch name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidBranchName) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "load commit %s", id)
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
	ErrCodeInvalidBranchName Code = "INVALID_BRANCH_NAME"
	ErrCodeInvalidGraph      Code = "INVALID_GRAPH"
	ErrCodeInvalidCommit     Code = "INVALID_COMMIT"
	ErrCodeInvalidResolution Code = "INVALID_RESOLUTION"

	// Referential errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeBranchNotFound Code = "BRANCH_NOT_FOUND"
	ErrCodeCommitNotFound Code = "COMMIT_NOT_FOUND"

	// Uniqueness errors
	ErrCodeBranchExists Code = "BRANCH_EXISTS"

	// Concurrency errors
	ErrCodeConcurrentModification Code = "CONCURRENT_MODIFICATION"

	// Policy errors
	ErrCodeProtectedBranch Code = "PROTECTED_BRANCH"
	ErrCodeNonFastForward  Code = "NON_FAST_FORWARD"

	// Merge errors
	ErrCodeUnrelatedHistories Code = "UNRELATED_HISTORIES"

	// Commit outcome errors
	ErrCodeNoChanges Code = "NO_CHANGES"

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
