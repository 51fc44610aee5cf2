// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies errors raised before a command runs so the
// application can pick an exit code and decide whether to print help.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// a value that does not convert, a missing required parameter, an
	// unexpected positional argument.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates the named command does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryUsage indicates a malformed command line: unknown flags,
	// a flag missing its value, a flag given to the wrong command.
	CategoryUsage ErrorCategory = "usage"

	// CategoryInternal indicates a bug in the program's command
	// declarations or in the framework itself.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error. It wraps an inner error, preserving
// the full chain for errors.Is and errors.As while adding the category.
// Use the category-specific constructors rather than constructing
// ToolError directly.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category is not
// included in the string.
func (e *ToolError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode maps the category to a process exit code: caller mistakes
// exit with [ExitUsage], internal errors with [ExitFailure].
func (e *ToolError) ExitCode() int {
	if e.Category == CategoryInternal {
		return ExitFailure
	}
	return ExitUsage
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: the named command does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Usage creates a usage error: the command line is malformed.
func Usage(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryUsage, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure or bug.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
