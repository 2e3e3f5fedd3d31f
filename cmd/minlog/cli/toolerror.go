// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so main can pick an exit
// code and scripts can tell bad input from broken data.
type ErrorCategory string

const (
	// CategoryValidation indicates invalid input: unknown flags, wrong
	// argument count, unparseable values, an invalid config file.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a named file (capture, metadata, type
	// dictionary, firmware image) does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal indicates everything else: I/O failures, corrupt
	// metadata, sink write errors.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// the underlying error, so errors.Is and errors.As see through it.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

// Error returns the underlying error message without the category.
func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
