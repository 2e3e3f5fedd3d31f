// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have written its own
// output already, as "validate-types" does before exiting 1 on a size
// mismatch.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCodeOf returns the exit code main should use for err: 0 for nil,
// the requested code for errors carrying one, 2 for validation errors
// (bad usage), and 1 otherwise. silent reports whether the error was
// already reported by the command.
func ExitCodeOf(err error) (code int, silent bool) {
	if err == nil {
		return 0, true
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode(), true
	}
	var toolError *ToolError
	if errors.As(err, &toolError) && toolError.Category == CategoryValidation {
		return 2, false
	}
	return 1, false
}
