// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import (
	"fmt"

	"github.com/bureau-foundation/minlog/lib/metric"
)

// ParseError is a malformed call site. Line is zero for errors that
// concern the whole file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateIDError reports two call sites that resolved to the same
// identifier.
type DuplicateIDError struct {
	ID     uint32
	First  string
	Second string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate ID %s: %s and %s", metric.HexID(e.ID), e.First, e.Second)
}
