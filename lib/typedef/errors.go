// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"fmt"
	"strings"
)

// CycleError reports a type that refers back to itself. Chain lists
// the base names from the outermost type to the repeated one, so the
// first and last entries are equal.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "circular type reference: " + strings.Join(e.Chain, " -> ")
}

// UnknownTypeError reports a base name found in neither the primitive
// codes, the dictionary, nor the fixed-width C names.
type UnknownTypeError struct {
	Name string

	// ArchitectureDependent is set for names like "int" or "size_t"
	// whose width must be declared in the dictionary.
	ArchitectureDependent bool
}

func (e *UnknownTypeError) Error() string {
	if e.ArchitectureDependent {
		return fmt.Sprintf("architecture-dependent type %q: define it in the type dictionary", e.Name)
	}
	return fmt.Sprintf("unknown type %q: define it in the type dictionary", e.Name)
}

// SizeError reports a payload whose length differs from the plan's
// byte size.
type SizeError struct {
	Ref  string
	Want int
	Have int
}

func (e *SizeError) Error() string {
	if e.Have < e.Want {
		return fmt.Sprintf("decoding %q: payload is %d bytes, type needs %d", e.Ref, e.Have, e.Want)
	}
	return fmt.Sprintf("decoding %q: payload is %d bytes, type is %d bytes (%d left over)",
		e.Ref, e.Have, e.Want, e.Have-e.Want)
}
