// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ThreadNameID is the identifier firmware uses to announce a thread's
// display name. Its payload is the name itself; it never appears in a
// metadata table.
const ThreadNameID uint32 = 0xFFFFFF00

// Reserved identifier ranges. Zero is the placeholder for call sites
// compiled out of the firmware; the top 256 values are internal
// channels, starting with ThreadNameID.
const (
	reservedInternalFirst uint32 = 0xFFFFFF00
	reservedInternalLast  uint32 = 0xFFFFFFFF
)

// IsReserved reports whether id falls in a reserved range and may not
// be assigned to a call site.
func IsReserved(id uint32) bool {
	return id == 0 || (id >= reservedInternalFirst && id <= reservedInternalLast)
}

// Truncate returns the low 16 bits used by the micro wire format.
func Truncate(id uint32) uint16 {
	return uint16(id & 0xFFFF)
}

// Kind classifies a call site.
type Kind int

const (
	// Log emits a formatted message.
	Log Kind = iota + 1

	// Record stores a named value (optionally also logging a message).
	Record

	// Enter opens a named profiling region.
	Enter

	// Exit closes a named profiling region.
	Exit
)

var kindNames = map[Kind]string{
	Log:    "LOG",
	Record: "RECORD",
	Enter:  "ENTER",
	Exit:   "EXIT",
}

// String returns the upper-case name used in metadata files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for kind, kindName := range kindNames {
		if kindName == upper {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown metric kind %q", name)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid metric kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Definition describes one instrumented call site. Definitions are
// produced by the source scan and are read-only afterwards.
type Definition struct {
	// ID is the 32-bit identifier the firmware emits for this site.
	ID uint32 `json:"id"`

	Kind Kind `json:"type"`

	// SourceFile is relative to the first matching root path.
	SourceFile string `json:"source_file"`
	SourceLine int    `json:"source_line"`

	Level Severity `json:"level"`

	// Message is the log template; ${name} references are replaced
	// with the last recorded value of that name.
	Message string `json:"msg,omitempty"`

	// Name identifies a recorded value or a profiling region.
	Name string `json:"name,omitempty"`

	// ValueType is the type reference of a recorded value.
	ValueType string `json:"value_type,omitempty"`

	// IsArray marks a recorded value whose payload holds a variable
	// number of ValueType elements.
	IsArray bool `json:"is_array,omitempty"`
}

// Location returns "file:line".
func (d *Definition) Location() string {
	return d.SourceFile + ":" + strconv.Itoa(d.SourceLine)
}

// HasMessage reports whether the site produces a log line.
func (d *Definition) HasMessage() bool {
	return d.Kind == Log || (d.Kind == Record && d.Message != "")
}

// HexID formats an identifier the way decoders and tools print it.
func HexID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}

// UnmarshalJSON accepts identifiers as JSON numbers or as strings in
// any integer base, as older metadata files stored them quoted.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type plain Definition
	var wire struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*d = Definition(wire.plain)
	if len(wire.ID) == 0 {
		return fmt.Errorf("metric definition missing id")
	}
	id, err := parseWireID(wire.ID)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func parseWireID(raw json.RawMessage) (uint32, error) {
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	} else {
		text = string(raw)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(text), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("metric id %s: %w", raw, err)
	}
	return uint32(id), nil
}
