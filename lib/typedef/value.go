// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Value is a decoded payload. The concrete types are [Int], [Uint],
// [Float], [Bool], [Text], [Bytes], [Array], and [Struct].
//
// String renders the value for message substitution: numbers in
// decimal, floats with at least one fractional digit, text verbatim,
// bytes as 0x-prefixed hex, and containers in brackets or braces.
// Native converts to plain Go values (int64, uint64, float64, bool,
// string, []byte, []any, map[string]any) for serializers.
type Value interface {
	String() string
	Native() any
	isValue()
}

// Int is a signed integer primitive.
type Int int64

// Uint is an unsigned integer primitive.
type Uint uint64

// Float is a float32 or float64 primitive, widened to float64.
type Float float64

// Bool is a one-byte boolean primitive.
type Bool bool

// Text is a string span that decoded as printable UTF-8.
type Text string

// Bytes is a string span that was not printable UTF-8, or raw bytes.
type Bytes []byte

// Array is a sequence of element values.
type Array []Value

// Struct is an ordered list of named field values.
type Struct []Field

// Field is one struct member value.
type Field struct {
	Name  string
	Value Value
}

func (Int) isValue()    {}
func (Uint) isValue()   {}
func (Float) isValue()  {}
func (Bool) isValue()   {}
func (Text) isValue()   {}
func (Bytes) isValue()  {}
func (Array) isValue()  {}
func (Struct) isValue() {}

func (v Int) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Uint) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Text) String() string { return string(v) }

func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v Bytes) String() string {
	return "0x" + hex.EncodeToString(v)
}

// String formats like a decimal literal: 1.0, 0.25, 1e+16, nan.
func (v Float) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	magnitude := math.Abs(f)
	if magnitude != 0 && (magnitude >= 1e16 || magnitude < 1e-4) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	formatted := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(formatted, '.') {
		formatted += ".0"
	}
	return formatted
}

func (v Array) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	for i, element := range v {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(nestedString(element))
	}
	builder.WriteByte(']')
	return builder.String()
}

func (v Struct) String() string {
	var builder strings.Builder
	builder.WriteByte('{')
	for i, field := range v {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(field.Name)
		builder.WriteString(": ")
		builder.WriteString(nestedString(field.Value))
	}
	builder.WriteByte('}')
	return builder.String()
}

// nestedString quotes text inside containers so element boundaries
// stay unambiguous.
func nestedString(v Value) string {
	if text, ok := v.(Text); ok {
		return strconv.Quote(string(text))
	}
	return v.String()
}

func (v Int) Native() any   { return int64(v) }
func (v Uint) Native() any  { return uint64(v) }
func (v Float) Native() any { return float64(v) }
func (v Bool) Native() any  { return bool(v) }
func (v Text) Native() any  { return string(v) }
func (v Bytes) Native() any { return []byte(v) }

func (v Array) Native() any {
	elements := make([]any, len(v))
	for i, element := range v {
		elements[i] = element.Native()
	}
	return elements
}

func (v Struct) Native() any {
	fields := make(map[string]any, len(v))
	for _, field := range v {
		fields[field.Name] = field.Value.Native()
	}
	return fields
}

// Get returns the value of the named field.
func (v Struct) Get(name string) (Value, bool) {
	for _, field := range v {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Number returns v as a float64 when it is a numeric or boolean
// scalar.
func Number(v Value) (float64, bool) {
	switch typed := v.(type) {
	case Int:
		return float64(typed), true
	case Uint:
		return float64(typed), true
	case Float:
		return float64(typed), true
	case Bool:
		if typed {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Flatten expands v into (column, value) pairs: struct fields become
// dotted names and array elements become bracketed indexes. Scalars
// flatten to a single pair whose column is prefix.
func Flatten(prefix string, v Value) []FlatColumn {
	var columns []FlatColumn
	flattenInto(&columns, prefix, v)
	return columns
}

// FlatColumn is one leaf of a flattened value.
type FlatColumn struct {
	Column string
	Value  Value
}

func flattenInto(columns *[]FlatColumn, prefix string, v Value) {
	switch typed := v.(type) {
	case Array:
		for i, element := range typed {
			flattenInto(columns, prefix+"["+strconv.Itoa(i)+"]", element)
		}
	case Struct:
		for _, field := range typed {
			name := field.Name
			if prefix != "" {
				name = prefix + "." + field.Name
			}
			flattenInto(columns, name, field.Value)
		}
	default:
		*columns = append(*columns, FlatColumn{Column: prefix, Value: v})
	}
}
