// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"encoding/binary"
	"math"
	"unicode"
	"unicode/utf8"
)

// PlanKind identifies how a plan walks its bytes.
type PlanKind int

const (
	// KindScalar is a single numeric or boolean primitive.
	KindScalar PlanKind = iota

	// KindString is a run of Count bytes decoded as one string.
	KindString

	// KindPad is Count bytes that are skipped and produce no value.
	KindPad

	// KindStruct is an ordered list of fields.
	KindStruct

	// KindArray is Count repetitions of Elem.
	KindArray
)

// Plan is a resolved type layout. Plans are immutable and may be
// shared between goroutines.
type Plan struct {
	Kind PlanKind

	// Ref is the reference the plan was resolved from.
	Ref string

	// Code is the primitive letter for KindScalar and KindString.
	Code byte

	// Count is the byte length for KindString and KindPad, and the
	// element count for KindArray.
	Count int

	// Fields holds struct members (KindStruct).
	Fields []PlanField

	// Elem is the repeated element (KindArray).
	Elem *Plan

	// Size is the total byte width.
	Size int
}

// PlanField is one resolved struct member.
type PlanField struct {
	Name string
	Plan *Plan
}

func primitivePlan(ref string, code byte, count int) *Plan {
	width := primitiveSizes[code]
	switch code {
	case 's', 'c':
		return &Plan{Kind: KindString, Ref: ref, Code: code, Count: count, Size: count}
	case 'x':
		return &Plan{Kind: KindPad, Ref: ref, Code: code, Count: count, Size: count}
	}
	scalar := &Plan{Kind: KindScalar, Ref: ref, Code: code, Count: 1, Size: width}
	if count == 1 {
		return scalar
	}
	return &Plan{Kind: KindArray, Ref: ref, Count: count, Elem: scalar, Size: width * count}
}

// withRef returns a shallow copy carrying ref, so an alias reports the
// name it was asked for.
func (p *Plan) withRef(ref string) *Plan {
	copied := *p
	copied.Ref = ref
	return &copied
}

// Decode applies the plan to data, which must be exactly Size bytes.
// A plan consisting only of padding returns a nil Value.
func (p *Plan) Decode(data []byte) (Value, error) {
	if len(data) != p.Size {
		return nil, &SizeError{Ref: p.Ref, Want: p.Size, Have: len(data)}
	}
	value, _ := p.decodeAt(data, 0)
	return value, nil
}

// decodeAt decodes starting at offset and returns the value and the
// offset just past it. The caller guarantees enough bytes remain.
func (p *Plan) decodeAt(data []byte, offset int) (Value, int) {
	switch p.Kind {
	case KindPad:
		return nil, offset + p.Size

	case KindString:
		return decodeText(data[offset : offset+p.Size]), offset + p.Size

	case KindScalar:
		return decodeScalar(p.Code, data[offset:offset+p.Size]), offset + p.Size

	case KindStruct:
		fields := make(Struct, 0, len(p.Fields))
		for _, field := range p.Fields {
			var value Value
			value, offset = field.Plan.decodeAt(data, offset)
			if value != nil {
				fields = append(fields, Field{Name: field.Name, Value: value})
			}
		}
		return fields, offset

	case KindArray:
		elements := make(Array, 0, p.Count)
		for range p.Count {
			var value Value
			value, offset = p.Elem.decodeAt(data, offset)
			if value != nil {
				elements = append(elements, value)
			}
		}
		if len(elements) == 0 {
			return nil, offset
		}
		return elements, offset
	}
	return nil, offset
}

func decodeScalar(code byte, raw []byte) Value {
	switch code {
	case 'b':
		return Int(int8(raw[0]))
	case 'B':
		return Uint(raw[0])
	case '?':
		return Bool(raw[0] != 0)
	case 'h':
		return Int(int16(binary.LittleEndian.Uint16(raw)))
	case 'H':
		return Uint(binary.LittleEndian.Uint16(raw))
	case 'i', 'l':
		return Int(int32(binary.LittleEndian.Uint32(raw)))
	case 'I', 'L':
		return Uint(binary.LittleEndian.Uint32(raw))
	case 'q':
		return Int(int64(binary.LittleEndian.Uint64(raw)))
	case 'Q':
		return Uint(binary.LittleEndian.Uint64(raw))
	case 'f':
		return Float(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case 'd':
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(raw)))
	}
	return Bytes(append([]byte(nil), raw...))
}

// decodeText returns Text when raw, with trailing NULs removed, is
// valid UTF-8 made of printable runes. Anything else stays Bytes.
func decodeText(raw []byte) Value {
	trimmed := raw
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if utf8.Valid(trimmed) && isPrintable(trimmed) {
		return Text(trimmed)
	}
	return Bytes(append([]byte(nil), raw...))
}

func isPrintable(data []byte) bool {
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && r != '\t' {
			return false
		}
	}
	return true
}
