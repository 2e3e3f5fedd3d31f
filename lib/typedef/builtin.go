// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

// primitiveSizes gives the little-endian width of every primitive
// letter code. "l" and "L" use the standard 4-byte width regardless of
// the host platform.
var primitiveSizes = map[byte]int{
	'x': 1,
	'c': 1,
	'?': 1,
	'b': 1,
	'B': 1,
	'h': 2,
	'H': 2,
	'i': 4,
	'I': 4,
	'l': 4,
	'L': 4,
	'q': 8,
	'Q': 8,
	'f': 4,
	'd': 8,
	's': 1,
}

// builtinTypes maps fixed-width C and stdint names to primitive codes.
// Consulted only after the dictionary, so a project can override any of
// these (for example an AVR target where double is 4 bytes).
var builtinTypes = map[string]byte{
	"int8_t":  'b',
	"int16_t": 'h',
	"int32_t": 'i',
	"int64_t": 'q',

	"uint8_t":  'B',
	"uint16_t": 'H',
	"uint32_t": 'I',
	"uint64_t": 'Q',

	"int_least8_t":   'b',
	"int_least16_t":  'h',
	"int_least32_t":  'i',
	"int_least64_t":  'q',
	"uint_least8_t":  'B',
	"uint_least16_t": 'H',
	"uint_least32_t": 'I',
	"uint_least64_t": 'Q',

	"intmax_t":  'q',
	"uintmax_t": 'Q',

	"char":          'b',
	"signed char":   'b',
	"short":         'h',
	"short int":     'h',
	"long long":     'q',
	"long long int": 'q',

	"unsigned char":          'B',
	"unsigned short":         'H',
	"unsigned short int":     'H',
	"unsigned long long":     'Q',
	"unsigned long long int": 'Q',

	"float":       'f',
	"double":      'd',
	"long double": 'd',

	"bool": '?',
}

// architectureTypes have widths that depend on the target data model
// (ILP32 vs LP64). They must be declared in the dictionary.
var architectureTypes = map[string]bool{
	"int":               true,
	"long":              true,
	"long int":          true,
	"unsigned int":      true,
	"unsigned long":     true,
	"unsigned long int": true,
	"size_t":            true,
	"ssize_t":           true,
	"ptrdiff_t":         true,
}

// primitiveCode returns the code for a single-letter primitive name.
func primitiveCode(name string) (byte, bool) {
	if len(name) != 1 {
		return 0, false
	}
	_, ok := primitiveSizes[name[0]]
	return name[0], ok
}

// IsBuiltin reports whether name resolves without a dictionary entry:
// a primitive letter code or a fixed-width C type.
func IsBuiltin(name string) bool {
	if _, ok := primitiveCode(name); ok {
		return true
	}
	_, ok := builtinTypes[name]
	return ok
}
