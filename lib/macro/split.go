// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import "strings"

// SplitArguments splits the text between a macro's parentheses on
// commas outside double-quoted strings. A quote preceded by a backslash
// does not open or close a string. Each argument is trimmed.
//
// Parentheses and brackets are not tracked, so an argument such as
// f(a, b) splits at its inner comma. Empty input yields one empty
// argument.
func SplitArguments(text string) []string {
	var arguments []string
	var current strings.Builder
	quoted := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"' && (i == 0 || text[i-1] != '\\'):
			quoted = !quoted
			current.WriteByte(c)
		case c == ',' && !quoted:
			arguments = append(arguments, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(arguments, strings.TrimSpace(current.String()))
}
