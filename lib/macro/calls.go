// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import "fmt"

// Prefix starts every recognized macro name.
const Prefix = "MIN_LOGGER_"

// Call is one MIN_LOGGER_* invocation found in source text.
type Call struct {
	// Name is the macro name without Prefix, e.g. "LOG_ID".
	Name string

	// Arguments is the raw text between the outer parentheses.
	Arguments string

	// Line is the 1-based line of the macro name.
	Line int
}

// FindCalls returns every MIN_LOGGER_* invocation in text, in source
// order. Invocations may span lines. Comments, string and character
// literals, and preprocessor directives are skipped, so macro
// definitions in headers and mentions in comments are not reported.
// An invocation whose closing parenthesis is missing is an error.
func FindCalls(text string) ([]Call, error) {
	var calls []Call
	line := 1
	lineStart := true

	for i := 0; i < len(text); {
		c := text[i]

		switch {
		case c == '\n':
			line++
			lineStart = true
			i++
			continue

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue

		case c == '#' && lineStart:
			i, line = skipDirective(text, i, line)
			continue

		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			i = skipLineComment(text, i)
			continue

		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			i, line = skipBlockComment(text, i, line)
			lineStart = false
			continue

		case c == '"' || c == '\'':
			i, line = skipQuoted(text, i, line)
			lineStart = false
			continue
		}

		lineStart = false

		if !isIdentifierStart(c) {
			i++
			continue
		}

		start := i
		for i < len(text) && isIdentifierPart(text[i]) {
			i++
		}
		identifier := text[start:i]
		if len(identifier) <= len(Prefix) || identifier[:len(Prefix)] != Prefix {
			continue
		}

		open, openLine := skipSpace(text, i, line)
		if open >= len(text) || text[open] != '(' {
			continue
		}

		closing, closingLine, ok := matchParen(text, open, openLine)
		if !ok {
			return nil, fmt.Errorf("line %d: %s has no closing parenthesis", line, identifier)
		}
		calls = append(calls, Call{
			Name:      identifier[len(Prefix):],
			Arguments: text[open+1 : closing],
			Line:      line,
		})
		i = closing + 1
		line = closingLine
	}
	return calls, nil
}

func isIdentifierStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierPart(c byte) bool {
	return isIdentifierStart(c) || (c >= '0' && c <= '9')
}

// skipSpace advances over whitespace and comments.
func skipSpace(text string, i, line int) (int, int) {
	for i < len(text) {
		switch {
		case text[i] == '\n':
			line++
			i++
		case text[i] == ' ' || text[i] == '\t' || text[i] == '\r':
			i++
		case text[i] == '/' && i+1 < len(text) && text[i+1] == '*':
			i, line = skipBlockComment(text, i, line)
		case text[i] == '/' && i+1 < len(text) && text[i+1] == '/':
			i = skipLineComment(text, i)
		default:
			return i, line
		}
	}
	return i, line
}

// matchParen returns the index of the parenthesis closing the one at
// open, counting nesting outside literals and comments.
func matchParen(text string, open, line int) (int, int, bool) {
	depth := 0
	for i := open; i < len(text); {
		switch c := text[i]; {
		case c == '\n':
			line++
			i++
		case c == '"' || c == '\'':
			i, line = skipQuoted(text, i, line)
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			i = skipLineComment(text, i)
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			i, line = skipBlockComment(text, i, line)
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			if depth == 0 {
				return i, line, true
			}
			i++
		default:
			i++
		}
	}
	return 0, line, false
}

// skipQuoted advances past a string or character literal starting at
// i. An unterminated literal ends at the end of its line.
func skipQuoted(text string, i, line int) (int, int) {
	quote := text[i]
	i++
	for i < len(text) {
		switch text[i] {
		case '\\':
			if i+1 < len(text) && text[i+1] == '\n' {
				line++
			}
			i += 2
		case quote:
			return i + 1, line
		case '\n':
			return i, line
		default:
			i++
		}
	}
	return i, line
}

// skipLineComment returns the index of the newline ending the comment.
func skipLineComment(text string, i int) int {
	for i < len(text) && text[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(text string, i, line int) (int, int) {
	i += 2
	for i < len(text) {
		if text[i] == '\n' {
			line++
		}
		if text[i] == '*' && i+1 < len(text) && text[i+1] == '/' {
			return i + 2, line
		}
		i++
	}
	return i, line
}

// skipDirective advances past a preprocessor line, following
// backslash continuations. Returns the index of the final newline.
func skipDirective(text string, i, line int) (int, int) {
	for i < len(text) {
		switch {
		case text[i] == '\\' && i+1 < len(text) && text[i+1] == '\n':
			line++
			i += 2
		case text[i] == '\\' && i+2 < len(text) && text[i+1] == '\r' && text[i+2] == '\n':
			line++
			i += 3
		case text[i] == '\n':
			return i, line
		case text[i] == '/' && i+1 < len(text) && text[i+1] == '*':
			i, line = skipBlockComment(text, i, line)
		default:
			i++
		}
	}
	return i, line
}
