// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity is a numeric log level. Larger is more severe. Values
// between the named levels are legal and label as the next level up.
type Severity int

const (
	Debug    Severity = 10
	Info     Severity = 20
	Warn     Severity = 30
	Error    Severity = 40
	Critical Severity = 50
)

// severityNames is ordered: ParseSeverity takes the first name that
// appears anywhere in the argument text.
var severityNames = []struct {
	name  string
	level Severity
}{
	{"DEBUG", Debug},
	{"INFO", Info},
	{"WARN", Warn},
	{"ERROR", Error},
	{"CRITICAL", Critical},
}

// ParseSeverity resolves a macro severity argument. Any argument that
// contains a level name (MIN_LOGGER_WARN, WARNING, "WARN") maps to that
// level; otherwise the argument must be an integer literal.
func ParseSeverity(text string) (Severity, error) {
	for _, entry := range severityNames {
		if strings.Contains(text, entry.name) {
			return entry.level, nil
		}
	}
	level, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("could not parse severity level %q", text)
	}
	return Severity(level), nil
}

// Label returns the display name: the lowest named level at or above s.
func (s Severity) Label() string {
	switch {
	case s <= Debug:
		return "DEBUG"
	case s <= Info:
		return "INFO"
	case s <= Warn:
		return "WARN"
	case s <= Error:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

// String returns the label.
func (s Severity) String() string {
	return s.Label()
}

// ParseLevelFilter parses a user-supplied minimum level: a level name
// (case-insensitive) or an integer.
func ParseLevelFilter(text string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, entry := range severityNames {
		if upper == entry.name {
			return entry.level, nil
		}
	}
	level, err := strconv.Atoi(upper)
	if err != nil {
		return 0, fmt.Errorf("invalid severity %q: want DEBUG, INFO, WARN, ERROR, CRITICAL or a number", text)
	}
	return Severity(level), nil
}
