// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger creates the operational logger for a command. When
// w is a terminal it uses slog.TextHandler for human-readable output;
// when piped or redirected (CI, scripts) it uses slog.JSONHandler so
// the output stays machine-parseable.
//
// Decoded firmware output never goes through this logger: it goes to
// the console sink on stdout.
func NewCommandLogger(w io.Writer, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// LoggingParams adds --log-level to a command's params.
type LoggingParams struct {
	LogLevel string `flag:"log-level" desc:"operational log level" default:"warn" enum:"debug,info,warn,error"`
}

// Level returns the parsed --log-level.
func (p *LoggingParams) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(p.LogLevel))); err != nil {
		return 0, Validation("invalid --log-level %q: %w", p.LogLevel, err)
	}
	return level, nil
}

// Logger builds the command logger at the requested level.
func (p *LoggingParams) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := p.Level()
	if err != nil {
		return nil, err
	}
	return NewCommandLogger(w, level), nil
}

