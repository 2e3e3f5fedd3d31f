// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/minlog/lib/dispatch"
)

// ColorMode selects when the console colors severity labels.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(value)); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", value)
	}
}

// UseColor resolves mode for w: auto colors only when w is a terminal.
func UseColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// labelColors are ANSI palette indexes per severity label.
var labelColors = map[string]lipgloss.Color{
	"DEBUG":    lipgloss.Color("8"),
	"INFO":     lipgloss.Color("6"),
	"WARN":     lipgloss.Color("3"),
	"ERROR":    lipgloss.Color("1"),
	"CRITICAL": lipgloss.Color("9"),
}

// Console prints log events as
//
//	<seconds> <LABEL> <file>:<line> <thread>] <message>
//
// and raw device lines verbatim. Other events are ignored.
type Console struct {
	writer *bufio.Writer
	color  bool
	styles map[string]lipgloss.Style
}

// NewConsole returns a console sink writing to w. With color, severity
// labels are rendered in ANSI colors; device-supplied escape sequences
// are stripped either way so they cannot corrupt the display.
func NewConsole(w io.Writer, color bool) *Console {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	styles := make(map[string]lipgloss.Style, len(labelColors))
	for label, foreground := range labelColors {
		style := renderer.NewStyle().Foreground(foreground)
		if label == "ERROR" || label == "CRITICAL" {
			style = style.Bold(true)
		}
		styles[label] = style
	}
	return &Console{writer: bufio.NewWriter(w), color: color, styles: styles}
}

// Handle prints log and raw events. Output is flushed after every
// event so followed captures appear as they arrive.
func (c *Console) Handle(event dispatch.Event) error {
	switch event.Kind {
	case dispatch.EventLog:
		fmt.Fprintf(c.writer, "%.6f %s %s:%d %s] %s\n",
			event.Timestamp,
			c.label(event.Label()),
			event.SourceFile,
			event.SourceLine,
			ansi.Strip(event.Thread),
			ansi.Strip(event.Message),
		)
	case dispatch.EventRaw:
		c.writer.WriteString(ansi.Strip(event.Message))
		c.writer.WriteByte('\n')
	default:
		return nil
	}
	return c.writer.Flush()
}

func (c *Console) label(label string) string {
	padded := fmt.Sprintf("%-5s", label)
	style, ok := c.styles[label]
	if !c.color || !ok {
		return padded
	}
	return style.Render(padded)
}

// Close flushes buffered output. The writer is not closed.
func (c *Console) Close() error {
	return c.writer.Flush()
}
