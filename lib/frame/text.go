// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// EventPrefix marks a text line as an event rather than device output.
const EventPrefix = '$'

// TextDecoder splits a UART-style text capture into lines. Lines of
// the form "$<seconds>,<hex id>,<hex thread>[,value]" become text
// frames. Event lines with fewer than three fields are dropped; other
// event lines that do not parse, and everything else, pass through as
// raw frames.
type TextDecoder struct {
	logger  *slog.Logger
	partial []byte
}

// NewTextDecoder returns a text decoder. Malformed event lines are
// reported to logger; nil discards the warnings.
func NewTextDecoder(logger *slog.Logger) *TextDecoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TextDecoder{logger: logger}
}

// Feed appends chunk and returns a frame for every completed line.
func (d *TextDecoder) Feed(chunk []byte) []Frame {
	d.partial = append(d.partial, chunk...)

	var frames []Frame
	start := 0
	for {
		newline := bytes.IndexByte(d.partial[start:], '\n')
		if newline < 0 {
			break
		}
		if frame, ok := d.parseLine(string(d.partial[start : start+newline])); ok {
			frames = append(frames, frame)
		}
		start += newline + 1
	}

	remaining := copy(d.partial, d.partial[start:])
	d.partial = d.partial[:remaining]
	return frames
}

// Flush emits the final line when the capture does not end in a
// newline.
func (d *TextDecoder) Flush() []Frame {
	if len(d.partial) == 0 {
		return nil
	}
	line := string(d.partial)
	d.partial = d.partial[:0]
	if frame, ok := d.parseLine(line); ok {
		return []Frame{frame}
	}
	return nil
}

// Buffered returns the length of the incomplete trailing line.
func (d *TextDecoder) Buffered() int {
	return len(d.partial)
}

// ErrShortEvent reports an event line with fewer than three fields.
var ErrShortEvent = errors.New("event line has fewer than 3 fields")

// parseLine returns false for lines that are dropped.
func (d *TextDecoder) parseLine(line string) (Frame, bool) {
	if len(line) > 0 && line[0] == EventPrefix {
		frame, err := ParseTextEvent(line)
		if err == nil {
			return frame, true
		}
		if errors.Is(err, ErrShortEvent) {
			d.logger.Debug("short text event dropped", "line", line)
			return Frame{}, false
		}
		d.logger.Warn("malformed text event", "line", line, "error", err)
	}
	return Frame{Payload: []byte(line), Format: FormatRaw}, true
}

// ParseTextEvent parses one "$" line. Leading and trailing whitespace
// is ignored. The value is everything after the third comma, commas
// included.
func ParseTextEvent(line string) (Frame, error) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != EventPrefix {
		return Frame{}, fmt.Errorf("event line must start with %q", EventPrefix)
	}
	fields := strings.SplitN(trimmed[1:], ",", 4)
	if len(fields) < 3 {
		return Frame{}, fmt.Errorf("%w: got %d", ErrShortEvent, len(fields))
	}

	timestamp, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Frame{}, fmt.Errorf("timestamp: %w", err)
	}
	id, err := strconv.ParseUint(trimHexPrefix(fields[1]), 16, 32)
	if err != nil {
		return Frame{}, fmt.Errorf("metric id: %w", err)
	}
	thread, err := strconv.ParseUint(trimHexPrefix(fields[2]), 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("thread id: %w", err)
	}

	var value []byte
	if len(fields) == 4 {
		value = []byte(fields[3])
	}
	return Frame{
		Timestamp: timestamp,
		ID:        uint32(id),
		ThreadID:  uint8(thread),
		Payload:   value,
		Format:    FormatText,
	}, nil
}

func trimHexPrefix(field string) string {
	field = strings.TrimSpace(field)
	if len(field) > 2 && field[0] == '0' && (field[1] == 'x' || field[1] == 'X') {
		return field[2:]
	}
	return field
}

// FormatTextEvent renders the "$" line for an event, without a
// trailing newline.
func FormatTextEvent(timestamp float64, id uint32, thread uint8, value string) string {
	line := fmt.Sprintf("$%.6f,%x,%x", timestamp, id, thread)
	if value != "" {
		line += "," + value
	}
	return line
}
