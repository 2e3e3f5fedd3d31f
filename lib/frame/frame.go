// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/minlog/lib/metric"
)

// Format describes how a frame's payload is encoded.
type Format int

const (
	// FormatBinary payloads are little-endian bytes laid out by the
	// definition's value type.
	FormatBinary Format = iota

	// FormatText payloads are the literal value text of a "$" line.
	FormatText

	// FormatNone frames carry no payload. The micro wire has no room
	// for values.
	FormatNone

	// FormatRaw frames are device output that is not an event: a text
	// line without the "$" prefix. Payload is the line without its
	// newline. ID and ThreadID are zero.
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatText:
		return "text"
	case FormatNone:
		return "none"
	case FormatRaw:
		return "raw"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Frame is one decoded event: the unit handed from a decoder to the
// dispatcher.
type Frame struct {
	// Timestamp is in seconds. Byte frames carry it absolutely; micro
	// frames accumulate it from deltas.
	Timestamp float64

	ID       uint32
	ThreadID uint8

	// Payload is owned by the frame. Decoders never alias their
	// internal buffers.
	Payload []byte

	Format Format
}

// StreamDecoder turns arbitrary chunks of a capture into frames. Feed
// may be called with chunks of any size, including empty ones. Flush
// returns whatever a decoder can still emit at end of stream. Buffered
// reports how many bytes are held waiting for more input.
//
// Decoders are not safe for concurrent use.
type StreamDecoder interface {
	Feed(chunk []byte) []Frame
	Flush() []Frame
	Buffered() int
}

// WireFormat names one of the capture encodings.
type WireFormat string

const (
	WireBinary WireFormat = "binary"
	WireMicro  WireFormat = "micro"
	WireText   WireFormat = "text"
)

// ParseWireFormat validates a format name (case-insensitive).
func ParseWireFormat(name string) (WireFormat, error) {
	switch format := WireFormat(strings.ToLower(strings.TrimSpace(name))); format {
	case WireBinary, WireMicro, WireText:
		return format, nil
	default:
		return "", fmt.Errorf("unknown wire format %q (want binary, micro or text)", name)
	}
}

// NewStreamDecoder returns the decoder for format. The micro decoder
// needs table to know which truncated IDs exist; the other formats
// ignore it. logger receives text-format parse warnings.
func NewStreamDecoder(format WireFormat, table *metric.Table, logger *slog.Logger) (StreamDecoder, error) {
	switch format {
	case WireBinary:
		return NewDecoder(), nil
	case WireMicro:
		if table == nil {
			return nil, fmt.Errorf("micro decoding needs a metadata table")
		}
		return NewMicroDecoder(table), nil
	case WireText:
		return NewTextDecoder(logger), nil
	default:
		return nil, fmt.Errorf("unknown wire format %q", format)
	}
}

// nanosecondsToSeconds converts without losing integer-second
// precision for large timestamps.
func nanosecondsToSeconds(nanoseconds uint64) float64 {
	return float64(nanoseconds/1e9) + float64(nanoseconds%1e9)/1e9
}
