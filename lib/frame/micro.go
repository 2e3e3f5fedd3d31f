// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bureau-foundation/minlog/lib/metric"
)

// MicroFrameSize is the size of one micro frame: truncated id(2)
// followed by the bitfield(2).
const MicroFrameSize = 4

// Bitfield layout of a micro frame's second half.
const (
	microThreadBits = 4
	microScaleBits  = 2
	microValueBits  = 10

	microScaleShift = microThreadBits
	microValueShift = microThreadBits + microScaleBits

	// MaxMicroThread, MaxMicroScale and MaxMicroValue bound the fields
	// an encoder may set.
	MaxMicroThread = 1<<microThreadBits - 1
	MaxMicroScale  = 1<<microScaleBits - 1
	MaxMicroValue  = 1<<microValueBits - 1
)

// MicroDecoder extracts micro frames. The wire has no sync marker, so
// the decoder slides one byte at a time until two bytes match a known
// truncated ID. Timestamps are a running sum of the per-frame deltas.
type MicroDecoder struct {
	ids       map[uint16]uint32
	buffer    []byte
	timestamp float64
}

// NewMicroDecoder builds the truncated-ID table from table. When two
// IDs truncate to the same 16 bits, the later entry wins. The
// thread-name ID is registered before every entry.
func NewMicroDecoder(table *metric.Table) *MicroDecoder {
	ids := make(map[uint16]uint32, table.Len()+1)
	ids[metric.Truncate(metric.ThreadNameID)] = metric.ThreadNameID
	for _, definition := range table.Entries() {
		ids[metric.Truncate(definition.ID)] = definition.ID
	}
	return &MicroDecoder{ids: ids}
}

// Feed appends chunk and returns every frame that is now complete.
func (d *MicroDecoder) Feed(chunk []byte) []Frame {
	d.buffer = append(d.buffer, chunk...)

	var frames []Frame
	position := 0
	for len(d.buffer)-position >= 2 {
		id, known := d.ids[binary.LittleEndian.Uint16(d.buffer[position:])]
		if !known {
			position++
			continue
		}
		if len(d.buffer)-position < MicroFrameSize {
			break
		}

		bits := binary.LittleEndian.Uint16(d.buffer[position+2:])
		thread := uint8(bits & MaxMicroThread)
		scale := int(bits>>microScaleShift) & MaxMicroScale
		value := int(bits>>microValueShift) & MaxMicroValue
		d.timestamp += float64(value) * 1e-9 * math.Pow(1000, float64(scale))

		frames = append(frames, Frame{
			Timestamp: d.timestamp,
			ID:        id,
			ThreadID:  thread,
			Format:    FormatNone,
		})
		position += MicroFrameSize
	}

	remaining := copy(d.buffer, d.buffer[position:])
	d.buffer = d.buffer[:remaining]
	return frames
}

// Flush returns nothing: a partial micro frame can never complete.
func (d *MicroDecoder) Flush() []Frame {
	return nil
}

// Buffered returns the number of bytes waiting for more input.
func (d *MicroDecoder) Buffered() int {
	return len(d.buffer)
}

// Timestamp returns the running session time in seconds.
func (d *MicroDecoder) Timestamp() float64 {
	return d.timestamp
}

// AppendMicroFrame encodes one micro frame onto dst. The delta it
// describes is value × 1000^scale nanoseconds.
func AppendMicroFrame(dst []byte, id uint32, thread uint8, scale uint8, value uint16) ([]byte, error) {
	if thread > MaxMicroThread {
		return dst, fmt.Errorf("micro thread %d exceeds %d", thread, MaxMicroThread)
	}
	if scale > MaxMicroScale {
		return dst, fmt.Errorf("micro time scale %d exceeds %d", scale, MaxMicroScale)
	}
	if value > MaxMicroValue {
		return dst, fmt.Errorf("micro time value %d exceeds %d", value, MaxMicroValue)
	}
	bits := uint16(thread) | uint16(scale)<<microScaleShift | value<<microValueShift
	dst = binary.LittleEndian.AppendUint16(dst, metric.Truncate(id))
	return binary.LittleEndian.AppendUint16(dst, bits), nil
}
