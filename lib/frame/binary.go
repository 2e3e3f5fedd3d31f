// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Sync is the two-byte marker that starts every byte frame (0xFAAF
// little-endian).
var Sync = []byte{0xAF, 0xFA}

// HeaderSize is the frame header length including the sync marker:
// sync(2) payload_len(1) thread(1) id(4) timestamp_ns(8).
const HeaderSize = 16

// MaxPayload is the largest payload a one-byte length can describe.
const MaxPayload = 255

// Decoder extracts byte frames from a stream, resynchronizing on the
// sync marker. Anything between frames is dropped.
type Decoder struct {
	buffer []byte
}

// NewDecoder returns an empty byte-frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk and returns every frame that is now complete.
// When no marker is buffered, only the final byte is kept in case it
// is the first half of a marker split across chunks.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buffer = append(d.buffer, chunk...)

	var frames []Frame
	start := 0
	for {
		index := bytes.Index(d.buffer[start:], Sync)
		if index < 0 {
			if keep := len(Sync) - 1; len(d.buffer)-start > keep {
				start = len(d.buffer) - keep
			}
			break
		}
		start += index

		remaining := d.buffer[start:]
		if len(remaining) < HeaderSize {
			break
		}
		payloadLength := int(remaining[2])
		if len(remaining) < HeaderSize+payloadLength {
			break
		}

		payload := make([]byte, payloadLength)
		copy(payload, remaining[HeaderSize:HeaderSize+payloadLength])
		frames = append(frames, Frame{
			Timestamp: nanosecondsToSeconds(binary.LittleEndian.Uint64(remaining[8:16])),
			ID:        binary.LittleEndian.Uint32(remaining[4:8]),
			ThreadID:  remaining[3],
			Payload:   payload,
			Format:    FormatBinary,
		})
		start += HeaderSize + payloadLength
	}

	d.compact(start)
	return frames
}

// Flush returns nothing: a partial byte frame can never complete.
func (d *Decoder) Flush() []Frame {
	return nil
}

// Buffered returns the number of bytes waiting for more input.
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}

func (d *Decoder) compact(start int) {
	if start == 0 {
		return
	}
	remaining := copy(d.buffer, d.buffer[start:])
	d.buffer = d.buffer[:remaining]
}

// AppendFrame encodes one byte frame onto dst.
func AppendFrame(dst []byte, id uint32, thread uint8, timestampNanoseconds uint64, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, fmt.Errorf("payload of %d bytes exceeds the %d-byte frame limit", len(payload), MaxPayload)
	}
	dst = append(dst, Sync...)
	dst = append(dst, byte(len(payload)), thread)
	dst = binary.LittleEndian.AppendUint32(dst, id)
	dst = binary.LittleEndian.AppendUint64(dst, timestampNanoseconds)
	return append(dst, payload...), nil
}
