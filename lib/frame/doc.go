// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame decodes the three capture encodings firmware emits
// into [Frame] values.
//
// Byte frames ([Decoder]) start with the [Sync] marker followed by a
// fixed header and up to [MaxPayload] payload bytes:
//
//	AF FA | len u8 | thread u8 | id u32 | timestamp_ns u64 | payload
//
// All integers are little-endian. The decoder searches for the marker,
// waits until the header and payload are fully buffered, and drops
// whatever lies between frames. A corrupted length therefore costs at
// most the frames it overlaps.
//
// Micro frames ([MicroDecoder]) are four bytes: the low 16 bits of the
// metric ID and a bitfield of thread (bits 0-3), time scale (4-5) and
// time value (6-15). Each frame advances a running clock by
// value × 10^-9 × 1000^scale seconds. The decoder recognizes frames by
// matching truncated IDs, one byte offset at a time.
//
// Text captures ([TextDecoder]) interleave "$seconds,id,thread,value"
// event lines with ordinary console output, which passes through as
// [FormatRaw] frames.
//
// Every decoder implements [StreamDecoder] and accepts input in chunks
// of any size. The Append* and FormatTextEvent functions produce the
// same encodings, for tests and simulators.
package frame
