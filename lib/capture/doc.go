// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture opens recorded device output for decoding.
//
// Captures pulled off long-running devices are often compressed. [Open]
// sniffs the first four bytes and transparently decompresses zstd
// (28 B5 2F FD) and LZ4 frame (04 22 4D 18) streams; anything else is
// read as-is. [Create] is the writing counterpart, choosing the
// compressor from the file extension.
//
// [Follow] and [OpenFollow] read a capture that a serial logger is
// still appending to: reaching end of file waits a poll interval on a
// [clock.Clock] and tries again, until the context is cancelled.
package capture
