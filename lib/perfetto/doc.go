// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package perfetto writes decoded events as a Perfetto trace that
// ui.perfetto.dev opens directly.
//
// The trace is encoded by hand with protowire; only the handful of
// TracePacket fields the decoder produces are emitted, so no generated
// descriptors are needed. Layout:
//
//   - one process track ("MinLoggerApp", pid 0);
//   - one thread track per device thread, tid = thread id + 1 (tid 0
//     is the idle task to most trace tools), renamed when a
//     thread-name event arrives;
//   - slice begin/end events for ENTER and EXIT sites;
//   - instant events carrying a LogMessage for every log line, with
//     interned source location and body;
//   - one counter track per numeric recorded value name.
//
// Timestamps are nanoseconds since the first event. Track UUIDs are
// derived from the builder's seed, so the same input always produces
// the same bytes.
package perfetto
