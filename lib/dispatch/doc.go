// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch turns decoded frames into events.
//
// A [Dispatcher] looks each frame's ID up in the metadata table and
// applies the definition:
//
//   - the thread-name channel ([metric.ThreadNameID]) renames a thread;
//   - unknown IDs are warned about once and skipped;
//   - named values are decoded with the definition's value type and
//     remembered in [State.LastValues];
//   - ENTER and EXIT open and close profiling slices;
//   - message templates have their ${name} references filled from the
//     remembered values and become log events.
//
// Events go to every [Sink] in order. Payloads that do not match their
// value type produce a [*DecodeError] for that frame only; sink errors
// are returned as-is and end the session.
package dispatch
