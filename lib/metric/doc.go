// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metric defines the metadata shared between the build-time
// source scan and the runtime decoders.
//
// Each instrumented call site becomes a [Definition] with a 32-bit ID,
// a [Kind] (LOG, RECORD, ENTER, EXIT), its source location, a
// [Severity], and kind-specific fields: the message template, the
// value or region name, and the value type. A [Table] indexes
// definitions by ID. A [File] is the on-disk metadata: the entries,
// the type dictionary their value types resolve against, and a BLAKE3
// fingerprint of both.
//
// Two identifier ranges are reserved (see [IsReserved]): zero, and
// 0xFFFFFF00 through 0xFFFFFFFF for internal channels. [ThreadNameID]
// is the first internal channel.
package metric
