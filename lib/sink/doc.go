// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink provides the [dispatch.Sink] implementations used by the
// decode command.
//
//   - [Console] prints log lines for a human, optionally colored.
//   - [CSV] writes one file per recorded value name, one row per
//     record, with struct and array values flattened into columns.
//   - [Archive] writes every event as a CBOR sequence that
//     [ReadArchive] loads back, so a capture can be decoded once and
//     re-exported later without the metadata file.
//
// Sinks are driven from a single goroutine and are not safe for
// concurrent use.
package sink
