// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides minlog's CBOR configuration.
//
// minlog uses two serialization formats:
//
//   - JSON for anything a person or another tool reads: the metadata
//     file, type dictionaries, CLI --json output, values stored in the
//     event database.
//   - CBOR for decode archives, which replay a session's events
//     without the metadata or the original capture.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same session always archives to identical bytes.
//
//	encoder := codec.NewEncoder(file)
//	err := encoder.Encode(record)
//
//	decoder := codec.NewDecoder(file)
//	for {
//		var record Record
//		if err := decoder.Decode(&record); err == io.EOF {
//			break
//		}
//	}
//
// Types implementing encoding.TextMarshaler serialize as CBOR text
// strings. Archive records use `cbor` struct tags.
package codec
