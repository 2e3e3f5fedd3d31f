// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventstore persists decoded events in a SQLite database and
// queries them back.
//
// A [Store] is a [dispatch.Sink]. Events are buffered and written in
// batches, each batch in one IMMEDIATE transaction, so a long capture
// costs one fsync per batch rather than per event. The tables are:
//
//   - logs: one row per log line, with severity, label, source
//     location and the substituted message;
//   - vals: one row per recorded value, the value as JSON text;
//   - slices: ENTER and EXIT markers, phase "begin" or "end";
//   - threads: the latest display name per thread id.
//
// Raw device lines are not stored.
//
// The database uses WAL mode (see lib/sqlitepool), so "minlog logs"
// can query a store that a running "minlog decode --follow" is still
// filling.
package eventstore
