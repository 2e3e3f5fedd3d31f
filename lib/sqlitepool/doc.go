// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases with minlog's standard
// settings.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection and [Pool.Put] it back, or use [Pool.With] and
// [Pool.Transaction], which do both. Connections are not safe for
// concurrent use; each goroutine holds its own.
//
// Every connection is prepared with:
//
//   - journal_mode=WAL, so "minlog logs" can query a store while a
//     decode session is still writing to it;
//   - synchronous=NORMAL: committed events survive a crash of the
//     decoder, not necessarily of the host;
//   - busy_timeout=5000 to ride out the writer's commits;
//   - temp_store=MEMORY and an 8 MB page cache.
//
// [Config.Schema] is applied to every new connection after the
// pragmas, so it must be idempotent (CREATE ... IF NOT EXISTS).
//
// The package does not hide SQL. Callers write statements and run them
// with sqlitex.Execute.
package sqlitepool
