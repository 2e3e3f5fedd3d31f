// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for minlog packages.
//
// [WriteTree] lays out a directory of source files from a map of
// relative paths to contents, for scanner and CLI tests that need a
// real source tree on disk.
//
// [RequireReceive] wraps the timeout safety valve (select with a
// time.After fallback) so tests of followed captures do not call
// time.After directly. It is the only place in the test suite where a
// real wall-clock timeout is used; everything else drives time with a
// fake clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no minlog-internal dependencies.
package testutil
