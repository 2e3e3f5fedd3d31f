// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the minlog
// binary.
//
// Release builds inject three variables with -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// [Version] is set by hand for releases. When the commit was not
// injected, the VCS stamp that "go build" records in the binary's
// build info is used instead, so "go install" builds still report
// where they came from.
//
// [Info] formats the one-line string for "minlog version"; [Current]
// returns the same data as a struct for --json output.
package version
