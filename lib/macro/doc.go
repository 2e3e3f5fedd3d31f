// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package macro finds MIN_LOGGER_* call sites in C and C++ sources and
// turns them into metric definitions.
//
// [FindCalls] locates invocations, skipping comments, literals and
// preprocessor directives. [SplitArguments] splits an invocation's
// argument text on top-level commas. A [Scanner] parses many files in
// parallel, assigns each call site its 32-bit identifier, validates
// value types against a [typedef.Resolver], and merges everything into
// a [metric.Table].
//
// Identifiers come from one of two places. The _ID macro variants
// carry an explicit integer literal, either as the first or the last
// argument. Every other variant hashes its root-relative location
// with [HashLocation], so identifiers stay stable as long as the line
// does not move.
package macro
