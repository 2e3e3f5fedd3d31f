// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package typedef resolves firmware value types into byte layouts and
// decodes little-endian payloads against them.
//
// A type reference is an optional decimal repeat count followed by a
// base name: "uint16_t", "2uint16_t", "16s", "Rect". The base name is
// looked up in three places, in order:
//
//  1. Primitive letter codes (b B h H i I l L q Q f d s c x ?), with
//     standard little-endian sizes. "Ns" is a single N-byte string;
//     "Nx" is N pad bytes that produce no value.
//  2. The user's [Dictionary], where each entry is either an alias
//     (another type reference) or an ordered list of struct fields.
//  3. Fixed-width C type names (uint32_t, double, unsigned char, ...).
//     Architecture-dependent names (int, long, size_t, ...) are
//     rejected so the dictionary must state their width explicitly.
//
// [Resolver.Resolve] turns a reference into a [Plan], which records the
// total byte size and how to walk the bytes. Plans are cached per
// reference; the dictionary must not change after the resolver is
// created. [Plan.Decode] applies a plan to payload bytes and returns a
// [Value]: a sealed variant of integers, floats, booleans, text, raw
// bytes, arrays and ordered structs.
//
// Reference cycles through struct fields or aliases are reported as a
// [*CycleError] whose Chain names every type on the loop.
//
// Dictionaries are authored as JSONC (JSON with comments and trailing
// commas). Key order is significant because struct fields are laid
// out in declaration order, so [Dictionary] keeps it through both
// decoding and encoding.
package typedef
