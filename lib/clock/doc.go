// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Following a live capture polls the file at an interval, and archive
// headers record when they were written. Both take a [Clock] instead of
// calling the time package, so tests run without real waits:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	reader := capture.Follow(ctx, file, c, 250*time.Millisecond)
//	// ... start a goroutine reading from reader ...
//	c.WaitForTimers(1)              // the reader hit EOF and is polling
//	c.Advance(250 * time.Millisecond) // release the poll
//
// [FakeClock.WaitForTimers] closes the race between a goroutine
// registering a wait and the test advancing time.
package clock
