// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bureau-foundation/minlog/lib/clock"
)

// DefaultPollInterval is how often a followed capture is re-read after
// reaching end of file.
const DefaultPollInterval = 250 * time.Millisecond

type follower struct {
	ctx      context.Context
	source   io.Reader
	clock    clock.Clock
	interval time.Duration
}

// Follow wraps r so that io.EOF means "wait and retry" rather than
// "done", the way tail -f treats a log file. Read returns ctx.Err()
// once ctx is cancelled. Other read errors are returned unchanged.
func Follow(ctx context.Context, r io.Reader, source clock.Clock, interval time.Duration) io.Reader {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &follower{ctx: ctx, source: r, clock: source, interval: interval}
}

func (f *follower) Read(p []byte) (int, error) {
	for {
		if err := f.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := f.source.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		select {
		case <-f.ctx.Done():
			return 0, f.ctx.Err()
		case <-f.clock.After(f.interval):
		}
	}
}
