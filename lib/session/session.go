// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session pumps a capture through a frame decoder into a
// dispatcher.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/frame"
	"github.com/bureau-foundation/minlog/lib/metric"
)

// DefaultChunkSize is the read size when none is configured.
const DefaultChunkSize = 4096

// Options configures Run.
type Options struct {
	Reader     io.Reader
	Decoder    frame.StreamDecoder
	Dispatcher *dispatch.Dispatcher

	// ChunkSize is the read buffer size. Zero means DefaultChunkSize.
	ChunkSize int

	// Logger receives one warning per malformed frame. Nil discards.
	Logger *slog.Logger
}

// Stats summarizes a finished session.
type Stats struct {
	Bytes        int64
	Frames       int
	DecodeErrors int
}

// Run reads Reader to end of stream, feeding each chunk to Decoder and
// each frame to Dispatcher. Malformed frames are logged and skipped.
// Run stops early on a sink error, a read error, or cancellation of
// ctx, and returns that error. The dispatcher is not closed.
func Run(ctx context.Context, options Options) (Stats, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	chunkSize := options.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var stats Stats
	deliver := func(frames []frame.Frame) error {
		for _, decoded := range frames {
			stats.Frames++
			err := options.Dispatcher.Dispatch(decoded)
			if err == nil {
				continue
			}
			var decodeError *dispatch.DecodeError
			if !errors.As(err, &decodeError) {
				return err
			}
			stats.DecodeErrors++
			logger.Warn("dropping malformed frame",
				"metric_id", metric.HexID(decodeError.ID),
				"source", decodeError.Location,
				"error", decodeError.Err,
			)
		}
		return nil
	}

	buffer := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n, readErr := options.Reader.Read(buffer)
		if n > 0 {
			stats.Bytes += int64(n)
			if err := deliver(options.Decoder.Feed(buffer[:n])); err != nil {
				return stats, err
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if flushErr := deliver(options.Decoder.Flush()); flushErr != nil {
			return stats, flushErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(readErr, ctxErr) {
			return stats, ctxErr
		}
		return stats, fmt.Errorf("reading capture: %w", readErr)
	}

	if err := deliver(options.Decoder.Flush()); err != nil {
		return stats, err
	}
	return stats, nil
}
