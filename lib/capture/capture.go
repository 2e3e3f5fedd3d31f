// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/minlog/lib/clock"
)

// Compression identifies how a capture file is compressed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// Frame magic numbers, as they appear on disk.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// magicLength is how many bytes Detect needs.
const magicLength = 4

// Detect identifies the compression of a stream from its first bytes.
func Detect(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(header, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// CompressionForPath picks the compression implied by a file name:
// ".zst" for zstd, ".lz4" for LZ4, anything else uncompressed.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Capture is an open capture. Reads return decompressed bytes.
type Capture struct {
	// Compression is what Open detected. For followed captures it is
	// set by the first Read.
	Compression Compression

	source  *bufio.Reader
	reader  io.Reader
	closers []func() error
}

func (c *Capture) Read(p []byte) (int, error) {
	if c.reader == nil {
		if err := c.sniff(); err != nil {
			return 0, err
		}
	}
	return c.reader.Read(p)
}

// Close releases the decompressor and the underlying file. Closing
// stdin is a no-op.
func (c *Capture) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Open opens a capture for reading. "-" reads standard input.
// Compression is detected from the first bytes.
func Open(path string) (*Capture, error) {
	source, closer, err := openSource(path)
	if err != nil {
		return nil, err
	}
	return wrap(source, closer)
}

// NewReader sniffs r like Open does. Closing the Capture closes the
// decompressor but not r.
func NewReader(r io.Reader) (*Capture, error) {
	return wrap(r, func() error { return nil })
}

// OpenFollow opens a capture that is still being written. End of file
// is treated as "no data yet": the reader polls every interval until
// more bytes appear or ctx is cancelled. Standard input is not
// followed, since its end is final.
func OpenFollow(ctx context.Context, path string, source clock.Clock, interval time.Duration) (*Capture, error) {
	if path == "-" || path == "" {
		return Open(path)
	}
	file, closer, err := openSource(path)
	if err != nil {
		return nil, err
	}
	// A followed file may still be empty; sniffing waits for the first
	// Read so opening does not block until data arrives.
	return newCapture(Follow(ctx, file, source, interval), closer), nil
}

func openSource(path string) (io.Reader, func() error, error) {
	if path == "-" || path == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

// wrap sniffs source and installs the matching decompressor.
func wrap(source io.Reader, closer func() error) (*Capture, error) {
	capture := newCapture(source, closer)
	if err := capture.sniff(); err != nil {
		capture.Close()
		return nil, err
	}
	return capture, nil
}

func newCapture(source io.Reader, closer func() error) *Capture {
	return &Capture{source: bufio.NewReader(source), closers: []func() error{closer}}
}

// sniff waits for more bytes only while the available ones could still
// be the start of a magic number, so a short plain capture that is
// being followed is not held back.
func (c *Capture) sniff() error {
	header, err := c.source.Peek(1)
	if len(header) > 0 {
		available := min(c.source.Buffered(), magicLength)
		header, err = c.source.Peek(available)
		if available < magicLength && couldBeMagic(header) {
			header, err = c.source.Peek(magicLength)
		}
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("reading capture header: %w", err)
	}

	c.Compression = Detect(header)
	switch c.Compression {
	case CompressionZstd:
		decoder, err := zstd.NewReader(c.source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("starting zstd decoder: %w", err)
		}
		c.reader = decoder
		c.closers = append(c.closers, func() error {
			decoder.Close()
			return nil
		})
	case CompressionLZ4:
		c.reader = lz4.NewReader(c.source)
	default:
		c.reader = c.source
	}
	return nil
}

func couldBeMagic(prefix []byte) bool {
	return bytes.HasPrefix(zstdMagic, prefix) || bytes.HasPrefix(lz4Magic, prefix)
}

// Writer is a capture-format writer: bytes written are compressed as
// configured and land in the underlying file on Close.
type Writer struct {
	writer  io.Writer
	closers []func() error
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	var errs []error
	for _, closer := range w.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}

// Create creates path, compressing with the algorithm its extension
// implies (see CompressionForPath). Parent directories are created.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	writer, err := NewWriter(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closers = append(writer.closers, file.Close)
	return writer, nil
}

// NewWriter compresses onto w. Closing the Writer flushes the
// compressor but does not close w.
func NewWriter(w io.Writer, compression Compression) (*Writer, error) {
	switch compression {
	case CompressionNone, "":
		return &Writer{writer: w}, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("starting zstd encoder: %w", err)
		}
		return &Writer{writer: encoder, closers: []func() error{encoder.Close}}, nil
	case CompressionLZ4:
		encoder := lz4.NewWriter(w)
		return &Writer{writer: encoder, closers: []func() error{encoder.Close}}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
}
