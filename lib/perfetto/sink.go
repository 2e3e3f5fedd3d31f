// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfetto

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// Sink feeds dispatcher events into a Builder and writes the trace to
// a file when closed. Recorded values that are numeric scalars become
// counter samples; other values are not representable and are skipped.
type Sink struct {
	path    string
	builder *Builder
}

// NewSink returns a sink that writes to path on Close.
func NewSink(path string) *Sink {
	return &Sink{path: path, builder: NewBuilder(filepath.Base(path))}
}

// Builder exposes the underlying builder.
func (s *Sink) Builder() *Builder {
	return s.builder
}

// Handle translates one event.
func (s *Sink) Handle(event dispatch.Event) error {
	switch event.Kind {
	case dispatch.EventThreadName:
		s.builder.SetThreadName(event.Timestamp, event.ThreadID, event.Thread)
	case dispatch.EventSliceBegin:
		s.builder.SliceBegin(event.Timestamp, event.ThreadID, event.Name, event.SourceFile, event.SourceLine)
	case dispatch.EventSliceEnd:
		s.builder.SliceEnd(event.Timestamp, event.ThreadID, event.Name, event.SourceFile, event.SourceLine)
	case dispatch.EventLog:
		s.builder.Log(event.Timestamp, event.ThreadID, event.Label(), event.Message, event.SourceFile, event.SourceLine)
	case dispatch.EventValue:
		if number, ok := typedef.Number(event.Value); ok {
			s.builder.Counter(event.Timestamp, event.Name, number)
		}
	}
	return nil
}

// Close writes the trace file, creating parent directories.
func (s *Sink) Close() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating trace directory: %w", err)
	}
	if err := os.WriteFile(s.path, s.builder.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing perfetto trace: %w", err)
	}
	return nil
}
