// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/minlog/lib/codec"
	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/metric"
)

// Record is the archived form of a dispatch.Event. Value holds the
// plain Go form of the decoded value (see typedef.Value.Native).
type Record struct {
	Kind      dispatch.EventKind `cbor:"kind"`
	Timestamp float64            `cbor:"ts"`
	ThreadID  uint8              `cbor:"thread_id"`
	Thread    string             `cbor:"thread,omitempty"`
	MetricID  uint32             `cbor:"metric_id,omitempty"`
	Level     metric.Severity    `cbor:"level,omitempty"`
	File      string             `cbor:"file,omitempty"`
	Line      int                `cbor:"line,omitempty"`
	Name      string             `cbor:"name,omitempty"`
	Message   string             `cbor:"msg,omitempty"`
	Value     any                `cbor:"value,omitempty"`
}

// NewRecord converts an event for archiving.
func NewRecord(event dispatch.Event) Record {
	record := Record{
		Kind:      event.Kind,
		Timestamp: event.Timestamp,
		ThreadID:  event.ThreadID,
		Thread:    event.Thread,
		MetricID:  event.MetricID,
		Level:     event.Level,
		File:      event.SourceFile,
		Line:      event.SourceLine,
		Name:      event.Name,
		Message:   event.Message,
	}
	if event.Value != nil {
		record.Value = event.Value.Native()
	}
	return record
}

// Archive writes every event to w as one CBOR item each (an RFC 8742
// CBOR sequence).
type Archive struct {
	encoder *codec.Encoder
	closer  io.Closer
}

// NewArchive returns a sink encoding onto w. When w is an io.Closer it
// is closed by Close.
func NewArchive(w io.Writer) *Archive {
	archive := &Archive{encoder: codec.NewEncoder(w)}
	if closer, ok := w.(io.Closer); ok {
		archive.closer = closer
	}
	return archive
}

// Handle encodes one event.
func (a *Archive) Handle(event dispatch.Event) error {
	if err := a.encoder.Encode(NewRecord(event)); err != nil {
		return fmt.Errorf("archiving %s event: %w", event.Kind, err)
	}
	return nil
}

// Close closes the underlying writer when it has a Close method.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// ReadArchive calls visit for each record in an archive, in order.
// Iteration stops at the first error from visit.
func ReadArchive(r io.Reader, visit func(Record) error) error {
	decoder := codec.NewDecoder(r)
	for index := 0; ; index++ {
		var record Record
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive record %d: %w", index, err)
		}
		if err := visit(record); err != nil {
			return err
		}
	}
}
