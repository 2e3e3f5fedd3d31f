// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"

	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventLog is a formatted log line: Message is the template with
	// ${name} references substituted.
	EventLog EventKind = iota + 1

	// EventValue is a recorded named value: Name and Value are set.
	EventValue

	// EventSliceBegin and EventSliceEnd bracket a profiling region
	// identified by Name on one thread.
	EventSliceBegin
	EventSliceEnd

	// EventThreadName assigns Thread as the display name of ThreadID.
	EventThreadName

	// EventRaw is device output that was not an event. Message holds
	// the line.
	EventRaw
)

var eventKindNames = map[EventKind]string{
	EventLog:        "log",
	EventValue:      "value",
	EventSliceBegin: "slice_begin",
	EventSliceEnd:   "slice_end",
	EventThreadName: "thread_name",
	EventRaw:        "raw",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(name string) (EventKind, error) {
	for kind, kindName := range eventKindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	if _, ok := eventKindNames[k]; !ok {
		return nil, fmt.Errorf("invalid event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *EventKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Event is one dispatcher output. Which fields are meaningful depends
// on Kind; raw lines carry only Message.
type Event struct {
	Kind EventKind

	// Timestamp is in seconds, from the frame.
	Timestamp float64

	ThreadID uint8

	// Thread is the display name of ThreadID at the time of the event.
	Thread string

	MetricID uint32

	Level metric.Severity

	SourceFile string
	SourceLine int

	// Name is the value or region name.
	Name string

	// Message is the substituted log text, or the raw line.
	Message string

	// Value is the decoded value of an EventValue.
	Value typedef.Value
}

// Label returns the severity label of a log event.
func (e *Event) Label() string {
	return e.Level.Label()
}

// Location returns "file:line".
func (e *Event) Location() string {
	return fmt.Sprintf("%s:%d", e.SourceFile, e.SourceLine)
}

// Sink consumes dispatcher events. Handle is called in stream order
// from a single goroutine. An error from Handle stops the decode.
// Close is called once after the last event.
type Sink interface {
	Handle(event Event) error
	Close() error
}
