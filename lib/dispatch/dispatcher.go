// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/bureau-foundation/minlog/lib/frame"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// DecodeError is a frame whose payload does not fit its definition's
// value type. The frame is dropped; decoding continues.
type DecodeError struct {
	ID       uint32
	Location string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("metric %s at %s: %v", metric.HexID(e.ID), e.Location, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Options configures a Dispatcher.
type Options struct {
	// Table is the metadata the stream was built against. Required.
	Table *metric.Table

	// Resolver decodes binary payloads. Nil means built-in types only.
	Resolver *typedef.Resolver

	// Logger receives unknown-ID warnings. Nil discards them.
	Logger *slog.Logger

	Sinks []Sink
}

// Dispatcher interprets frames against the metadata table and fans
// the resulting events out to its sinks. It owns its State and is not
// safe for concurrent use.
type Dispatcher struct {
	table    *metric.Table
	resolver *typedef.Resolver
	logger   *slog.Logger
	sinks    []Sink
	state    *State
}

// New returns a dispatcher with empty state.
func New(options Options) *Dispatcher {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := options.Resolver
	if resolver == nil {
		resolver = typedef.NewResolver(nil)
	}
	return &Dispatcher{
		table:    options.Table,
		resolver: resolver,
		logger:   logger,
		sinks:    options.Sinks,
		state:    NewState(),
	}
}

// State returns the dispatcher's session state.
func (d *Dispatcher) State() *State {
	return d.state
}

// Dispatch handles one frame. A *DecodeError means the frame was
// malformed and skipped; any other error comes from a sink and should
// stop the session.
func (d *Dispatcher) Dispatch(f frame.Frame) error {
	if f.Format == frame.FormatRaw {
		return d.emit(Event{Kind: EventRaw, Message: string(f.Payload)})
	}

	if f.ID == metric.ThreadNameID {
		if f.Format == frame.FormatNone {
			return nil
		}
		name := threadNameText(f.Payload)
		d.state.ThreadNames[f.ThreadID] = name
		return d.emit(Event{
			Kind:      EventThreadName,
			Timestamp: f.Timestamp,
			ThreadID:  f.ThreadID,
			Thread:    name,
			MetricID:  f.ID,
		})
	}

	definition, ok := d.table.Lookup(f.ID)
	if !ok {
		if _, warned := d.state.UnknownIDs[f.ID]; !warned {
			d.state.UnknownIDs[f.ID] = struct{}{}
			d.logger.Warn("unknown metric id", "metric_id", metric.HexID(f.ID), "thread", f.ThreadID)
		}
		return nil
	}

	base := Event{
		Timestamp:  f.Timestamp,
		ThreadID:   f.ThreadID,
		Thread:     d.state.ThreadName(f.ThreadID),
		MetricID:   f.ID,
		Level:      definition.Level,
		SourceFile: definition.SourceFile,
		SourceLine: definition.SourceLine,
		Name:       definition.Name,
	}

	if definition.Name != "" && definition.ValueType != "" && f.Format != frame.FormatNone {
		value, err := d.decodeValue(definition, f)
		if err != nil {
			return &DecodeError{ID: f.ID, Location: definition.Location(), Err: err}
		}
		d.state.LastValues[definition.Name] = value

		event := base
		event.Kind = EventValue
		event.Value = value
		if err := d.emit(event); err != nil {
			return err
		}
	}

	switch definition.Kind {
	case metric.Enter, metric.Exit:
		event := base
		event.Kind = EventSliceBegin
		if definition.Kind == metric.Exit {
			event.Kind = EventSliceEnd
		}
		if err := d.emit(event); err != nil {
			return err
		}
	}

	if definition.HasMessage() {
		event := base
		event.Kind = EventLog
		event.Message = d.state.Substitute(definition.Message)
		return d.emit(event)
	}
	return nil
}

// decodeValue interprets a payload with the definition's value type.
// Text captures carry values already rendered, so they are kept as
// text.
func (d *Dispatcher) decodeValue(definition *metric.Definition, f frame.Frame) (typedef.Value, error) {
	if f.Format == frame.FormatText {
		return typedef.Text(f.Payload), nil
	}

	ref := definition.ValueType
	if definition.IsArray {
		element, err := d.resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		if element.Size == 0 {
			return nil, fmt.Errorf("array element type %q has zero size", ref)
		}
		if len(f.Payload)%element.Size != 0 {
			return nil, fmt.Errorf("payload of %d bytes is not a whole number of %d-byte %q elements",
				len(f.Payload), element.Size, ref)
		}
		count := len(f.Payload) / element.Size
		if count == 0 {
			if element.Kind == typedef.KindString {
				return typedef.Text(""), nil
			}
			return typedef.Array{}, nil
		}
		ref, err = typedef.ArrayOf(ref, count)
		if err != nil {
			return nil, err
		}
	}

	plan, err := d.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return plan.Decode(f.Payload)
}

func (d *Dispatcher) emit(event Event) error {
	for _, sink := range d.sinks {
		if err := sink.Handle(event); err != nil {
			return fmt.Errorf("delivering %s event: %w", event.Kind, err)
		}
	}
	return nil
}

// Close closes every sink and reports the unknown identifiers seen
// during the session.
func (d *Dispatcher) Close() error {
	if len(d.state.UnknownIDs) > 0 {
		ids := d.state.SortedUnknownIDs()
		hex := make([]string, len(ids))
		for i, id := range ids {
			hex[i] = metric.HexID(id)
		}
		d.logger.Warn("capture contained unknown metric ids",
			"count", len(ids),
			"metric_ids", strings.Join(hex, ","),
		)
	}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// threadNameText cleans a device-supplied thread name: trailing NULs
// and control characters are removed, invalid UTF-8 is replaced.
func threadNameText(payload []byte) string {
	name := strings.TrimRight(string(payload), "\x00")
	name = strings.ToValidUTF8(name, "\uFFFD")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
}
