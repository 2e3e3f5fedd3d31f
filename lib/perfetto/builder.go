// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfetto

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/zeebo/blake3"
)

const (
	// ProcessName labels the single process track.
	ProcessName = "MinLoggerApp"

	processID = 0

	// sequenceID is the trusted packet sequence every event packet
	// belongs to; interned data is scoped to it.
	sequenceID = 8009
)

// Builder accumulates trace packets in memory. It is not safe for
// concurrent use.
type Builder struct {
	seed string
	out  []byte

	started bool
	origin  float64

	processUUID uint64
	threads     map[uint8]uint64
	counters    map[string]uint64

	cleared      bool
	nextIID      uint64
	locationIIDs map[string]uint64
	logBodyIIDs  map[string]uint64
	packetCount  int
}

// NewBuilder returns an empty builder. seed feeds the track UUIDs;
// builders with the same seed and input produce identical traces.
func NewBuilder(seed string) *Builder {
	return &Builder{
		seed:         seed,
		threads:      make(map[uint8]uint64),
		counters:     make(map[string]uint64),
		nextIID:      1,
		locationIIDs: make(map[string]uint64),
		logBodyIIDs:  make(map[string]uint64),
	}
}

// Packets returns the number of packets written so far.
func (b *Builder) Packets() int {
	return b.packetCount
}

// Bytes returns the encoded trace.
func (b *Builder) Bytes() []byte {
	return b.out
}

// WriteTo writes the encoded trace to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.out)
	return int64(n), err
}

// SetThreadName names the track of thread. Calling it again renames
// the track.
func (b *Builder) SetThreadName(timestamp float64, thread uint8, name string) {
	b.threadTrack(timestamp, thread, name)
}

// SliceBegin opens a slice named name on thread's track.
func (b *Builder) SliceBegin(timestamp float64, thread uint8, name, file string, line int) {
	b.trackEvent(timestamp, typeSliceBegin, thread, name, file, line, nil)
}

// SliceEnd closes the innermost open slice on thread's track.
func (b *Builder) SliceEnd(timestamp float64, thread uint8, name, file string, line int) {
	b.trackEvent(timestamp, typeSliceEnd, thread, name, file, line, nil)
}

// Log adds an instant event carrying a log message. label is a
// severity label (DEBUG, INFO, WARN, ERROR, CRITICAL).
func (b *Builder) Log(timestamp float64, thread uint8, label, body, file string, line int) {
	b.trackEvent(timestamp, typeInstant, thread, "log", file, line, func(event message, interned message, locationIID uint64) (message, message) {
		bodyIID, isNew := b.intern(b.logBodyIIDs, body)
		if isNew {
			entry := message(nil).varint(logBodyIIDField, bodyIID).str(logBodyText, body)
			interned = interned.embed(internedLogBody, entry)
		}
		log := message(nil).
			varint(logSourceLocationIID, locationIID).
			varint(logBodyIID, bodyIID).
			varint(logPriority, priority(label))
		return event.embed(eventLogMessage, log), interned
	})
}

// Counter records value on the counter track called name.
func (b *Builder) Counter(timestamp float64, name string, value float64) {
	track, ok := b.counters[name]
	if !ok {
		track = b.uuid("counter", name)
		b.counters[name] = track
		descriptor := message(nil).
			varint(descriptorUUID, track).
			str(descriptorName, name).
			varint(descriptorParentUUID, b.process(timestamp)).
			embed(descriptorCounter, nil)
		b.packet(message(nil).
			varint(packetTimestamp, b.nanoseconds(timestamp)).
			embed(packetTrackDescriptor, descriptor))
	}

	event := message(nil).
		varint(eventType, typeCounter).
		varint(eventTrackUUID, track).
		double(eventDoubleCounter, value)
	b.packet(message(nil).
		varint(packetTimestamp, b.nanoseconds(timestamp)).
		embed(packetTrackEvent, event).
		varint(packetSequenceID, sequenceID).
		varint(packetSequenceFlags, b.sequenceFlags()))
}

// extendEvent adds type-specific fields to a track event and may add
// entries to the packet's interned data.
type extendEvent func(event, interned message, locationIID uint64) (message, message)

func (b *Builder) trackEvent(timestamp float64, kind uint64, thread uint8, name, file string, line int, extend extendEvent) {
	track := b.threadTrack(timestamp, thread, "")

	var interned message
	location := file + ":" + strconv.Itoa(line)
	locationIID, isNew := b.intern(b.locationIIDs, location)
	if isNew {
		entry := message(nil).
			varint(sourceLocationIID, locationIID).
			str(sourceLocationFile, file).
			varint(sourceLocationLine, uint64(line))
		interned = interned.embed(internedSourceLocation, entry)
	}

	event := message(nil).
		varint(eventType, kind).
		varint(eventTrackUUID, track).
		str(eventName, name).
		varint(eventSourceLocationIID, locationIID)
	if extend != nil {
		event, interned = extend(event, interned, locationIID)
	}

	packet := message(nil).
		varint(packetTimestamp, b.nanoseconds(timestamp)).
		embed(packetTrackEvent, event)
	if len(interned) > 0 {
		packet = packet.embed(packetInternedData, interned)
	}
	b.packet(packet.
		varint(packetSequenceID, sequenceID).
		varint(packetSequenceFlags, b.sequenceFlags()))
}

// sequenceFlags marks the first event packet as the start of the
// sequence's incremental state.
func (b *Builder) sequenceFlags() uint64 {
	if b.cleared {
		return seqNeedsIncrementalState
	}
	b.cleared = true
	return seqIncrementalStateCleared | seqNeedsIncrementalState
}

func (b *Builder) intern(table map[string]uint64, key string) (uint64, bool) {
	if iid, ok := table[key]; ok {
		return iid, false
	}
	iid := b.nextIID
	b.nextIID++
	table[key] = iid
	return iid, true
}

// process returns the process track, emitting its descriptor first.
func (b *Builder) process(timestamp float64) uint64 {
	if b.processUUID != 0 {
		return b.processUUID
	}
	b.processUUID = b.uuid("process", ProcessName)
	descriptor := message(nil).
		varint(descriptorUUID, b.processUUID).
		embed(descriptorProcess, message(nil).
			varint(processPID, processID).
			str(processName, ProcessName))
	b.packet(message(nil).
		varint(packetTimestamp, b.nanoseconds(timestamp)).
		embed(packetTrackDescriptor, descriptor))
	return b.processUUID
}

// threadTrack returns thread's track. A descriptor is emitted the
// first time the thread is seen and again whenever name is non-empty.
func (b *Builder) threadTrack(timestamp float64, thread uint8, name string) uint64 {
	track, known := b.threads[thread]
	if known && name == "" {
		return track
	}
	if !known {
		track = b.uuid("thread", strconv.Itoa(int(thread)))
		b.threads[thread] = track
	}
	if name == "" {
		name = "thread_" + strconv.Itoa(int(thread))
	}

	process := b.process(timestamp)
	descriptor := message(nil).
		varint(descriptorUUID, track).
		varint(descriptorParentUUID, process).
		embed(descriptorThread, message(nil).
			varint(threadPID, processID).
			varint(threadTID, uint64(thread)+1).
			str(threadName, name))
	b.packet(message(nil).
		varint(packetTimestamp, b.nanoseconds(timestamp)).
		embed(packetTrackDescriptor, descriptor))
	return track
}

func (b *Builder) packet(packet message) {
	b.out = message(b.out).embed(tracePacketField, packet)
	b.packetCount++
}

// nanoseconds converts a capture timestamp to trace time. The first
// timestamp seen is zero; earlier timestamps clamp to zero.
func (b *Builder) nanoseconds(timestamp float64) uint64 {
	if !b.started {
		b.started = true
		b.origin = timestamp
	}
	delta := timestamp - b.origin
	if delta <= 0 {
		return 0
	}
	return uint64(delta * 1e9)
}

// uuid derives a stable 63-bit track identifier.
func (b *Builder) uuid(kind, key string) uint64 {
	hasher := blake3.New()
	fmt.Fprintf(hasher, "%s\x00%s\x00%s", b.seed, kind, key)
	sum := hasher.Sum(nil)
	id := binary.LittleEndian.Uint64(sum[:8]) & (1<<63 - 1)
	if id == 0 {
		id = 1
	}
	return id
}

func priority(label string) uint64 {
	switch label {
	case "DEBUG":
		return priorityDebug
	case "INFO":
		return priorityInfo
	case "WARN":
		return priorityWarn
	case "ERROR":
		return priorityError
	case "CRITICAL":
		return priorityFatal
	default:
		return priorityUnspecified
	}
}
