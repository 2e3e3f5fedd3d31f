// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfetto

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// fields is a decoded protobuf message: every occurrence of each field
// number, as a varint/fixed64 value or raw bytes.
type fields map[protowire.Number][]field

type field struct {
	number uint64
	raw    []byte
}

func parse(t *testing.T, data []byte) fields {
	t.Helper()
	result := make(fields)
	for len(data) > 0 {
		number, wireType, n := protowire.ConsumeTag(data)
		if n < 0 {
			t.Fatalf("bad tag: %v", protowire.ParseError(n))
		}
		data = data[n:]
		var value field
		switch wireType {
		case protowire.VarintType:
			value.number, n = protowire.ConsumeVarint(data)
		case protowire.Fixed64Type:
			value.number, n = protowire.ConsumeFixed64(data)
		case protowire.BytesType:
			value.raw, n = protowire.ConsumeBytes(data)
		default:
			t.Fatalf("unexpected wire type %d", wireType)
		}
		if n < 0 {
			t.Fatalf("bad field %d: %v", number, protowire.ParseError(n))
		}
		data = data[n:]
		result[number] = append(result[number], value)
	}
	return result
}

func (f fields) uint(number protowire.Number) uint64 {
	if values := f[number]; len(values) > 0 {
		return values[0].number
	}
	return 0
}

func (f fields) str(number protowire.Number) string {
	if values := f[number]; len(values) > 0 {
		return string(values[0].raw)
	}
	return ""
}

func (f fields) sub(t *testing.T, number protowire.Number) fields {
	t.Helper()
	values := f[number]
	if len(values) == 0 {
		return nil
	}
	return parse(t, values[0].raw)
}

func packets(t *testing.T, trace []byte) []fields {
	t.Helper()
	var result []fields
	for _, packet := range parse(t, trace)[tracePacketField] {
		result = append(result, parse(t, packet.raw))
	}
	return result
}

func TestBuilderLayout(t *testing.T) {
	t.Parallel()

	builder := NewBuilder("test")
	builder.SetThreadName(10.0, 0, "main")
	builder.SliceBegin(10.5, 0, "loop", "app.c", 13)
	builder.Log(10.75, 0, "WARN", "hot", "app.c", 20)
	builder.Log(10.8, 0, "WARN", "hot", "app.c", 20)
	builder.SliceEnd(11.0, 0, "loop", "app.c", 14)
	builder.Counter(11.5, "temp", 21.5)

	all := packets(t, builder.Bytes())
	if len(all) != builder.Packets() {
		t.Fatalf("parsed %d packets, builder reports %d", len(all), builder.Packets())
	}
	// process, thread, begin, log, log, end, counter descriptor, counter
	if len(all) != 8 {
		t.Fatalf("got %d packets, want 8", len(all))
	}

	process := all[0].sub(t, packetTrackDescriptor)
	if process.sub(t, descriptorProcess).str(processName) != ProcessName {
		t.Errorf("first packet is not the process descriptor")
	}
	processUUID := process.uint(descriptorUUID)

	thread := all[1].sub(t, packetTrackDescriptor)
	threadInfo := thread.sub(t, descriptorThread)
	if threadInfo.str(threadName) != "main" || threadInfo.uint(threadTID) != 1 {
		t.Errorf("thread descriptor = name %q tid %d", threadInfo.str(threadName), threadInfo.uint(threadTID))
	}
	if thread.uint(descriptorParentUUID) != processUUID {
		t.Error("thread track is not parented to the process")
	}
	threadUUID := thread.uint(descriptorUUID)

	begin := all[2]
	if begin.uint(packetTimestamp) != 500_000_000 {
		t.Errorf("begin timestamp = %d, want 500ms after the first event", begin.uint(packetTimestamp))
	}
	if begin.uint(packetSequenceFlags) != seqIncrementalStateCleared|seqNeedsIncrementalState {
		t.Errorf("first event should clear incremental state, flags = %d", begin.uint(packetSequenceFlags))
	}
	beginEvent := begin.sub(t, packetTrackEvent)
	if beginEvent.uint(eventType) != typeSliceBegin || beginEvent.str(eventName) != "loop" || beginEvent.uint(eventTrackUUID) != threadUUID {
		t.Errorf("slice begin event is wrong")
	}
	location := begin.sub(t, packetInternedData).sub(t, internedSourceLocation)
	if location.str(sourceLocationFile) != "app.c" || location.uint(sourceLocationLine) != 13 {
		t.Errorf("interned location = %q:%d", location.str(sourceLocationFile), location.uint(sourceLocationLine))
	}

	firstLog := all[3]
	logMessage := firstLog.sub(t, packetTrackEvent).sub(t, eventLogMessage)
	if logMessage.uint(logPriority) != priorityWarn {
		t.Errorf("log priority = %d", logMessage.uint(logPriority))
	}
	body := firstLog.sub(t, packetInternedData).sub(t, internedLogBody)
	if body.str(logBodyText) != "hot" || body.uint(logBodyIIDField) != logMessage.uint(logBodyIID) {
		t.Error("log body is not interned with the referenced iid")
	}
	if all[4][packetInternedData] != nil {
		t.Error("repeated log should reuse interned location and body")
	}
	if all[4].uint(packetSequenceFlags) != seqNeedsIncrementalState {
		t.Error("later packets must not clear incremental state")
	}

	if all[5].sub(t, packetTrackEvent).uint(eventType) != typeSliceEnd {
		t.Error("slice end missing")
	}

	counterTrack := all[6].sub(t, packetTrackDescriptor)
	if counterTrack.str(descriptorName) != "temp" || counterTrack[descriptorCounter] == nil {
		t.Error("counter descriptor missing")
	}
	sample := all[7].sub(t, packetTrackEvent)
	if sample.uint(eventType) != typeCounter || math.Float64frombits(sample.uint(eventDoubleCounter)) != 21.5 {
		t.Error("counter sample is wrong")
	}
}

func TestBuilderDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []byte {
		builder := NewBuilder("capture.bin")
		builder.Log(1, 3, "INFO", "hello", "test.c", 7)
		builder.SetThreadName(2, 3, "worker")
		return builder.Bytes()
	}
	if !bytes.Equal(build(), build()) {
		t.Error("same input produced different traces")
	}
}

func TestSinkWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "trace.pftrace")
	sink := NewSink(path)
	events := []dispatch.Event{
		{Kind: dispatch.EventThreadName, Timestamp: 0, ThreadID: 2, Thread: "radio"},
		{Kind: dispatch.EventLog, Timestamp: 0.1, ThreadID: 2, Level: metric.Info, Message: "hello", SourceFile: "test.c", SourceLine: 7},
		{Kind: dispatch.EventValue, Timestamp: 0.2, Name: "count", Value: typedef.Uint(4)},
		{Kind: dispatch.EventValue, Timestamp: 0.3, Name: "label", Value: typedef.Text("x")},
		{Kind: dispatch.EventRaw, Message: "ignored"},
	}
	for _, event := range events {
		if err := sink.Handle(event); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trace: %v", err)
	}
	// process, thread, log, counter descriptor, counter sample
	if got := len(packets(t, data)); got != 5 {
		t.Errorf("trace has %d packets, want 5", got)
	}
}
