// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfetto

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from perfetto/trace/trace_packet.proto and the track
// event protos it includes.
const (
	tracePacketField = 1

	packetTimestamp        = 8
	packetSequenceID       = 10
	packetTrackEvent       = 11
	packetInternedData     = 12
	packetSequenceFlags    = 13
	packetTrackDescriptor  = 60
	descriptorUUID         = 1
	descriptorName         = 2
	descriptorProcess      = 3
	descriptorThread       = 4
	descriptorParentUUID   = 5
	descriptorCounter      = 8
	processPID             = 1
	processName            = 6
	threadPID              = 1
	threadTID              = 2
	threadName             = 5
	eventType              = 9
	eventTrackUUID         = 11
	eventLogMessage        = 21
	eventName              = 23
	eventSourceLocationIID = 34
	eventDoubleCounter     = 44
	logSourceLocationIID   = 1
	logBodyIID             = 2
	logPriority            = 3
	internedSourceLocation = 4
	internedLogBody        = 20
	sourceLocationIID      = 1
	sourceLocationFile     = 2
	sourceLocationLine     = 4
	logBodyIIDField        = 1
	logBodyText            = 2
)

// TrackEvent.Type values.
const (
	typeSliceBegin = 1
	typeSliceEnd   = 2
	typeInstant    = 3
	typeCounter    = 4
)

// TracePacket.SequenceFlags values.
const (
	seqIncrementalStateCleared = 1
	seqNeedsIncrementalState   = 2
)

// LogMessage.Priority values.
const (
	priorityUnspecified = 0
	priorityDebug       = 3
	priorityInfo        = 4
	priorityWarn        = 5
	priorityError       = 6
	priorityFatal       = 7
)

// message accumulates the encoding of one protobuf message.
type message []byte

func (m message) varint(field protowire.Number, value uint64) message {
	m = protowire.AppendTag(m, field, protowire.VarintType)
	return protowire.AppendVarint(m, value)
}

func (m message) str(field protowire.Number, value string) message {
	m = protowire.AppendTag(m, field, protowire.BytesType)
	return protowire.AppendString(m, value)
}

func (m message) double(field protowire.Number, value float64) message {
	m = protowire.AppendTag(m, field, protowire.Fixed64Type)
	return protowire.AppendFixed64(m, math.Float64bits(value))
}

func (m message) embed(field protowire.Number, inner message) message {
	m = protowire.AppendTag(m, field, protowire.BytesType)
	return protowire.AppendBytes(m, inner)
}
