// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/minlog/lib/typedef"
)

// State is the mutable memory of one decoding session.
type State struct {
	// LastValues holds the most recent value recorded under each name.
	LastValues map[string]typedef.Value

	// ThreadNames holds names announced on the thread-name channel.
	ThreadNames map[uint8]string

	// UnknownIDs are identifiers seen in the stream but absent from
	// the metadata. Each is warned about once.
	UnknownIDs map[uint32]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		LastValues:  make(map[string]typedef.Value),
		ThreadNames: make(map[uint8]string),
		UnknownIDs:  make(map[uint32]struct{}),
	}
}

// ThreadName returns the announced name of thread, or "thread_id_<n>".
func (s *State) ThreadName(thread uint8) string {
	if name, ok := s.ThreadNames[thread]; ok {
		return name
	}
	return "thread_id_" + strconv.Itoa(int(thread))
}

// SortedUnknownIDs returns UnknownIDs in ascending order.
func (s *State) SortedUnknownIDs() []uint32 {
	ids := make([]uint32, 0, len(s.UnknownIDs))
	for id := range s.UnknownIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Substitute replaces every ${name} in template with the string form of
// the last value recorded under name. References to names that have
// not been recorded, and empty ${}, are left as written.
func (s *State) Substitute(template string) string {
	var result strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "${")
		if open < 0 {
			break
		}
		length := strings.IndexByte(rest[open+2:], '}')
		if length < 0 {
			break
		}
		if length == 0 {
			result.WriteString(rest[:open+3])
			rest = rest[open+3:]
			continue
		}

		result.WriteString(rest[:open])
		name := rest[open+2 : open+2+length]
		if value, ok := s.LastValues[name]; ok && value != nil {
			result.WriteString(value.String())
		} else {
			result.WriteString(rest[open : open+3+length])
		}
		rest = rest[open+3+length:]
	}
	result.WriteString(rest)
	return result.String()
}
