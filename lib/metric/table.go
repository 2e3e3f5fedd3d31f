// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"fmt"
	"sort"
)

// Table is an immutable set of definitions indexed by ID. Entry order
// is the order the definitions were supplied in.
type Table struct {
	entries []Definition
	byID    map[uint32]int
}

// NewTable indexes definitions. Duplicate and reserved identifiers are
// rejected.
func NewTable(definitions []Definition) (*Table, error) {
	table := &Table{
		entries: make([]Definition, len(definitions)),
		byID:    make(map[uint32]int, len(definitions)),
	}
	copy(table.entries, definitions)
	for index, definition := range table.entries {
		if IsReserved(definition.ID) {
			return nil, fmt.Errorf("%s: metric id %s is reserved", definition.Location(), HexID(definition.ID))
		}
		if previous, exists := table.byID[definition.ID]; exists {
			return nil, fmt.Errorf("duplicate metric id %s at %s and %s",
				HexID(definition.ID), table.entries[previous].Location(), definition.Location())
		}
		table.byID[definition.ID] = index
	}
	return table, nil
}

// Lookup returns the definition for id.
func (t *Table) Lookup(id uint32) (*Definition, bool) {
	index, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.entries[index], true
}

// Entries returns a copy of the definitions in table order.
func (t *Table) Entries() []Definition {
	entries := make([]Definition, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.entries)
}

// Collision is a group of definitions that share a truncated 16-bit
// identifier. The micro wire format cannot tell them apart; decoders
// attribute frames to the last entry in table order.
type Collision struct {
	Truncated uint16
	IDs       []uint32
}

// TruncationCollisions lists every truncated identifier claimed by more
// than one definition, or by a definition and ThreadNameID. Results are
// sorted by truncated value.
func (t *Table) TruncationCollisions() []Collision {
	groups := map[uint16][]uint32{
		Truncate(ThreadNameID): {ThreadNameID},
	}
	for _, definition := range t.entries {
		truncated := Truncate(definition.ID)
		groups[truncated] = append(groups[truncated], definition.ID)
	}

	var collisions []Collision
	for truncated, ids := range groups {
		if len(ids) > 1 {
			collisions = append(collisions, Collision{Truncated: truncated, IDs: ids})
		}
	}
	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Truncated < collisions[j].Truncated
	})
	return collisions
}
