// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import (
	"fmt"
	"sort"

	"github.com/bureau-foundation/minlog/lib/metric"
)

// role is the meaning of one macro argument position.
type role int

const (
	roleSeverity role = iota
	roleMessage
	roleName
	roleType
	roleValue
	roleCount
)

// variant describes one macro name: its kind, the role of each
// argument (excluding the explicit ID), and the value type implied by
// the macro itself.
type variant struct {
	kind      metric.Kind
	roles     []role
	valueType string
	isArray   bool
	explicit  bool

	// trailingMessage allows one more argument, a message template,
	// after the last role.
	trailingMessage bool
}

// arity is the exact number of arguments the macro takes.
func (v variant) arity() int {
	if v.explicit {
		return len(v.roles) + 1
	}
	return len(v.roles)
}

// layoutFor returns the layout matching count arguments. A variant
// with an optional trailing message matches both its arity and one more.
func (v variant) layoutFor(count int) (variant, error) {
	if count == v.arity() {
		return v, nil
	}
	if v.trailingMessage && count == v.arity()+1 {
		withMessage := v
		withMessage.roles = append(append([]role(nil), v.roles...), roleMessage)
		withMessage.trailingMessage = false
		return withMessage, nil
	}
	if v.trailingMessage {
		return variant{}, fmt.Errorf("takes %d or %d arguments, got %d", v.arity(), v.arity()+1, count)
	}
	return variant{}, fmt.Errorf("takes %d arguments, got %d", v.arity(), count)
}

// variants maps macro names (without Prefix) to their layouts.
var variants = buildVariants()

func buildVariants() map[string]variant {
	base := map[string]variant{
		"LOG":   {kind: metric.Log, roles: []role{roleSeverity, roleMessage}},
		"ENTER": {kind: metric.Enter, roles: []role{roleSeverity, roleName}},
		"EXIT":  {kind: metric.Exit, roles: []role{roleSeverity, roleName}},
	}

	records := map[string]variant{
		"RECORD_STRING": {
			roles:     []role{roleSeverity, roleName, roleValue},
			valueType: "s",
			isArray:   true,
		},
		"RECORD_U64": {
			roles:     []role{roleSeverity, roleName, roleValue},
			valueType: "uint64_t",
		},
		"RECORD_VALUE": {
			roles: []role{roleSeverity, roleName, roleType, roleValue},
		},
		"RECORD_VALUE_ARRAY": {
			roles:   []role{roleSeverity, roleName, roleType, roleValue, roleCount},
			isArray: true,
		},
	}
	for name, record := range records {
		record.kind = metric.Record
		record.trailingMessage = true
		base[name] = record

		// RECORD_AND_LOG_* spells out the message form.
		logged := record
		logged.roles = append(append([]role(nil), record.roles...), roleMessage)
		logged.trailingMessage = false
		base["RECORD_AND_LOG_"+name[len("RECORD_"):]] = logged
	}

	all := make(map[string]variant, 2*len(base))
	for name, layout := range base {
		all[name] = layout
		layout.explicit = true
		all[name+"_ID"] = layout
	}
	return all
}

// MacroNames returns every recognized macro name with Prefix, sorted.
func MacroNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, Prefix+name)
	}
	sort.Strings(names)
	return names
}
