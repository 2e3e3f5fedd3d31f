// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ParseRef splits a type reference into its repeat count and base
// name. A reference without a leading count has count 1. Whitespace
// around the reference and between the count and the name is ignored.
func ParseRef(ref string) (int, string, error) {
	ref = strings.TrimSpace(ref)
	digits := 0
	for digits < len(ref) && ref[digits] >= '0' && ref[digits] <= '9' {
		digits++
	}
	base := strings.TrimSpace(ref[digits:])
	if base == "" {
		return 0, "", fmt.Errorf("invalid type reference %q: missing type name", ref)
	}
	if digits == 0 {
		return 1, base, nil
	}
	count, err := strconv.Atoi(ref[:digits])
	if err != nil {
		return 0, "", fmt.Errorf("invalid type reference %q: %w", ref, err)
	}
	if count <= 0 {
		return 0, "", fmt.Errorf("invalid type reference %q: count must be positive", ref)
	}
	return count, base, nil
}

// ArrayOf returns the reference for count consecutive elements of ref.
// The counts multiply: ArrayOf("2H", 3) is "6H".
func ArrayOf(ref string, count int) (string, error) {
	inner, base, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	if count <= 0 {
		return "", fmt.Errorf("array of %q: count must be positive, got %d", ref, count)
	}
	return strconv.Itoa(inner*count) + base, nil
}

// Resolver turns type references into decode plans against a fixed
// dictionary. Safe for concurrent use.
type Resolver struct {
	dictionary *Dictionary

	mu    sync.Mutex
	cache map[string]*Plan
}

// NewResolver returns a resolver over dictionary, which may be nil for
// built-in types only. The dictionary must not be modified afterwards.
func NewResolver(dictionary *Dictionary) *Resolver {
	return &Resolver{
		dictionary: dictionary,
		cache:      make(map[string]*Plan),
	}
}

// Dictionary returns the dictionary the resolver was built with.
func (r *Resolver) Dictionary() *Dictionary {
	return r.dictionary
}

// Resolve returns the plan for ref.
func (r *Resolver) Resolve(ref string) (*Plan, error) {
	key := strings.TrimSpace(ref)

	r.mu.Lock()
	plan, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return plan, nil
	}

	plan, err := r.resolve(key, nil)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = plan
	r.mu.Unlock()
	return plan, nil
}

// Size returns the byte width of ref without decoding anything.
func (r *Resolver) Size(ref string) (int, error) {
	plan, err := r.Resolve(ref)
	if err != nil {
		return 0, err
	}
	return plan.Size, nil
}

// resolve walks ref with chain holding the dictionary names currently
// being expanded.
func (r *Resolver) resolve(ref string, chain []string) (*Plan, error) {
	count, base, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	if code, ok := primitiveCode(base); ok {
		return primitivePlan(ref, code, count), nil
	}

	def, ok := r.dictionary.Lookup(base)
	if !ok {
		if code, ok := builtinTypes[base]; ok {
			return primitivePlan(ref, code, count), nil
		}
		return nil, &UnknownTypeError{Name: base, ArchitectureDependent: architectureTypes[base]}
	}

	if slices.Contains(chain, base) {
		loop := make([]string, 0, len(chain)+1)
		loop = append(loop, chain...)
		return nil, &CycleError{Chain: append(loop, base)}
	}
	chain = append(slices.Clip(chain), base)

	if !def.IsStruct() {
		inner, aliasBase, err := ParseRef(def.Alias)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", base, err)
		}
		plan, err := r.resolve(strconv.Itoa(count*inner)+aliasBase, chain)
		if err != nil {
			return nil, err
		}
		return plan.withRef(ref), nil
	}

	element := &Plan{Kind: KindStruct, Ref: base, Count: 1}
	for _, field := range def.Fields {
		fieldPlan, err := r.resolve(field.Type, chain)
		if err != nil {
			return nil, fmt.Errorf("type %q field %q: %w", base, field.Name, err)
		}
		element.Fields = append(element.Fields, PlanField{Name: field.Name, Plan: fieldPlan})
		element.Size += fieldPlan.Size
	}
	if count == 1 {
		element.Ref = ref
		return element, nil
	}
	return &Plan{
		Kind:  KindArray,
		Ref:   ref,
		Count: count,
		Elem:  element,
		Size:  element.Size * count,
	}, nil
}
