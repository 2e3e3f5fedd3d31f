// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleDictionary = `{
	// Geometry types shared with the firmware.
	"Rect": {
		"y": "float",
		"x": "float",
		"w": "uint16_t",
		"h": "uint16_t",
	},
	"int": "int32_t", /* ILP32 target */
	"Name": "16s",
}`

func TestParsePreservesOrder(t *testing.T) {
	t.Parallel()

	dictionary, err := Parse([]byte(sampleDictionary))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if want := []string{"Rect", "int", "Name"}; !reflect.DeepEqual(dictionary.Names(), want) {
		t.Errorf("Names() = %v, want %v", dictionary.Names(), want)
	}

	rect, ok := dictionary.Lookup("Rect")
	if !ok || !rect.IsStruct() {
		t.Fatalf("Rect = %+v, want struct", rect)
	}
	var fields []string
	for _, field := range rect.Fields {
		fields = append(fields, field.Name)
	}
	if want := []string{"y", "x", "w", "h"}; !reflect.DeepEqual(fields, want) {
		t.Errorf("Rect fields = %v, want declaration order %v", fields, want)
	}

	alias, _ := dictionary.Lookup("int")
	if alias.IsStruct() || alias.Alias != "int32_t" {
		t.Errorf("int = %+v, want alias of int32_t", alias)
	}
}

func TestMarshalPreservesOrder(t *testing.T) {
	t.Parallel()

	dictionary, err := Parse([]byte(sampleDictionary))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	encoded, err := json.Marshal(dictionary)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"Rect":{"y":"float","x":"float","w":"uint16_t","h":"uint16_t"},"int":"int32_t","Name":"16s"}`
	if string(encoded) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", encoded, want)
	}
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"number definition": `{"A": 4}`,
		"number field":      `{"A": {"x": 4}}`,
		"duplicate type":    `{"A": "H", "A": "I"}`,
		"duplicate field":   `{"A": {"x": "H", "x": "I"}}`,
		"not an object":     `["A"]`,
	}
	for name, input := range tests {
		if _, err := Parse([]byte(input)); err == nil {
			t.Errorf("%s: Parse(%s) succeeded, want error", name, input)
		}
	}
}

func TestEmptyStructIsStruct(t *testing.T) {
	t.Parallel()

	dictionary, err := Parse([]byte(`{"Empty": {}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def, _ := dictionary.Lookup("Empty")
	if !def.IsStruct() {
		t.Error("an empty object should parse as a struct")
	}
	size, err := NewResolver(dictionary).Size("Empty")
	if err != nil || size != 0 {
		t.Errorf("Size(Empty) = %d, %v; want 0", size, err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "types.jsonc")
	if err := os.WriteFile(path, []byte(sampleDictionary), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dictionary, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if dictionary.Len() != 3 {
		t.Errorf("Len() = %d, want 3", dictionary.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("LoadFile of a missing file should fail")
	}
}

func TestNilDictionary(t *testing.T) {
	t.Parallel()

	var dictionary *Dictionary
	if _, ok := dictionary.Lookup("x"); ok {
		t.Error("nil dictionary should have no entries")
	}
	if dictionary.Len() != 0 || dictionary.Names() != nil {
		t.Error("nil dictionary should be empty")
	}
}
