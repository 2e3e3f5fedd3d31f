// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// FieldDef is one struct member: a field name and the type reference
// of its value.
type FieldDef struct {
	Name string
	Type string
}

// TypeDef is a single dictionary entry. Exactly one form is active:
// an alias (Fields is nil) or a struct (Fields is non-nil, possibly
// empty).
type TypeDef struct {
	// Alias is the type reference this name stands for, such as
	// "int32_t" or "4f". Empty for struct definitions.
	Alias string

	// Fields lists struct members in declaration order.
	Fields []FieldDef
}

// IsStruct reports whether the definition is a field list rather than
// an alias.
func (t TypeDef) IsStruct() bool {
	return t.Fields != nil
}

// AliasOf returns an alias definition.
func AliasOf(ref string) TypeDef {
	return TypeDef{Alias: ref}
}

// StructOf returns a struct definition from alternating name/type
// pairs. Panics on an odd argument count (programming error).
func StructOf(namesAndTypes ...string) TypeDef {
	if len(namesAndTypes)%2 != 0 {
		panic("typedef.StructOf: odd number of arguments")
	}
	fields := make([]FieldDef, 0, len(namesAndTypes)/2)
	for i := 0; i < len(namesAndTypes); i += 2 {
		fields = append(fields, FieldDef{Name: namesAndTypes[i], Type: namesAndTypes[i+1]})
	}
	return TypeDef{Fields: fields}
}

// Dictionary maps user type names to definitions, remembering the
// order in which names were declared. The zero value is an empty
// dictionary ready for use. A nil *Dictionary behaves as empty for
// lookups.
type Dictionary struct {
	names []string
	defs  map[string]TypeDef
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{}
}

// Set adds or replaces a definition. A new name is appended to the
// declaration order; replacing keeps the original position.
func (d *Dictionary) Set(name string, def TypeDef) {
	if d.defs == nil {
		d.defs = make(map[string]TypeDef)
	}
	if _, exists := d.defs[name]; !exists {
		d.names = append(d.names, name)
	}
	d.defs[name] = def
}

// Lookup returns the definition for name.
func (d *Dictionary) Lookup(name string) (TypeDef, bool) {
	if d == nil {
		return TypeDef{}, false
	}
	def, ok := d.defs[name]
	return def, ok
}

// Names returns the declared type names in declaration order.
func (d *Dictionary) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Len returns the number of definitions.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Parse decodes a JSONC type dictionary. Each top-level key is a type
// name; its value is either a string (alias) or an object mapping field
// names to type references.
func Parse(data []byte) (*Dictionary, error) {
	dict := NewDictionary()
	if err := json.Unmarshal(jsonc.ToJSON(data), dict); err != nil {
		return nil, fmt.Errorf("parsing type dictionary: %w", err)
	}
	return dict, nil
}

// LoadFile reads and parses a JSONC type dictionary from disk.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type dictionary: %w", err)
	}
	dict, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dict, nil
}

// UnmarshalJSON decodes an object while preserving key order. Duplicate
// type names are rejected.
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	d.names = nil
	d.defs = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return walkObject(data, func(name string, raw json.RawMessage) error {
		if _, exists := d.Lookup(name); exists {
			return fmt.Errorf("type %q defined twice", name)
		}
		def, err := parseTypeDef(raw)
		if err != nil {
			return fmt.Errorf("type %q: %w", name, err)
		}
		d.Set(name, def)
		return nil
	})
}

// MarshalJSON encodes the dictionary with keys in declaration order.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, name := range d.Names() {
		if i > 0 {
			buffer.WriteByte(',')
		}
		writeJSONString(&buffer, name)
		buffer.WriteByte(':')
		def := d.defs[name]
		if !def.IsStruct() {
			writeJSONString(&buffer, def.Alias)
			continue
		}
		buffer.WriteByte('{')
		for j, field := range def.Fields {
			if j > 0 {
				buffer.WriteByte(',')
			}
			writeJSONString(&buffer, field.Name)
			buffer.WriteByte(':')
			writeJSONString(&buffer, field.Type)
		}
		buffer.WriteByte('}')
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func parseTypeDef(raw json.RawMessage) (TypeDef, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return TypeDef{}, fmt.Errorf("empty definition")
	}
	switch trimmed[0] {
	case '"':
		var alias string
		if err := json.Unmarshal(trimmed, &alias); err != nil {
			return TypeDef{}, err
		}
		return AliasOf(alias), nil
	case '{':
		def := TypeDef{Fields: []FieldDef{}}
		err := walkObject(trimmed, func(name string, value json.RawMessage) error {
			for _, existing := range def.Fields {
				if existing.Name == name {
					return fmt.Errorf("field %q declared twice", name)
				}
			}
			var ref string
			if err := json.Unmarshal(value, &ref); err != nil {
				return fmt.Errorf("field %q: type must be a string", name)
			}
			def.Fields = append(def.Fields, FieldDef{Name: name, Type: ref})
			return nil
		})
		return def, err
	default:
		return TypeDef{}, fmt.Errorf("definition must be a string or an object")
	}
}

// walkObject calls visit for each key of a JSON object in source order.
func walkObject(data []byte, visit func(key string, value json.RawMessage) error) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object")
	}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", token)
		}
		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		if err := visit(key, value); err != nil {
			return err
		}
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	return nil
}

func writeJSONString(buffer *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	buffer.Write(encoded)
}
