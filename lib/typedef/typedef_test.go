// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typedef

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestParseRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref       string
		wantCount int
		wantBase  string
		wantErr   bool
	}{
		{ref: "uint16_t", wantCount: 1, wantBase: "uint16_t"},
		{ref: "2uint16_t", wantCount: 2, wantBase: "uint16_t"},
		{ref: " 16s ", wantCount: 16, wantBase: "s"},
		{ref: "3 unsigned char", wantCount: 3, wantBase: "unsigned char"},
		{ref: "Rect", wantCount: 1, wantBase: "Rect"},
		{ref: "12", wantErr: true},
		{ref: "", wantErr: true},
		{ref: "0H", wantErr: true},
	}

	for _, test := range tests {
		count, base, err := ParseRef(test.ref)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseRef(%q) = (%d, %q), want error", test.ref, count, base)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRef(%q): %v", test.ref, err)
			continue
		}
		if count != test.wantCount || base != test.wantBase {
			t.Errorf("ParseRef(%q) = (%d, %q), want (%d, %q)",
				test.ref, count, base, test.wantCount, test.wantBase)
		}
	}
}

func TestArrayOf(t *testing.T) {
	t.Parallel()

	ref, err := ArrayOf("2H", 3)
	if err != nil {
		t.Fatalf("ArrayOf: %v", err)
	}
	if ref != "6H" {
		t.Errorf("ArrayOf(2H, 3) = %q, want 6H", ref)
	}
	if _, err := ArrayOf("H", 0); err == nil {
		t.Error("ArrayOf with zero count should fail")
	}
}

func TestResolveCountPrefixedBuiltin(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil)
	plan, err := resolver.Resolve("2uint16_t")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Size != 4 {
		t.Fatalf("size = %d, want 4", plan.Size)
	}

	value, err := plan.Decode([]byte{0x01, 0x00, 0x02, 0x00})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Array{Uint(1), Uint(2)}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("Decode = %#v, want %#v", value, want)
	}
}

func TestResolvePrimitiveSizes(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil)
	tests := map[string]int{
		"b": 1, "B": 1, "?": 1, "c": 1, "x": 1,
		"h": 2, "H": 2,
		"i": 4, "I": 4, "l": 4, "L": 4, "f": 4,
		"q": 8, "Q": 8, "d": 8,
		"10s":         10,
		"4x":          4,
		"double":      8,
		"long double": 8,
		"3int64_t":    24,
		"bool":        1,
	}
	for ref, want := range tests {
		size, err := resolver.Size(ref)
		if err != nil {
			t.Errorf("Size(%q): %v", ref, err)
			continue
		}
		if size != want {
			t.Errorf("Size(%q) = %d, want %d", ref, size, want)
		}
	}
}

func TestResolveRejectsArchitectureTypes(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil)
	for _, name := range []string{"int", "long", "unsigned long int", "size_t", "ptrdiff_t"} {
		_, err := resolver.Resolve(name)
		var unknown *UnknownTypeError
		if !errors.As(err, &unknown) {
			t.Errorf("Resolve(%q): got %v, want UnknownTypeError", name, err)
			continue
		}
		if !unknown.ArchitectureDependent {
			t.Errorf("Resolve(%q): ArchitectureDependent = false", name)
		}
	}
}

func TestResolveDictionaryOverridesBuiltin(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("int", AliasOf("i"))
	dictionary.Set("double", AliasOf("f"))
	resolver := NewResolver(dictionary)

	if size, err := resolver.Size("2int"); err != nil || size != 8 {
		t.Errorf("Size(2int) = %d, %v; want 8", size, err)
	}
	if size, err := resolver.Size("double"); err != nil || size != 4 {
		t.Errorf("Size(double) = %d, %v; want 4", size, err)
	}
}

func TestResolveUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewResolver(nil).Resolve("Widget")
	var unknown *UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownTypeError", err)
	}
	if unknown.Name != "Widget" || unknown.ArchitectureDependent {
		t.Errorf("unexpected error fields: %+v", unknown)
	}
}

func rectDictionary() *Dictionary {
	dictionary := NewDictionary()
	dictionary.Set("Point", StructOf("x", "float", "y", "float"))
	dictionary.Set("Rect", StructOf("origin", "Point", "width", "H", "height", "H"))
	return dictionary
}

func littleEndianFloat(value float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(value))
}

func TestDecodeStruct(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(rectDictionary())
	plan, err := resolver.Resolve("Rect")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Size != 12 {
		t.Fatalf("size = %d, want 12", plan.Size)
	}

	var data []byte
	data = append(data, littleEndianFloat(1.5)...)
	data = append(data, littleEndianFloat(-2)...)
	data = binary.LittleEndian.AppendUint16(data, 640)
	data = binary.LittleEndian.AppendUint16(data, 480)

	value, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Struct{
		{Name: "origin", Value: Struct{{Name: "x", Value: Float(1.5)}, {Name: "y", Value: Float(-2)}}},
		{Name: "width", Value: Uint(640)},
		{Name: "height", Value: Uint(480)},
	}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("Decode = %#v, want %#v", value, want)
	}
	if got := value.String(); got != "{origin: {x: 1.5, y: -2.0}, width: 640, height: 480}" {
		t.Errorf("String() = %q", got)
	}
}

func TestDecodeStructArray(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(rectDictionary())
	plan, err := resolver.Resolve("2Point")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Kind != KindArray || plan.Count != 2 || plan.Size != 16 {
		t.Fatalf("plan = kind %d count %d size %d, want array of 2, 16 bytes", plan.Kind, plan.Count, plan.Size)
	}

	var data []byte
	for _, f := range []float32{1, 2, 3, 4} {
		data = append(data, littleEndianFloat(f)...)
	}
	value, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	points, ok := value.(Array)
	if !ok || len(points) != 2 {
		t.Fatalf("Decode = %#v, want two points", value)
	}
	second, ok := points[1].(Struct)
	if !ok {
		t.Fatalf("element = %T, want Struct", points[1])
	}
	if y, _ := second.Get("y"); y != Float(4) {
		t.Errorf("points[1].y = %v, want 4", y)
	}
}

func TestResolveAliasMultipliesCount(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("Vec3", AliasOf("3f"))
	dictionary.Set("Id", AliasOf("uint32_t"))
	resolver := NewResolver(dictionary)

	plan, err := resolver.Resolve("2Vec3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Size != 24 || plan.Kind != KindArray || plan.Count != 6 {
		t.Errorf("2Vec3 = kind %d count %d size %d, want 6 floats", plan.Kind, plan.Count, plan.Size)
	}
	if plan.Ref != "2Vec3" {
		t.Errorf("Ref = %q, want 2Vec3", plan.Ref)
	}

	plan, err = resolver.Resolve("Id")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Kind != KindScalar || plan.Size != 4 {
		t.Errorf("Id = kind %d size %d, want scalar of 4", plan.Kind, plan.Size)
	}
}

func TestResolveDirectCycle(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("Node", StructOf("value", "H", "next", "Node"))

	_, err := NewResolver(dictionary).Resolve("Node")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want CycleError", err)
	}
	if want := []string{"Node", "Node"}; !reflect.DeepEqual(cycle.Chain, want) {
		t.Errorf("Chain = %v, want %v", cycle.Chain, want)
	}
}

func TestResolveTransitiveCycle(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("A", StructOf("b", "B"))
	dictionary.Set("B", AliasOf("2C"))
	dictionary.Set("C", StructOf("flag", "?", "a", "A"))

	_, err := NewResolver(dictionary).Resolve("A")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want CycleError", err)
	}
	if want := []string{"A", "B", "C", "A"}; !reflect.DeepEqual(cycle.Chain, want) {
		t.Errorf("Chain = %v, want %v", cycle.Chain, want)
	}
	if !strings.Contains(err.Error(), "A -> B -> C -> A") {
		t.Errorf("error %q does not name the full chain", err)
	}
}

func TestResolveRepeatedNonCyclicReference(t *testing.T) {
	t.Parallel()

	// Two fields of the same type are not a cycle.
	dictionary := NewDictionary()
	dictionary.Set("Point", StructOf("x", "h", "y", "h"))
	dictionary.Set("Line", StructOf("from", "Point", "to", "Point"))

	size, err := NewResolver(dictionary).Size("Line")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 8 {
		t.Errorf("size = %d, want 8", size)
	}
}

func TestDecodePadding(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("Packed", StructOf("kind", "B", "_pad", "3x", "count", "I"))
	plan, err := NewResolver(dictionary).Resolve("Packed")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if plan.Size != 8 {
		t.Fatalf("size = %d, want 8", plan.Size)
	}

	value, err := plan.Decode([]byte{7, 0xEE, 0xEE, 0xEE, 0x10, 0, 0, 0})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Struct{{Name: "kind", Value: Uint(7)}, {Name: "count", Value: Uint(16)}}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("Decode = %#v, want %#v", value, want)
	}

	padOnly, err := NewResolver(nil).Resolve("2x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	value, err = padOnly.Decode([]byte{1, 2})
	if err != nil || value != nil {
		t.Errorf("pad-only Decode = %v, %v; want nil value", value, err)
	}
}

func TestDecodeStrings(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil)
	plan, err := resolver.Resolve("8s")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	value, err := plan.Decode([]byte("main\x00\x00\x00\x00"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if value != Text("main") {
		t.Errorf("Decode = %#v, want Text(main)", value)
	}

	raw := []byte{0xFF, 0x01, 'a', 0, 0, 0, 0, 0}
	value, err = plan.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	bytesValue, ok := value.(Bytes)
	if !ok || !reflect.DeepEqual([]byte(bytesValue), raw) {
		t.Errorf("Decode = %#v, want raw bytes", value)
	}
}

func TestDecodeSignedAndBool(t *testing.T) {
	t.Parallel()

	dictionary := NewDictionary()
	dictionary.Set("Mixed", StructOf("a", "int8_t", "b", "int16_t", "c", "int32_t", "d", "?"))
	plan, err := NewResolver(dictionary).Resolve("Mixed")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	value, err := plan.Decode([]byte{0xFF, 0xFE, 0xFF, 0xFD, 0xFF, 0xFF, 0xFF, 0x01})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Struct{
		{Name: "a", Value: Int(-1)},
		{Name: "b", Value: Int(-2)},
		{Name: "c", Value: Int(-3)},
		{Name: "d", Value: Bool(true)},
	}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("Decode = %#v, want %#v", value, want)
	}
}

func TestDecodeSizeMismatch(t *testing.T) {
	t.Parallel()

	plan, err := NewResolver(nil).Resolve("uint32_t")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	for _, data := range [][]byte{{1, 2}, {1, 2, 3, 4, 5}} {
		_, err := plan.Decode(data)
		var sizeErr *SizeError
		if !errors.As(err, &sizeErr) {
			t.Errorf("Decode(%d bytes): got %v, want SizeError", len(data), err)
			continue
		}
		if sizeErr.Want != 4 || sizeErr.Have != len(data) {
			t.Errorf("SizeError = %+v", sizeErr)
		}
	}
}

func TestResolverCachesPlans(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(rectDictionary())
	first, err := resolver.Resolve("Rect")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := resolver.Resolve(" Rect ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first != second {
		t.Error("expected the cached plan to be reused")
	}
}

func TestFloatString(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		1:        "1.0",
		-2:       "-2.0",
		0.25:     "0.25",
		0:        "0.0",
		1e16:     "1e+16",
		0.00001:  "1e-05",
		123456.5: "123456.5",
	}
	for input, want := range tests {
		if got := Float(input).String(); got != want {
			t.Errorf("Float(%v).String() = %q, want %q", input, got, want)
		}
	}
}

func TestValueStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Value
		want  string
	}{
		{Int(-5), "-5"},
		{Uint(5), "5"},
		{Bool(true), "true"},
		{Text("w1"), "w1"},
		{Bytes{0xde, 0xad}, "0xdead"},
		{Array{Uint(1), Uint(2)}, "[1, 2]"},
		{Array{Text("a"), Text("b")}, `["a", "b"]`},
		{Struct{{Name: "x", Value: Float(1)}}, "{x: 1.0}"},
	}
	for _, test := range tests {
		if got := test.value.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.value, got, test.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	value := Array{
		Struct{{Name: "x", Value: Int(1)}, {Name: "y", Value: Int(2)}},
		Struct{{Name: "x", Value: Int(3)}, {Name: "y", Value: Int(4)}},
	}
	columns := Flatten("rects", value)
	var names []string
	for _, column := range columns {
		names = append(names, column.Column)
	}
	want := []string{"rects[0].x", "rects[0].y", "rects[1].x", "rects[1].y"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("columns = %v, want %v", names, want)
	}

	scalar := Flatten("value", Uint(9))
	if len(scalar) != 1 || scalar[0].Column != "value" || scalar[0].Value != Uint(9) {
		t.Errorf("scalar flatten = %#v", scalar)
	}
}

func TestNumber(t *testing.T) {
	t.Parallel()

	if n, ok := Number(Int(-3)); !ok || n != -3 {
		t.Errorf("Number(Int) = %v, %v", n, ok)
	}
	if n, ok := Number(Bool(true)); !ok || n != 1 {
		t.Errorf("Number(Bool) = %v, %v", n, ok)
	}
	if _, ok := Number(Text("x")); ok {
		t.Error("Number(Text) should not be numeric")
	}
}
