// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type sampleRecord struct {
	Kind      string  `cbor:"kind"`
	Timestamp float64 `cbor:"ts"`
	Name      string  `cbor:"name,omitempty"`
	Value     any     `cbor:"value,omitempty"`
}

// level marshals as text, like metric.Kind.
type level int

func (l level) MarshalText() ([]byte, error) {
	return []byte(strings.Repeat("!", int(l))), nil
}

func (l *level) UnmarshalText(text []byte) error {
	*l = level(len(text))
	return nil
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	record := sampleRecord{Kind: "value", Timestamp: 1.5, Name: "pos",
		Value: map[string]any{"y": int64(2), "x": int64(1)}}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestAnyMapsDecodeWithStringKeys(t *testing.T) {
	t.Parallel()

	data, err := Marshal(sampleRecord{Kind: "value", Value: map[string]any{"x": int64(-1)}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	fields, ok := decoded.Value.(map[string]any)
	if !ok {
		t.Fatalf("Value decoded as %T, want map[string]any", decoded.Value)
	}
	if fields["x"] != int64(-1) {
		t.Errorf("x = %#v", fields["x"])
	}
}

func TestTextMarshalerRoundtrip(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Level level `cbor:"level"`
	}
	data, err := Marshal(wrapper{Level: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, rest, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diagnostic != `{"level": "!!!"}` || len(rest) != 0 {
		t.Errorf("Diagnose = %q (rest %x)", diagnostic, rest)
	}

	var decoded wrapper
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Level != 3 {
		t.Errorf("Level = %d, want 3", decoded.Level)
	}
}

func TestSequenceRoundtrip(t *testing.T) {
	t.Parallel()

	records := []sampleRecord{
		{Kind: "log", Timestamp: 0.25},
		{Kind: "value", Timestamp: 0.5, Name: "n", Value: uint64(5)},
		{Kind: "raw", Timestamp: 0},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var decoded []sampleRecord
	for {
		var record sampleRecord
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		decoded = append(decoded, record)
	}
	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}
	if decoded[1].Value != uint64(5) || decoded[0].Timestamp != 0.25 {
		t.Errorf("decoded = %+v", decoded)
	}
}
