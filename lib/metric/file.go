// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/minlog/lib/typedef"
)

// File is the metadata written by the build step and read by decoders.
type File struct {
	Entries  []Definition        `json:"entries"`
	TypeDefs *typedef.Dictionary `json:"type_defs"`

	// Fingerprint is a hex BLAKE3 digest of Entries and TypeDefs. It
	// lets a decoder detect a metadata file edited by hand or mixed up
	// with a different build. Empty in files written by older tools.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// fingerprintKey separates metadata digests from any other BLAKE3 use.
var fingerprintKey = [32]byte{
	'm', 'i', 'n', 'l', 'o', 'g', '.', 'm', 'e', 't', 'a', 'd', 'a', 't', 'a',
}

// ComputeFingerprint returns the digest of the entries and type
// dictionary in their canonical JSON encoding.
func (f *File) ComputeFingerprint() (string, error) {
	canonical, err := json.Marshal(struct {
		Entries  []Definition        `json:"entries"`
		TypeDefs *typedef.Dictionary `json:"type_defs"`
	}{f.entries(), f.typeDefs()})
	if err != nil {
		return "", fmt.Errorf("encoding metadata for fingerprint: %w", err)
	}
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("metric: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(canonical)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Table indexes the file's entries.
func (f *File) Table() (*Table, error) {
	return NewTable(f.Entries)
}

// Resolver returns a type resolver over the file's dictionary.
func (f *File) Resolver() *typedef.Resolver {
	return typedef.NewResolver(f.typeDefs())
}

func (f *File) entries() []Definition {
	if f.Entries == nil {
		return []Definition{}
	}
	return f.Entries
}

func (f *File) typeDefs() *typedef.Dictionary {
	if f.TypeDefs == nil {
		return typedef.NewDictionary()
	}
	return f.TypeDefs
}

// Write stamps the fingerprint and writes indented JSON to w.
func (f *File) Write(w io.Writer) error {
	fingerprint, err := f.ComputeFingerprint()
	if err != nil {
		return err
	}
	f.Fingerprint = fingerprint

	output := struct {
		Entries     []Definition        `json:"entries"`
		TypeDefs    *typedef.Dictionary `json:"type_defs"`
		Fingerprint string              `json:"fingerprint"`
	}{f.entries(), f.typeDefs(), f.Fingerprint}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// WriteFile writes the metadata to path, creating parent directories.
// The file is written to a temporary name first and renamed into place.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return err
	}
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Parse decodes metadata. Comments and trailing commas are accepted. A
// bare JSON array is read as a list of entries with no type
// dictionary. A present fingerprint must match the content.
func Parse(data []byte) (*File, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	file := &File{}

	if len(stripped) > 0 && stripped[0] == '[' {
		if err := json.Unmarshal(stripped, &file.Entries); err != nil {
			return nil, fmt.Errorf("parsing metadata entries: %w", err)
		}
		file.TypeDefs = typedef.NewDictionary()
		return file, nil
	}

	if err := json.Unmarshal(stripped, file); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	if file.TypeDefs == nil {
		file.TypeDefs = typedef.NewDictionary()
	}

	if file.Fingerprint != "" {
		computed, err := file.ComputeFingerprint()
		if err != nil {
			return nil, err
		}
		if computed != file.Fingerprint {
			return nil, fmt.Errorf("metadata fingerprint mismatch: file says %s, content hashes to %s",
				file.Fingerprint, computed)
		}
	}
	return file, nil
}

// Load reads and parses a metadata file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}
