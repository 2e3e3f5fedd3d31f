// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// CSV writes recorded values as CSV tables, one file per value name,
// named "<name>.csv" in a directory. Each row is
//
//	timestamp,thread,<value columns...>
//
// The value columns come from flattening the first record of the name
// (see [typedef.Flatten]): scalars use a single "value" column, struct
// fields are dotted, array elements are indexed. Later records with a
// different shape fill the columns they share and leave the rest empty.
// Names that sanitize to the same file name ("a/b" and "a_b") get a
// numeric suffix in order of first appearance: a_b.csv, a_b_2.csv.
type CSV struct {
	directory string
	tables    map[string]*csvTable

	// used holds the file names already taken.
	used map[string]bool
}

type csvTable struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
	index   map[string]int
}

// NewCSV returns a sink writing into directory, which is created if
// needed. Files are created on the first record of each name.
func NewCSV(directory string) (*CSV, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating CSV directory: %w", err)
	}
	return &CSV{
		directory: directory,
		tables:    make(map[string]*csvTable),
		used:      make(map[string]bool),
	}, nil
}

// Handle appends a row for value events and ignores everything else.
func (c *CSV) Handle(event dispatch.Event) error {
	if event.Kind != dispatch.EventValue || event.Value == nil {
		return nil
	}

	flat := typedef.Flatten("", event.Value)
	table, ok := c.tables[event.Name]
	if !ok {
		var err error
		table, err = c.open(event.Name, flat)
		if err != nil {
			return err
		}
		c.tables[event.Name] = table
	}

	row := make([]string, 2+len(table.columns))
	row[0] = strconv.FormatFloat(event.Timestamp, 'f', 6, 64)
	row[1] = event.Thread
	for _, column := range flat {
		if position, ok := table.index[columnName(column.Column)]; ok {
			row[2+position] = column.Value.String()
		}
	}
	if err := table.writer.Write(row); err != nil {
		return fmt.Errorf("writing %s.csv: %w", event.Name, err)
	}
	return nil
}

func (c *CSV) open(name string, flat []typedef.FlatColumn) (*csvTable, error) {
	base := fileName(name)
	unique := base
	for suffix := 2; c.used[unique]; suffix++ {
		unique = base + "_" + strconv.Itoa(suffix)
	}
	c.used[unique] = true

	path := filepath.Join(c.directory, unique+".csv")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating CSV for %q: %w", name, err)
	}
	table := &csvTable{
		file:   file,
		writer: csv.NewWriter(file),
		index:  make(map[string]int, len(flat)),
	}
	for _, column := range flat {
		label := columnName(column.Column)
		table.index[label] = len(table.columns)
		table.columns = append(table.columns, label)
	}
	header := append([]string{"timestamp", "thread"}, table.columns...)
	if err := table.writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing CSV header for %q: %w", name, err)
	}
	return table, nil
}

// Close flushes and closes every file.
func (c *CSV) Close() error {
	var errs []error
	for name, table := range c.tables {
		table.writer.Flush()
		if err := table.writer.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flushing %s.csv: %w", name, err))
		}
		if err := table.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.tables = nil
	return errors.Join(errs...)
}

func columnName(column string) string {
	if column == "" {
		return "value"
	}
	return column
}

// fileName replaces path separators so a value name cannot escape the
// output directory.
func fileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	cleaned := replacer.Replace(name)
	if cleaned == "" {
		return "_"
	}
	return cleaned
}
