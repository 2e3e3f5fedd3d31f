// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/metric"
)

type inspectParams struct {
	configParams
	cli.JSONOutput
	Metadata string `flag:"metadata,m" desc:"metadata file written by build"`
}

type inspectEntry struct {
	ID          string `json:"id"`
	TruncatedID string `json:"truncated_id"`
	Kind        string `json:"kind"`
	Level       string `json:"level,omitempty"`
	Location    string `json:"location"`
	Name        string `json:"name,omitempty"`
	ValueType   string `json:"value_type,omitempty"`
	Message     string `json:"message,omitempty"`
}

type inspectCollision struct {
	TruncatedID string   `json:"truncated_id"`
	IDs         []string `json:"ids"`
}

type inspectResult struct {
	Metadata    string             `json:"metadata"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Types       []string           `json:"types"`
	Entries     []inspectEntry     `json:"entries"`
	Collisions  []inspectCollision `json:"collisions"`
}

func inspectCommand(streams Streams) *cli.Command {
	var params inspectParams
	command := &cli.Command{
		Name:    "inspect",
		Summary: "Show the identifiers in a metadata file",
		Description: `List every call site in a metadata file with its identifier, the
16-bit identifier the micro wire format carries, kind, level, source
location and name or message.

Call sites whose identifiers agree in the low 16 bits cannot be told
apart in micro captures; they are listed as collisions. A decoder
attributes such frames to the last of the colliding entries.`,
		Usage: "minlog inspect [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("inspect", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Check a build for micro-format collisions",
				Command:     "minlog inspect -m build/min_logger.json --json | jq .collisions",
			},
		},
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return cli.Validation("unexpected arguments %v", args)
		}
		cfg, err := loadConfig(params.ConfigPath)
		if err != nil {
			return err
		}
		path := cfg.Decode.Metadata
		if command.FlagChanged("metadata") {
			path = params.Metadata
		}
		return runInspect(streams, &params, path)
	}
	return command
}

func runInspect(streams Streams, params *inspectParams, path string) error {
	file, err := metric.Load(path)
	if err != nil {
		return fileError("metadata", path, err)
	}
	table, err := file.Table()
	if err != nil {
		return cli.Internal("metadata %s: %w", path, err)
	}

	result := inspectResult{
		Metadata:    path,
		Fingerprint: file.Fingerprint,
		Types:       file.TypeDefs.Names(),
		Entries:     make([]inspectEntry, 0, table.Len()),
	}
	for _, definition := range table.Entries() {
		entry := inspectEntry{
			ID:          metric.HexID(definition.ID),
			TruncatedID: fmt.Sprintf("0x%04X", metric.Truncate(definition.ID)),
			Kind:        definition.Kind.String(),
			Location:    definition.Location(),
			Name:        definition.Name,
			ValueType:   definition.ValueType,
			Message:     definition.Message,
		}
		if definition.HasMessage() {
			entry.Level = definition.Level.Label()
		}
		if definition.IsArray {
			entry.ValueType += "[]"
		}
		result.Entries = append(result.Entries, entry)
	}
	for _, collision := range table.TruncationCollisions() {
		result.Collisions = append(result.Collisions, inspectCollision{
			TruncatedID: fmt.Sprintf("0x%04X", collision.Truncated),
			IDs:         formatIDs(collision.IDs),
		})
	}
	if result.Types == nil {
		result.Types = []string{}
	}
	if result.Collisions == nil {
		result.Collisions = []inspectCollision{}
	}

	if done, err := params.EmitJSON(streams.Stdout, result); done {
		return err
	}

	writer := tabwriter.NewWriter(streams.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tMICRO\tKIND\tLEVEL\tLOCATION\tDETAIL")
	for _, entry := range result.Entries {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.TruncatedID, entry.Kind, dash(entry.Level), entry.Location, entryDetail(entry))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(streams.Stdout, "\n%d entries, %d types", len(result.Entries), len(result.Types))
	if result.Fingerprint != "" {
		fmt.Fprintf(streams.Stdout, ", fingerprint %s", result.Fingerprint)
	}
	fmt.Fprintln(streams.Stdout)

	for _, collision := range result.Collisions {
		fmt.Fprintf(streams.Stdout, "collision: micro id %s shared by %s\n",
			collision.TruncatedID, strings.Join(collision.IDs, ", "))
	}
	return nil
}

func entryDetail(entry inspectEntry) string {
	var parts []string
	if entry.Name != "" {
		name := entry.Name
		if entry.ValueType != "" {
			name += " (" + entry.ValueType + ")"
		}
		parts = append(parts, name)
	}
	if entry.Message != "" {
		parts = append(parts, fmt.Sprintf("%q", entry.Message))
	}
	return dash(strings.Join(parts, " "))
}

func dash(text string) string {
	if text == "" {
		return "-"
	}
	return text
}
