// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/capture"
	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/eventstore"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/sink"
)

type logsParams struct {
	configParams
	cli.JSONOutput
	DB       string `flag:"db" desc:"SQLite event store written by decode --sqlite"`
	Archive  string `flag:"archive" desc:"CBOR archive written by decode --archive"`
	Severity string `flag:"severity,s" desc:"minimum level: DEBUG, INFO, WARN, ERROR, CRITICAL or a number"`
	Search   string `flag:"search" desc:"only lines whose message contains this text"`
	Limit    int    `flag:"limit,n" desc:"most recent lines to show" default:"100"`
	Value    string `flag:"value" desc:"show recorded values of this name instead of log lines (--db only)"`
	Color    string `flag:"color" desc:"color severity labels" default:"auto" enum:"auto,always,never"`
}

func logsCommand(streams Streams) *cli.Command {
	var params logsParams
	command := &cli.Command{
		Name:    "logs",
		Summary: "Query stored log lines",
		Description: `Show the most recent log lines from a SQLite event store or a CBOR
archive written by "minlog decode", oldest first, in the same format
decode prints. Without --db or --archive, the config file's
decode.sqlite is used.`,
		Usage: "minlog logs [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("logs", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Show the last 20 warnings and errors",
				Command:     "minlog logs --db events.db --severity WARN -n 20",
			},
			{
				Description: "Search an archive",
				Command:     "minlog logs --archive events.cbor.zst --search timeout",
			},
		},
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return cli.Validation("unexpected arguments %v", args)
		}
		if params.DB != "" && params.Archive != "" {
			return cli.Validation("--db and --archive are mutually exclusive")
		}
		if params.Value != "" && params.Archive != "" {
			return cli.Validation("--value needs --db")
		}
		if params.DB == "" && params.Archive == "" {
			cfg, err := loadConfig(params.ConfigPath)
			if err != nil {
				return err
			}
			params.DB = cfg.Decode.SQLite
		}
		if params.DB == "" && params.Archive == "" {
			return cli.Validation("no event store: pass --db or --archive, or set decode.sqlite in the config")
		}
		return runLogs(ctx, streams, &params)
	}
	return command
}

func runLogs(ctx context.Context, streams Streams, params *logsParams) error {
	filter := eventstore.LogFilter{Search: params.Search, Limit: params.Limit}
	if params.Severity != "" {
		level, err := metric.ParseLevelFilter(params.Severity)
		if err != nil {
			return cli.Validation("--severity: %w", err)
		}
		filter.MinSeverity = level
	}
	if filter.Limit <= 0 {
		return cli.Validation("--limit must be positive, got %d", params.Limit)
	}

	if params.Value != "" {
		return showValues(ctx, streams, params)
	}

	var records []eventstore.LogRecord
	var err error
	if params.Archive != "" {
		records, err = archiveLogs(params.Archive, filter)
	} else {
		records, err = storeLogs(ctx, params.DB, filter)
	}
	if err != nil {
		return err
	}
	// Stores return newest first; show them in the order they happened.
	slices.Reverse(records)

	if done, err := params.EmitJSON(streams.Stdout, records); done {
		return err
	}

	colorMode, err := sink.ParseColorMode(params.Color)
	if err != nil {
		return cli.Validation("%w", err)
	}
	console := sink.NewConsole(streams.Stdout, sink.UseColor(colorMode, streams.Stdout))
	for _, record := range records {
		event := dispatch.Event{
			Kind:       dispatch.EventLog,
			Timestamp:  record.Timestamp,
			ThreadID:   record.ThreadID,
			Thread:     record.Thread,
			MetricID:   record.MetricID,
			Level:      record.Severity,
			SourceFile: record.SourceFile,
			SourceLine: record.SourceLine,
			Message:    record.Message,
		}
		if err := console.Handle(event); err != nil {
			return err
		}
	}
	return console.Close()
}

func storeLogs(ctx context.Context, path string, filter eventstore.LogFilter) ([]eventstore.LogRecord, error) {
	store, err := eventstore.Open(eventstore.Config{Path: path, ReadOnly: true})
	if err != nil {
		return nil, fileError("event store", path, err)
	}
	defer store.Close()

	records, err := store.QueryLogs(ctx, filter)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return records, nil
}

// archiveLogs applies filter to an archive's log records, keeping the
// newest filter.Limit, newest first like the event store.
func archiveLogs(path string, filter eventstore.LogFilter) ([]eventstore.LogRecord, error) {
	input, err := capture.Open(path)
	if err != nil {
		return nil, fileError("archive", path, err)
	}
	defer input.Close()

	var records []eventstore.LogRecord
	err = sink.ReadArchive(input, func(record sink.Record) error {
		if record.Kind != dispatch.EventLog {
			return nil
		}
		if record.Level < filter.MinSeverity {
			return nil
		}
		if filter.Search != "" && !strings.Contains(record.Message, filter.Search) {
			return nil
		}
		records = append(records, eventstore.LogRecord{
			Timestamp:  record.Timestamp,
			ThreadID:   record.ThreadID,
			Thread:     record.Thread,
			MetricID:   record.MetricID,
			Severity:   record.Level,
			Label:      record.Level.Label(),
			SourceFile: record.File,
			SourceLine: record.Line,
			Message:    record.Message,
		})
		return nil
	})
	if err != nil {
		return nil, cli.Internal("reading archive %s: %w", path, err)
	}

	slices.SortStableFunc(records, func(a, b eventstore.LogRecord) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	if len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func showValues(ctx context.Context, streams Streams, params *logsParams) error {
	store, err := eventstore.Open(eventstore.Config{Path: params.DB, ReadOnly: true})
	if err != nil {
		return fileError("event store", params.DB, err)
	}
	defer store.Close()

	records, err := store.QueryValues(ctx, params.Value, params.Limit)
	if err != nil {
		return cli.Internal("%w", err)
	}
	slices.Reverse(records)

	if done, err := params.EmitJSON(streams.Stdout, records); done {
		return err
	}
	for _, record := range records {
		var compact bytes.Buffer
		if err := json.Compact(&compact, record.Value); err != nil {
			compact.Reset()
			compact.Write(record.Value)
		}
		fmt.Fprintf(streams.Stdout, "%.6f %s] %s = %s\n", record.Timestamp, record.Thread, record.Name, compact.String())
	}
	return nil
}
