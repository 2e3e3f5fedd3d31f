// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/capture"
	"github.com/bureau-foundation/minlog/lib/config"
	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/eventstore"
	"github.com/bureau-foundation/minlog/lib/frame"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/perfetto"
	"github.com/bureau-foundation/minlog/lib/session"
	"github.com/bureau-foundation/minlog/lib/sink"
)

type decodeParams struct {
	configParams
	cli.LoggingParams
	Metadata     string        `flag:"metadata,m" desc:"metadata file written by build"`
	Format       string        `flag:"format" desc:"capture wire format" enum:"binary,micro,text"`
	Input        string        `flag:"input,i" desc:"capture file, - for stdin" default:"-"`
	Follow       bool          `flag:"follow,f" desc:"keep reading a capture that is still being written"`
	ChunkSize    int           `flag:"chunk-size" desc:"read size in bytes"`
	PollInterval time.Duration `flag:"poll-interval" desc:"wait between reads at end of a followed capture"`
	Color        string        `flag:"color" desc:"color severity labels" enum:"auto,always,never"`
	Quiet        bool          `flag:"quiet,q" desc:"do not print decoded logs"`
	CSVDir       string        `flag:"csv-dir" desc:"directory for one CSV file per recorded value"`
	Perfetto     string        `flag:"perfetto" desc:"Perfetto trace file to write"`
	SQLite       string        `flag:"sqlite" desc:"SQLite event store to write"`
	Archive      string        `flag:"archive" desc:"CBOR event archive to write (.zst or .lz4 to compress)"`
}

func decodeCommand(streams Streams) *cli.Command {
	var params decodeParams
	command := &cli.Command{
		Name:    "decode",
		Summary: "Decode a capture into logs, traces and tables",
		Description: `Decode a capture of firmware logging output against the metadata
file from "minlog build".

Log lines are printed to stdout as
  <seconds> <LEVEL> <file>:<line> <thread>] <message>
with ${name} references replaced by the last recorded value. Recorded
values, profiling regions and thread names can additionally be written
to CSV files, a Perfetto trace, a SQLite event store and a CBOR
archive. Compressed captures (zstd, LZ4) are detected automatically.`,
		Usage: "minlog decode [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("decode", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Decode a serial capture from stdin",
				Command:     "cat /dev/ttyACM0 | minlog decode -m build/min_logger.json",
			},
			{
				Description: "Follow a growing micro-format capture and keep an event store",
				Command:     "minlog decode -i capture.bin --format micro --follow --sqlite events.db",
			},
		},
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return cli.Validation("unexpected arguments %v (use --input for the capture)", args)
		}
		cfg, err := loadConfig(params.ConfigPath)
		if err != nil {
			return err
		}
		applyDecodeFlags(command, &params, &cfg.Decode)
		return runDecode(ctx, streams, &params, cfg)
	}
	return command
}

func applyDecodeFlags(command *cli.Command, params *decodeParams, decode *config.DecodeConfig) {
	if command.FlagChanged("metadata") {
		decode.Metadata = params.Metadata
	}
	if command.FlagChanged("format") {
		decode.Format = params.Format
	}
	if command.FlagChanged("follow") {
		decode.Follow = params.Follow
	}
	if command.FlagChanged("chunk-size") {
		decode.ChunkSize = params.ChunkSize
	}
	if command.FlagChanged("poll-interval") {
		decode.PollInterval = params.PollInterval
	}
	if command.FlagChanged("color") {
		decode.Color = params.Color
	}
	if command.FlagChanged("csv-dir") {
		decode.CSVDir = params.CSVDir
	}
	if command.FlagChanged("perfetto") {
		decode.Perfetto = params.Perfetto
	}
	if command.FlagChanged("sqlite") {
		decode.SQLite = params.SQLite
	}
	if command.FlagChanged("archive") {
		decode.Archive = params.Archive
	}
}

func runDecode(ctx context.Context, streams Streams, params *decodeParams, cfg *config.Config) (err error) {
	if err := cfg.Validate(); err != nil {
		return cli.Validation("%w", err)
	}
	logger, err := params.Logger(streams.Stderr)
	if err != nil {
		return err
	}
	decode := cfg.Decode
	logger = logger.With("command", "decode")

	file, err := metric.Load(decode.Metadata)
	if err != nil {
		return fileError("metadata", decode.Metadata, err)
	}
	table, err := file.Table()
	if err != nil {
		return cli.Internal("metadata %s: %w", decode.Metadata, err)
	}
	wireFormat, err := frame.ParseWireFormat(decode.Format)
	if err != nil {
		return cli.Validation("%w", err)
	}
	decoder, err := frame.NewStreamDecoder(wireFormat, table, logger)
	if err != nil {
		return cli.Validation("%w", err)
	}

	if err := cfg.EnsureOutputDirs(); err != nil {
		return cli.Internal("%w", err)
	}
	sinks, err := openSinks(streams, params.Quiet, decode, logger)
	if err != nil {
		return err
	}
	dispatcher := dispatch.New(dispatch.Options{
		Table:    table,
		Resolver: file.Resolver(),
		Logger:   logger,
		Sinks:    sinks,
	})
	defer func() {
		if closeErr := dispatcher.Close(); closeErr != nil && err == nil {
			err = cli.Internal("closing outputs: %w", closeErr)
		}
	}()

	input, err := openCapture(ctx, streams, params.Input, decode)
	if err != nil {
		return err
	}
	defer input.Close()

	stats, err := session.Run(ctx, session.Options{
		Reader:     input,
		Decoder:    decoder,
		Dispatcher: dispatcher,
		ChunkSize:  decode.ChunkSize,
		Logger:     logger,
	})
	// Interrupting a followed capture is how it ends.
	if errors.Is(err, context.Canceled) && decode.Follow {
		err = nil
	}
	if err != nil {
		return cli.Internal("decoding %s: %w", params.Input, err)
	}

	logger.Info("capture decoded",
		"bytes", stats.Bytes,
		"frames", stats.Frames,
		"decode_errors", stats.DecodeErrors,
	)
	return nil
}

func openCapture(ctx context.Context, streams Streams, path string, decode config.DecodeConfig) (*capture.Capture, error) {
	var input *capture.Capture
	var err error
	switch {
	case path == "-" || path == "":
		input, err = capture.NewReader(streams.Stdin)
	case decode.Follow:
		input, err = capture.OpenFollow(ctx, path, streams.Clock, decode.PollInterval)
	default:
		input, err = capture.Open(path)
	}
	if err != nil {
		return nil, fileError("capture", path, err)
	}
	return input, nil
}

// openSinks builds the configured outputs. On failure the sinks opened
// so far are closed.
func openSinks(streams Streams, quiet bool, decode config.DecodeConfig, logger *slog.Logger) (sinks []dispatch.Sink, err error) {
	defer func() {
		if err != nil {
			for _, opened := range sinks {
				opened.Close()
			}
			sinks = nil
		}
	}()

	if !quiet {
		colorMode, err := sink.ParseColorMode(decode.Color)
		if err != nil {
			return sinks, cli.Validation("%w", err)
		}
		sinks = append(sinks, sink.NewConsole(streams.Stdout, sink.UseColor(colorMode, streams.Stdout)))
	}
	if decode.CSVDir != "" {
		csvSink, err := sink.NewCSV(decode.CSVDir)
		if err != nil {
			return sinks, cli.Internal("csv output: %w", err)
		}
		sinks = append(sinks, csvSink)
	}
	if decode.Perfetto != "" {
		sinks = append(sinks, perfetto.NewSink(decode.Perfetto))
	}
	if decode.SQLite != "" {
		store, err := eventstore.Open(eventstore.Config{Path: decode.SQLite, Logger: logger})
		if err != nil {
			return sinks, cli.Internal("sqlite output: %w", err)
		}
		sinks = append(sinks, store)
	}
	if decode.Archive != "" {
		writer, err := capture.Create(decode.Archive)
		if err != nil {
			return sinks, cli.Internal("archive output: %w", err)
		}
		sinks = append(sinks, sink.NewArchive(writer))
	}
	return sinks, nil
}
