// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the minlog command tree.
package commands

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/clock"
	"github.com/bureau-foundation/minlog/lib/config"
	"github.com/bureau-foundation/minlog/lib/typecheck"
)

// Streams is the process environment commands run against. Tests
// substitute buffers, a fake clock and a fake debugger.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Clock paces follow-mode polling.
	Clock clock.Clock

	// Runner runs the debugger for validate-types.
	Runner typecheck.Runner
}

// System returns the streams of the running process.
func System() Streams {
	return Streams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Clock:  clock.Real(),
		Runner: typecheck.ExecRunner,
	}
}

// Root returns the top-level "minlog" command.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "minlog",
		Summary: "Compact firmware logging toolchain",
		Description: `minlog turns MIN_LOGGER macro call sites in firmware sources into
numeric identifiers at build time, and turns the compact records the
firmware emits back into readable logs, traces and tables.`,
		HelpOutput: streams.Stderr,
		Subcommands: []*cli.Command{
			buildCommand(streams),
			decodeCommand(streams),
			inspectCommand(streams),
			logsCommand(streams),
			validateTypesCommand(streams),
			versionCommand(streams),
		},
		Examples: []cli.Example{
			{
				Description: "Scan firmware sources and write the metadata file",
				Command:     "minlog build src --type-defs types.jsonc --output build/min_logger.json",
			},
			{
				Description: "Decode a live serial capture into the console and a Perfetto trace",
				Command:     "minlog decode --input capture.bin --follow --perfetto trace.pftrace",
			},
		},
	}
}

// configParams adds --config to a command's params.
type configParams struct {
	ConfigPath string `flag:"config" desc:"project config file (default $MINLOG_CONFIG)"`
}

// loadConfig resolves the project configuration, mapping failures to
// CLI error categories.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Resolve(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NotFound("%w", err)
	}
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return cfg, nil
}

// fileError categorizes an error from opening a user-named file.
func fileError(what, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return cli.NotFound("%s %s does not exist", what, path)
	}
	return cli.Internal("%s %s: %w", what, path, err)
}
