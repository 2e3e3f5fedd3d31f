// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/config"
	"github.com/bureau-foundation/minlog/lib/macro"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

type buildParams struct {
	configParams
	cli.LoggingParams
	RootPaths   []string `flag:"root-path" desc:"prefix stripped from source paths before hashing (repeatable)"`
	Extensions  []string `flag:"extension" desc:"source file extension to scan (repeatable)"`
	Recursive   bool     `flag:"recursive,r" desc:"descend into subdirectories" default:"true"`
	TypeDefs    string   `flag:"type-defs,t" desc:"JSONC type dictionary"`
	Output      string   `flag:"output,o" desc:"metadata file to write, - for stdout"`
	Parallelism int      `flag:"parallelism" desc:"concurrent file parses, 0 for one per CPU"`
}

func buildCommand(streams Streams) *cli.Command {
	var params buildParams
	command := &cli.Command{
		Name:    "build",
		Summary: "Scan sources and write the metadata file",
		Description: `Scan source files for MIN_LOGGER macro calls, assign each call site
its 32-bit identifier and write the metadata file decoders need.

Positional arguments are files or directories to scan; without them
the config file's build.src_paths are used. Identifiers are a CRC-32
of the root-relative path and line unless the call supplies one, so
the same checkout produces the same identifiers wherever it lives.`,
		Usage: "minlog build [paths...] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("build", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Scan src/ with a type dictionary",
				Command:     "minlog build src --type-defs types.jsonc -o build/min_logger.json",
			},
			{
				Description: "Print metadata for a single file",
				Command:     "minlog build main.c --output -",
			},
		},
	}
	command.Run = func(ctx context.Context, args []string) error {
		cfg, err := loadConfig(params.ConfigPath)
		if err != nil {
			return err
		}
		applyBuildFlags(command, &params, args, &cfg.Build)
		return runBuild(ctx, streams, &params, cfg)
	}
	return command
}

// applyBuildFlags overlays explicitly set flags onto the config.
func applyBuildFlags(command *cli.Command, params *buildParams, args []string, build *config.BuildConfig) {
	if len(args) > 0 {
		build.SrcPaths = args
	}
	if command.FlagChanged("root-path") {
		build.RootPaths = params.RootPaths
	}
	if command.FlagChanged("extension") {
		build.Extensions = params.Extensions
	}
	if command.FlagChanged("recursive") {
		build.Recursive = params.Recursive
	}
	if command.FlagChanged("type-defs") {
		build.TypeDefs = params.TypeDefs
	}
	if command.FlagChanged("output") {
		build.Output = params.Output
	}
	if command.FlagChanged("parallelism") {
		build.Parallelism = params.Parallelism
	}
}

func runBuild(ctx context.Context, streams Streams, params *buildParams, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return cli.Validation("%w", err)
	}
	logger, err := params.Logger(streams.Stderr)
	if err != nil {
		return err
	}
	build := cfg.Build
	logger = logger.With("command", "build")

	dictionary := typedef.NewDictionary()
	if build.TypeDefs != "" {
		dictionary, err = typedef.LoadFile(build.TypeDefs)
		if err != nil {
			return fileError("type dictionary", build.TypeDefs, err)
		}
	}
	resolver := typedef.NewResolver(dictionary)

	files, err := macro.FindSources(build.SrcPaths, build.Extensions, build.Recursive)
	if err != nil {
		return cli.Internal("finding sources: %w", err)
	}
	if len(files) == 0 {
		return cli.Validation("no source files found under %v", build.SrcPaths)
	}
	logger.Debug("scanning sources", "files", len(files), "type_defs", dictionary.Len())

	scanner := macro.NewScanner(macro.Options{
		RootPaths:   build.RootPaths,
		Resolver:    resolver,
		Logger:      logger,
		Parallelism: build.Parallelism,
	})
	table, err := scanner.Scan(ctx, files)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	for _, collision := range table.TruncationCollisions() {
		logger.Warn("micro-format identifier collision",
			"truncated", fmt.Sprintf("0x%04X", collision.Truncated),
			"ids", formatIDs(collision.IDs),
		)
	}

	file := &metric.File{Entries: table.Entries(), TypeDefs: dictionary}
	if build.Output == "-" {
		if err := file.Write(streams.Stdout); err != nil {
			return cli.Internal("%w", err)
		}
	} else if err := file.WriteFile(build.Output); err != nil {
		return cli.Internal("%w", err)
	}
	logger.Info("metadata written",
		"output", build.Output,
		"entries", table.Len(),
		"files", len(files),
		"fingerprint", file.Fingerprint,
	)
	return nil
}

func formatIDs(ids []uint32) []string {
	formatted := make([]string, len(ids))
	for i, id := range ids {
		formatted[i] = metric.HexID(id)
	}
	return formatted
}
