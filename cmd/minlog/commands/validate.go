// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/typecheck"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

type validateParams struct {
	configParams
	cli.JSONOutput
	cli.LoggingParams
	Binary   string `flag:"binary,b" desc:"firmware image with debug info (required)"`
	TypeDefs string `flag:"type-defs,t" desc:"type dictionary to check (default: build.type_defs from the config)"`
	Debugger string `flag:"gdb" desc:"debugger executable" default:"gdb"`
}

type validateRow struct {
	Type     string `json:"type"`
	Expected int    `json:"expected,omitempty"`
	Reported int    `json:"reported,omitempty"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

type validateResult struct {
	Binary   string        `json:"binary"`
	TypeDefs string        `json:"type_defs"`
	Failures int           `json:"failures"`
	Types    []validateRow `json:"types"`
}

func validateTypesCommand(streams Streams) *cli.Command {
	var params validateParams
	command := &cli.Command{
		Name:    "validate-types",
		Summary: "Compare dictionary type sizes with a firmware image",
		Description: `Ask gdb for sizeof(T) of every type in the type dictionary and compare
it with the size the decoder assumes. A mismatch means the firmware
lays the type out differently (padding, packing, a changed field) and
decoded values of that type would be wrong.

Exits 1 when any type mismatches or cannot be sized.`,
		Usage: "minlog validate-types --binary FILE [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate-types", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Check against a cross-compiled image",
				Command:     "minlog validate-types -b build/firmware.elf --gdb gdb-multiarch",
			},
		},
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return cli.Validation("unexpected arguments %v", args)
		}
		if params.Binary == "" {
			return cli.Validation("--binary is required")
		}
		if !command.FlagChanged("type-defs") {
			cfg, err := loadConfig(params.ConfigPath)
			if err != nil {
				return err
			}
			params.TypeDefs = cfg.Build.TypeDefs
		}
		if params.TypeDefs == "" {
			return cli.Validation("no type dictionary: pass --type-defs or set build.type_defs in the config")
		}
		return runValidateTypes(ctx, streams, &params)
	}
	return command
}

func runValidateTypes(ctx context.Context, streams Streams, params *validateParams) error {
	logger, err := params.Logger(streams.Stderr)
	if err != nil {
		return err
	}
	dictionary, err := typedef.LoadFile(params.TypeDefs)
	if err != nil {
		return fileError("type dictionary", params.TypeDefs, err)
	}

	results, err := typecheck.Check(ctx, typedef.NewResolver(dictionary), typecheck.Options{
		Binary:   params.Binary,
		Debugger: params.Debugger,
		Runner:   streams.Runner,
		Logger:   logger.With("command", "validate-types"),
	})
	if err != nil {
		return err
	}

	result := validateResult{
		Binary:   params.Binary,
		TypeDefs: params.TypeDefs,
		Failures: typecheck.Failures(results),
		Types:    make([]validateRow, 0, len(results)),
	}
	for _, checked := range results {
		row := validateRow{
			Type:     checked.Name,
			Expected: checked.Expected,
			Reported: checked.Reported,
			OK:       checked.OK(),
		}
		if checked.Err != nil {
			row.Error = checked.Err.Error()
		}
		result.Types = append(result.Types, row)
	}

	if done, err := params.EmitJSON(streams.Stdout, result); done {
		if err != nil {
			return err
		}
		return failuresExit(result.Failures)
	}

	writer := tabwriter.NewWriter(streams.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "TYPE\tEXPECTED\tREPORTED\tSTATUS")
	for _, row := range result.Types {
		status := "ok"
		switch {
		case row.Error != "":
			status = "error: " + row.Error
		case !row.OK:
			status = "MISMATCH"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", row.Type, sizeText(row.Expected), sizeText(row.Reported), status)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(streams.Stdout, "\n%d types checked, %d failed\n", len(result.Types), result.Failures)
	return failuresExit(result.Failures)
}

// failuresExit exits 1 without an error message; the table already
// says what failed.
func failuresExit(failures int) error {
	if failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func sizeText(size int) string {
	if size == 0 {
		return "-"
	}
	return strconv.Itoa(size)
}
