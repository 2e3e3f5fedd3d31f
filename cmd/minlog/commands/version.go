// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(streams Streams) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "minlog version [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected arguments %v", args)
			}
			if done, err := params.EmitJSON(streams.Stdout, version.Current()); done {
				return err
			}
			_, err := fmt.Fprintln(streams.Stdout, version.Full())
			return err
		},
	}
}
