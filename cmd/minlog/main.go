// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/cmd/minlog/commands"
)

func main() {
	err := run()
	code, silent := cli.ExitCodeOf(err)
	if !silent {
		// Commands that print their own report (validate-types) return
		// an ExitError and are silent here.
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

func run() error {
	// Interrupt ends a follow-mode decode; sinks are flushed on the way
	// out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root(commands.System()).Execute(ctx, os.Args[1:])
}
