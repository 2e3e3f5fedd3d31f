// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package typecheck cross-checks the sizes the type dictionary
// computes against the sizes a debugger reports for a firmware image.
//
// A wrong dictionary entry does not fail loudly at decode time: values
// simply decode from the wrong offsets. Asking gdb for sizeof(T) on the
// ELF the firmware was built into catches those entries before a
// capture is misread. Each name is checked with
//
//	gdb <binary> --batch -ex=output sizeof(<name>)
//
// gdb runs through a [Runner] so tests can substitute canned output.
package typecheck

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bureau-foundation/minlog/lib/typedef"
)

// DefaultDebugger is the debugger binary used when Options.Debugger is
// empty. Cross toolchains usually want gdb-multiarch or
// arm-none-eabi-gdb instead.
const DefaultDebugger = "gdb"

// Runner executes name with args and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs the command as a subprocess. A failing command's
// error carries its stderr when there is any.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", formatError(name, args, &stderr, err)
	}
	return stdout.String(), nil
}

// Options configures Check.
type Options struct {
	// Binary is the firmware ELF with debug info. Required.
	Binary string

	// Debugger is the gdb binary. Defaults to DefaultDebugger.
	Debugger string

	// Runner defaults to ExecRunner.
	Runner Runner

	// Logger receives one line per checked type. Nil discards.
	Logger *slog.Logger
}

// Result is the outcome for one dictionary name.
type Result struct {
	Name string

	// Expected is the size the dictionary computes.
	Expected int

	// Reported is the size gdb printed.
	Reported int

	// Err is set when either size could not be determined.
	Err error
}

// OK reports whether both sizes were determined and agree.
func (r Result) OK() bool {
	return r.Err == nil && r.Expected == r.Reported
}

// Check compares every name in the resolver's dictionary, in
// dictionary order. Per-type failures are recorded in the results; the
// returned error is reserved for invalid options and cancellation.
func Check(ctx context.Context, resolver *typedef.Resolver, options Options) ([]Result, error) {
	if options.Binary == "" {
		return nil, fmt.Errorf("typecheck: Binary is required")
	}
	debugger := options.Debugger
	if debugger == "" {
		debugger = DefaultDebugger
	}
	runner := options.Runner
	if runner == nil {
		runner = ExecRunner
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	names := resolver.Dictionary().Names()
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := Result{Name: name}
		result.Expected, result.Err = resolver.Size(name)
		if result.Err == nil {
			result.Reported, result.Err = querySize(ctx, runner, debugger, options.Binary, name)
		}

		switch {
		case result.Err != nil:
			logger.Error("type size unavailable", "type", name, "error", result.Err)
		case !result.OK():
			logger.Warn("type size mismatch", "type", name, "expected", result.Expected, "reported", result.Reported)
		default:
			logger.Info("type size matches", "type", name, "size", result.Expected)
		}
		results = append(results, result)
	}
	return results, nil
}

// Failures counts results that are not OK.
func Failures(results []Result) int {
	count := 0
	for _, result := range results {
		if !result.OK() {
			count++
		}
	}
	return count
}

func querySize(ctx context.Context, runner Runner, debugger, binary, name string) (int, error) {
	output, err := runner(ctx, debugger, binary, "--batch", "-ex=output sizeof("+name+")")
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(output)
	size, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parsing %s output %q as a size: %w", debugger, text, err)
	}
	return size, nil
}

// formatError prefers the command's stderr, which holds the actual
// diagnostic, over the generic exit status.
func formatError(name string, args []string, stderr *bytes.Buffer, err error) error {
	commandString := name + " " + strings.Join(args, " ")
	stderrText := strings.TrimSpace(stderr.String())
	if stderrText != "" {
		return fmt.Errorf("%s: %s", commandString, stderrText)
	}
	return fmt.Errorf("%s: %w", commandString, err)
}
