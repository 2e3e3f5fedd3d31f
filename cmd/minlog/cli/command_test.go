// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func run(t *testing.T, command *Command, args ...string) error {
	t.Helper()
	if command.HelpOutput == nil {
		command.HelpOutput = &bytes.Buffer{}
	}
	return command.Execute(context.Background(), args)
}

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	t.Parallel()
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "minlog",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(ctx context.Context, args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "build",
				Run: func(ctx context.Context, args []string) error {
					called = "build"
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := run(t, root, "build", "src", "lib"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "build" {
		t.Errorf("dispatched to %q, want build", called)
	}
	if strings.Join(receivedArgs, " ") != "src lib" {
		t.Errorf("args = %v, want [src lib]", receivedArgs)
	}
}

func TestExecuteFlagParsingAndChanged(t *testing.T) {
	t.Parallel()
	var params struct {
		Metadata string `flag:"metadata,m" default:"build/min_logger.json"`
		Follow   bool   `flag:"follow,f"`
	}
	var metadataChanged, followChanged bool

	command := &Command{Name: "decode"}
	command.Flags = func() *pflag.FlagSet { return FlagsFromParams("decode", &params) }
	command.Run = func(ctx context.Context, args []string) error {
		metadataChanged = command.FlagChanged("metadata")
		followChanged = command.FlagChanged("follow")
		return nil
	}

	if err := run(t, command, "-f"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if params.Metadata != "build/min_logger.json" || !params.Follow {
		t.Errorf("params = %+v", params)
	}
	if metadataChanged || !followChanged {
		t.Errorf("FlagChanged(metadata, follow) = %v, %v; want false, true", metadataChanged, followChanged)
	}
}

func TestExecuteUnknownFlagSuggestion(t *testing.T) {
	t.Parallel()
	command := &Command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.String("perfetto", "", "trace output")
			flagSet.Bool("follow", false, "follow")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error { return nil },
	}

	err := run(t, command, "--perfeto", "trace.pftrace")
	if err == nil {
		t.Fatal("Execute accepted an unknown flag")
	}
	for _, want := range []string{"perfeto", "did you mean --perfetto", "--help"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err, want)
		}
	}
	if code, _ := ExitCodeOf(err); code != 2 {
		t.Errorf("exit code = %d, want 2 for bad usage", code)
	}

	err = run(t, command, "--zzzzzzzzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion for a distant flag", err)
	}
}

func TestExecuteUnknownSubcommand(t *testing.T) {
	t.Parallel()
	root := &Command{
		Name: "minlog",
		Subcommands: []*Command{
			{Name: "decode"},
			{Name: "inspect"},
			{Name: "version"},
		},
	}

	err := run(t, root, "decdoe")
	if err == nil || !strings.Contains(err.Error(), `did you mean "decode"`) {
		t.Errorf("error = %v, want a suggestion for decode", err)
	}
	err = run(t, root, "zzzzzzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion", err)
	}
}

func TestExecuteHelp(t *testing.T) {
	t.Parallel()
	for _, helpArg := range []string{"-h", "--help", "help"} {
		var output bytes.Buffer
		root := &Command{
			Name:        "minlog",
			Summary:     "Compact firmware logging",
			HelpOutput:  &output,
			Subcommands: []*Command{{Name: "decode", Summary: "Decode a capture"}},
		}
		if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
			t.Errorf("Execute(%q): %v", helpArg, err)
		}
		if !strings.Contains(output.String(), "Decode a capture") {
			t.Errorf("Execute(%q) help = %q", helpArg, output.String())
		}
	}
}

func TestExecuteNoArgsRequiresSubcommand(t *testing.T) {
	t.Parallel()
	root := &Command{
		Name:        "minlog",
		Subcommands: []*Command{{Name: "decode"}},
	}
	err := run(t, root)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want subcommand required", err)
	}
}

func TestPrintHelp(t *testing.T) {
	t.Parallel()
	var params struct {
		Format string `flag:"format" desc:"wire format" default:"binary" enum:"binary,micro,text"`
	}
	root := &Command{Name: "minlog"}
	decode := &Command{
		Name:    "decode",
		Summary: "Decode a capture",
		Usage:   "minlog decode [flags]",
		Flags:   func() *pflag.FlagSet { return FlagsFromParams("decode", &params) },
		Examples: []Example{{
			Description: "Decode a serial capture",
			Command:     "minlog decode --input capture.bin",
		}},
		parent: root,
	}

	var buffer bytes.Buffer
	decode.PrintHelp(&buffer)
	output := buffer.String()
	for _, want := range []string{
		"Decode a capture",
		"minlog decode [flags]",
		"Flags:",
		"--format",
		"binary, micro, text",
		"# Decode a serial capture",
		"minlog decode --input capture.bin",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\n%s", want, output)
		}
	}
	if got := decode.fullName(); got != "minlog decode" {
		t.Errorf("fullName = %q", got)
	}
}
