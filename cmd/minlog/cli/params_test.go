// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsTypes(t *testing.T) {
	t.Parallel()
	type params struct {
		JSONOutput
		Name     string        `flag:"name" desc:"the name"`
		Quiet    bool          `flag:"quiet,q"`
		Count    int           `flag:"count" default:"7"`
		ID       uint32        `flag:"id"`
		Interval time.Duration `flag:"interval" default:"250ms"`
		Paths    []string      `flag:"path"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if p.Count != 7 || p.Interval != 250*time.Millisecond {
		t.Errorf("defaults = %d, %s", p.Count, p.Interval)
	}

	err := flagSet.Parse([]string{
		"--name", "sensor",
		"-q",
		"--id", "0xDEADBEEF",
		"--interval", "1s",
		"--path", "a,b",
		"--path", "c",
		"--json",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "sensor" || !p.Quiet || p.ID != 0xDEADBEEF || p.Interval != time.Second {
		t.Errorf("params = %+v", p)
	}
	if strings.Join(p.Paths, ",") != "a,b,c" {
		t.Errorf("Paths = %v, want [a b c]", p.Paths)
	}
	if !p.OutputJSON {
		t.Error("embedded --json was not bound")
	}
	if flagSet.Lookup("Untagged") != nil || flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlagsEnum(t *testing.T) {
	t.Parallel()
	var p struct {
		Color string `flag:"color" default:"auto" enum:"auto,always,never"`
	}
	flagSet := FlagsFromParams("test", &p)
	if p.Color != "auto" {
		t.Errorf("default = %q, want auto", p.Color)
	}
	if err := flagSet.Parse([]string{"--color", "never"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Color != "never" {
		t.Errorf("Color = %q, want never", p.Color)
	}

	flagSet = FlagsFromParams("test", &p)
	err := flagSet.Parse([]string{"--color", "sometimes"})
	if err == nil || !strings.Contains(err.Error(), "auto, always, never") {
		t.Errorf("error = %v, want the choices listed", err)
	}
}

func TestBindFlagsErrors(t *testing.T) {
	t.Parallel()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	var notPointer struct{}
	if err := BindFlags(notPointer, flagSet); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}

	var badEnum struct {
		Count int `flag:"count" enum:"1,2"`
	}
	if err := BindFlags(&badEnum, flagSet); err == nil {
		t.Error("BindFlags accepted enum on an int")
	}

	var badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault, flagSet); err == nil {
		t.Error("BindFlags accepted an unparseable default")
	}

	var unsupported struct {
		Ratio complex128 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported, flagSet); err == nil {
		t.Error("BindFlags accepted an unsupported type")
	}
}

func TestLoggingParams(t *testing.T) {
	t.Parallel()
	var p LoggingParams
	flagSet := FlagsFromParams("test", &p)
	if err := flagSet.Parse([]string{"--log-level", "debug"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var output bytes.Buffer
	logger, err := p.Logger(&output)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	logger.Debug("scanning", "files", 3)
	if !strings.Contains(output.String(), `"files":3`) {
		t.Errorf("output = %q, want a JSON record for a non-terminal writer", output.String())
	}
}

func TestEmitJSON(t *testing.T) {
	t.Parallel()
	var output bytes.Buffer
	disabled := JSONOutput{}
	if done, err := disabled.EmitJSON(&output, 1); done || err != nil || output.Len() != 0 {
		t.Errorf("EmitJSON without --json = %v, %v, %q", done, err, output.String())
	}

	enabled := JSONOutput{OutputJSON: true}
	var rows []string
	if done, err := enabled.EmitJSON(&output, rows); !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(output.String()) != "[]" {
		t.Errorf("nil slice encoded as %q, want []", output.String())
	}
}
