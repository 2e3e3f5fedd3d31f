// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/minlog/cmd/minlog/cli"
	"github.com/bureau-foundation/minlog/lib/clock"
	"github.com/bureau-foundation/minlog/lib/frame"
)

const helloSource = "\n\n\n\n\n\n" + `MIN_LOGGER_LOG_ID(MIN_LOGGER_INFO, "hello", 0xDEADBEEF);
MIN_LOGGER_LOG(MIN_LOGGER_ERROR, "motor stalled");
`

type harness struct {
	dir    string
	stdin  *bytes.Buffer
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner func(ctx context.Context, name string, args ...string) (string, error)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dir:    t.TempDir(),
		stdin:  &bytes.Buffer{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	streams := Streams{
		Stdin:  h.stdin,
		Stdout: h.stdout,
		Stderr: h.stderr,
		Clock:  clock.Fake(time.Unix(0, 0)),
		Runner: h.runner,
	}
	return Root(streams).Execute(context.Background(), args)
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := h.path(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// build scans helloSource and returns the metadata path.
func (h *harness) build(t *testing.T) string {
	t.Helper()
	h.write(t, "test.c", helloSource)
	metadata := h.path("build/min_logger.json")
	if err := h.run("build", "--root-path", h.dir, "-o", metadata, h.dir); err != nil {
		t.Fatalf("build: %v\nstderr: %s", err, h.stderr)
	}
	return metadata
}

func helloCapture(t *testing.T) []byte {
	t.Helper()
	capture, err := frame.AppendFrame(nil, 0xDEADBEEF, 0, 1_500_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	return capture
}

func TestBuildAndDecode(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	metadata := h.build(t)

	h.stdin.Write(helloCapture(t))
	if err := h.run("decode", "-m", metadata, "--color", "never"); err != nil {
		t.Fatalf("decode: %v\nstderr: %s", err, h.stderr)
	}
	output := h.stdout.String()
	for _, want := range []string{"1.500000", "INFO", "test.c:7", "thread_id_0] hello"} {
		if !strings.Contains(output, want) {
			t.Errorf("decode output %q missing %q", output, want)
		}
	}
}

func TestBuildToStdout(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.write(t, "test.c", helloSource)
	if err := h.run("build", "--root-path", h.dir, "-o", "-", h.dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "motor stalled") {
		t.Errorf("metadata on stdout missing message: %s", h.stdout)
	}
}

func TestBuildNoSources(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.run("build", "-o", h.path("out.json"), h.dir)
	if code, _ := cli.ExitCodeOf(err); code != 2 {
		t.Fatalf("build of empty tree: err = %v, exit code %d, want 2", err, code)
	}
}

func TestInspectJSON(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	metadata := h.build(t)
	if err := h.run("inspect", "-m", metadata, "--json"); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	var result inspectResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, h.stdout)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("inspect listed %d entries, want 2", len(result.Entries))
	}
	var hello *inspectEntry
	for i := range result.Entries {
		if result.Entries[i].ID == "0xDEADBEEF" {
			hello = &result.Entries[i]
		}
	}
	if hello == nil {
		t.Fatalf("entry 0xDEADBEEF missing from %+v", result.Entries)
	}
	if hello.TruncatedID != "0xBEEF" || hello.Location != "test.c:7" || hello.Level != "INFO" {
		t.Errorf("hello entry = %+v", *hello)
	}
	if result.Collisions == nil || result.Types == nil {
		t.Errorf("empty lists should encode as [], got %s", h.stdout)
	}
}

func TestInspectTable(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	metadata := h.build(t)
	if err := h.run("inspect", "-m", metadata); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	output := h.stdout.String()
	for _, want := range []string{"LOCATION", "0xDEADBEEF", "0xBEEF", "motor stalled", "2 entries"} {
		if !strings.Contains(output, want) {
			t.Errorf("inspect output missing %q:\n%s", want, output)
		}
	}
}

func TestDecodeToStoresThenQuery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	metadata := h.build(t)
	database := h.path("out/events.db")
	archive := h.path("out/events.cbor.zst")

	h.stdin.Write(helloCapture(t))
	if err := h.run("decode", "-m", metadata, "-q", "--sqlite", database, "--archive", archive); err != nil {
		t.Fatalf("decode: %v\nstderr: %s", err, h.stderr)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("quiet decode printed %q", h.stdout)
	}

	if err := h.run("logs", "--db", database, "--color", "never"); err != nil {
		t.Fatalf("logs --db: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "test.c:7 thread_id_0] hello") {
		t.Errorf("logs --db output = %q", h.stdout)
	}

	if err := h.run("logs", "--archive", archive, "--json"); err != nil {
		t.Fatalf("logs --archive: %v", err)
	}
	var records []struct {
		MetricID uint32 `json:"metric_id"`
		Label    string `json:"label"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &records); err != nil {
		t.Fatalf("logs --json output: %v\n%s", err, h.stdout)
	}
	if len(records) != 1 || records[0].MetricID != 0xDEADBEEF || records[0].Label != "INFO" || records[0].Message != "hello" {
		t.Errorf("archive records = %+v", records)
	}

	if err := h.run("logs", "--db", database, "--severity", "ERROR", "--json"); err != nil {
		t.Fatalf("logs --severity: %v", err)
	}
	if strings.TrimSpace(h.stdout.String()) != "[]" {
		t.Errorf("ERROR filter matched INFO line: %s", h.stdout)
	}
}

func TestLogsArguments(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tests := map[string][]string{
		"both sources":       {"logs", "--db", "a.db", "--archive", "a.cbor"},
		"value on archive":   {"logs", "--archive", "a.cbor", "--value", "pose"},
		"bad severity":       {"logs", "--db", "a.db", "--severity", "LOUD"},
		"non-positive limit": {"logs", "--db", "a.db", "--limit", "0"},
	}
	for name, args := range tests {
		err := h.run(args...)
		if code, _ := cli.ExitCodeOf(err); code != 2 {
			t.Errorf("%s: err = %v, exit code %d, want 2", name, err, code)
		}
	}

	err := h.run("logs", "--db", h.path("missing.db"))
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryNotFound {
		t.Errorf("missing store: err = %v, want not_found", err)
	}
}

func TestValidateTypes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	typeDefs := h.write(t, "types.jsonc", `{
		"Point": {"x": "float", "y": "float"},
		"Wide": {"a": "uint32_t"},
	}`)
	sizes := map[string]string{"Point": "8\n", "Wide": "12\n"}
	var calls int
	h.runner = func(_ context.Context, name string, args ...string) (string, error) {
		calls++
		if name != "gdb-multiarch" || args[0] != "fw.elf" {
			t.Errorf("debugger invoked as %s %v", name, args)
		}
		expression := args[len(args)-1]
		for typeName, size := range sizes {
			if expression == "-ex=output sizeof("+typeName+")" {
				return size, nil
			}
		}
		return "", errors.New("No symbol in current context.")
	}

	err := h.run("validate-types", "-b", "fw.elf", "-t", typeDefs, "--gdb", "gdb-multiarch")
	code, silent := cli.ExitCodeOf(err)
	if code != 1 || !silent {
		t.Fatalf("validate-types: err = %v, exit code %d silent %v, want silent 1", err, code, silent)
	}
	if calls != 2 {
		t.Errorf("debugger called %d times, want 2", calls)
	}
	output := h.stdout.String()
	for _, want := range []string{"TYPE", "Point", "MISMATCH", "2 types checked, 1 failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("validate-types output missing %q:\n%s", want, output)
		}
	}

	sizes["Wide"] = "4"
	if err := h.run("validate-types", "-b", "fw.elf", "-t", typeDefs, "--gdb", "gdb-multiarch", "--json"); err != nil {
		t.Fatalf("validate-types after fix: %v", err)
	}
	var result validateResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Failures != 0 || len(result.Types) != 2 || !result.Types[1].OK {
		t.Errorf("validate-types result = %+v", result)
	}
}

func TestValidateTypesRequiresBinary(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.run("validate-types", "-t", "types.jsonc")
	if code, _ := cli.ExitCodeOf(err); code != 2 {
		t.Errorf("missing --binary: err = %v, exit code %d, want 2", err, code)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.run("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "Go: go") {
		t.Errorf("version output = %q", h.stdout)
	}

	if err := h.run("version", "--json"); err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	if err := json.Unmarshal(h.stdout.Bytes(), &info); err != nil {
		t.Fatalf("version --json: %v\n%s", err, h.stdout)
	}
	if _, ok := info["go_version"]; !ok {
		t.Errorf("version --json missing go_version: %v", info)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.run("decod")
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("unknown command error = %v, want a suggestion of decode", err)
	}
}
