// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "MINLOG_CONFIG"

// Config is a minlog project configuration.
type Config struct {
	// Build configures "minlog build".
	Build BuildConfig `yaml:"build"`

	// Decode configures "minlog decode".
	Decode DecodeConfig `yaml:"decode"`

	// Root is the directory relative paths resolve against: the config
	// file's directory, or empty for the working directory.
	Root string `yaml:"-"`

	// Source is the file the configuration was loaded from, empty for
	// defaults.
	Source string `yaml:"-"`
}

// BuildConfig configures source scanning and metadata output.
type BuildConfig struct {
	// SrcPaths are files or directories scanned for logging macros.
	SrcPaths []string `yaml:"src_paths"`

	// RootPaths are stripped from source paths before hashing, so IDs
	// do not depend on where the checkout lives.
	RootPaths []string `yaml:"root_paths"`

	// Extensions selects source files inside directories.
	Extensions []string `yaml:"extensions"`

	// Recursive descends into subdirectories of SrcPaths.
	Recursive bool `yaml:"recursive"`

	// TypeDefs is the JSONC type dictionary. Optional.
	TypeDefs string `yaml:"type_defs"`

	// Output is the metadata file written by the build; "-" is stdout.
	Output string `yaml:"output"`

	// Parallelism bounds concurrent file parses; 0 means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
}

// DecodeConfig configures capture decoding and its outputs. Empty
// output paths disable that output.
type DecodeConfig struct {
	// Metadata is the file produced by the build.
	Metadata string `yaml:"metadata"`

	// Format is the capture wire format: binary, micro or text.
	Format string `yaml:"format"`

	// ChunkSize is the read size in bytes.
	ChunkSize int `yaml:"chunk_size"`

	// Follow keeps reading a growing capture until interrupted.
	Follow bool `yaml:"follow"`

	// PollInterval is the wait between reads at end of file in
	// follow mode.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Color controls console coloring: auto, always or never.
	Color string `yaml:"color"`

	// CSVDir receives one CSV file per recorded value name.
	CSVDir string `yaml:"csv_dir"`

	// Perfetto is the trace file to write.
	Perfetto string `yaml:"perfetto"`

	// SQLite is the event store database.
	SQLite string `yaml:"sqlite"`

	// Archive is the CBOR event archive.
	Archive string `yaml:"archive"`
}

var (
	wireFormats = []string{"binary", "micro", "text"}
	colorModes  = []string{"auto", "always", "never"}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			SrcPaths:   []string{"src"},
			RootPaths:  []string{"."},
			Extensions: []string{".c", ".cpp", ".h", ".hpp"},
			Recursive:  true,
			Output:     filepath.Join("build", "min_logger.json"),
		},
		Decode: DecodeConfig{
			Metadata:     filepath.Join("build", "min_logger.json"),
			Format:       "binary",
			ChunkSize:    4096,
			PollInterval: 250 * time.Millisecond,
			Color:        "auto",
		},
	}
}

// Resolve returns the configuration for a command: the file at path if
// non-empty, else the file named by MINLOG_CONFIG, else Default().
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the configuration at path over Default(), expands
// variables in path fields, and resolves relative paths against the
// file's directory. The result is not validated.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Source = absolute
	cfg.Root = filepath.Dir(absolute)
	cfg.expandPaths()
	return cfg, nil
}

// expandPaths applies variable expansion and root-relative resolution
// to every path field.
func (c *Config) expandPaths() {
	vars := map[string]string{
		"MINLOG_ROOT": c.Root,
		"HOME":        os.Getenv("HOME"),
	}
	expand := func(path string) string {
		path = expandVars(path, vars)
		if path == "" || path == "-" || filepath.IsAbs(path) || c.Root == "" {
			return path
		}
		return filepath.Join(c.Root, path)
	}

	for i := range c.Build.SrcPaths {
		c.Build.SrcPaths[i] = expand(c.Build.SrcPaths[i])
	}
	for i := range c.Build.RootPaths {
		c.Build.RootPaths[i] = expand(c.Build.RootPaths[i])
	}
	c.Build.TypeDefs = expand(c.Build.TypeDefs)
	c.Build.Output = expand(c.Build.Output)

	c.Decode.Metadata = expand(c.Decode.Metadata)
	c.Decode.CSVDir = expand(c.Decode.CSVDir)
	c.Decode.Perfetto = expand(c.Decode.Perfetto)
	c.Decode.SQLite = expand(c.Decode.SQLite)
	c.Decode.Archive = expand(c.Decode.Archive)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		// Provided vars first, then the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem in the configuration, joined.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Build.SrcPaths) == 0 {
		errs = append(errs, fmt.Errorf("build.src_paths must not be empty"))
	}
	for _, extension := range c.Build.Extensions {
		if !strings.HasPrefix(extension, ".") {
			errs = append(errs, fmt.Errorf("build.extensions: %q must start with a dot", extension))
		}
	}
	if c.Build.Output == "" {
		errs = append(errs, fmt.Errorf("build.output is required"))
	}
	if c.Build.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("build.parallelism must not be negative, got %d", c.Build.Parallelism))
	}

	if !slices.Contains(wireFormats, c.Decode.Format) {
		errs = append(errs, fmt.Errorf("decode.format must be one of %v, got %q", wireFormats, c.Decode.Format))
	}
	if c.Decode.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("decode.chunk_size must be positive, got %d", c.Decode.ChunkSize))
	}
	if c.Decode.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("decode.poll_interval must be positive, got %s", c.Decode.PollInterval))
	}
	if !slices.Contains(colorModes, c.Decode.Color) {
		errs = append(errs, fmt.Errorf("decode.color must be one of %v, got %q", colorModes, c.Decode.Color))
	}

	return errors.Join(errs...)
}

// EnsureOutputDirs creates the parent directories of the configured
// output files.
func (c *Config) EnsureOutputDirs() error {
	paths := []string{c.Build.Output, c.Decode.Perfetto, c.Decode.SQLite, c.Decode.Archive}
	for _, path := range paths {
		if path == "" || path == "-" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	if c.Decode.CSVDir != "" {
		if err := os.MkdirAll(c.Decode.CSVDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", c.Decode.CSVDir, err)
		}
	}
	return nil
}
