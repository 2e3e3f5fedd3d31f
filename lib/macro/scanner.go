// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// Options configures a Scanner.
type Options struct {
	// RootPaths are stripped from source paths before they are
	// recorded and hashed. The first root that contains a file wins.
	RootPaths []string

	// Resolver validates value types. Nil means built-in types only.
	Resolver *typedef.Resolver

	// Logger receives duplicate-name warnings. Nil discards them.
	Logger *slog.Logger

	// Parallelism bounds concurrent file parsing. Zero or negative
	// means runtime.NumCPU().
	Parallelism int
}

// Scanner extracts call sites from source files and assigns their
// identifiers.
type Scanner struct {
	roots       []string
	resolver    *typedef.Resolver
	logger      *slog.Logger
	parallelism int
}

// NewScanner returns a scanner configured by options.
func NewScanner(options Options) *Scanner {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := options.Resolver
	if resolver == nil {
		resolver = typedef.NewResolver(nil)
	}
	parallelism := options.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Scanner{
		roots:       options.RootPaths,
		resolver:    resolver,
		logger:      logger,
		parallelism: parallelism,
	}
}

// Scan reads and parses files concurrently, then merges their
// definitions in file order. Any malformed call site, unresolvable
// value type, reserved ID, or ID collision aborts the scan. When
// several files fail, the error reported is the one from the earliest
// file in the list.
func (s *Scanner) Scan(ctx context.Context, files []string) (*metric.Table, error) {
	perFile := make([][]metric.Definition, len(files))
	fileErrors := make([]error, len(files))

	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(s.parallelism)
	for index, path := range files {
		group.Go(func() error {
			if err := groupContext.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fileErrors[index] = fmt.Errorf("reading source: %w", err)
				return nil
			}
			perFile[index], fileErrors[index] = s.ScanSource(path, string(data))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range fileErrors {
		if err != nil {
			return nil, err
		}
	}

	var merged []metric.Definition
	for _, definitions := range perFile {
		merged = append(merged, definitions...)
	}
	return s.merge(merged)
}

// ScanSource parses the call sites in one file's text. path is used
// for the recorded (root-relative) source location and error messages.
func (s *Scanner) ScanSource(path, text string) ([]metric.Definition, error) {
	calls, err := FindCalls(text)
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}

	relative := RelativePath(path, s.roots)
	var definitions []metric.Definition
	for _, call := range calls {
		layout, ok := variants[call.Name]
		if !ok {
			continue
		}
		definition, err := s.define(call, layout, relative)
		if err != nil {
			return nil, &ParseError{File: path, Line: call.Line, Err: err}
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}

func (s *Scanner) define(call Call, layout variant, relative string) (metric.Definition, error) {
	arguments := SplitArguments(call.Arguments)
	if len(arguments) == 1 && arguments[0] == "" {
		arguments = nil
	}
	layout, err := layout.layoutFor(len(arguments))
	if err != nil {
		return metric.Definition{}, fmt.Errorf("%s%s %w", Prefix, call.Name, err)
	}

	var idText string
	if layout.explicit {
		idText, arguments = splitExplicitID(arguments, layout.roles)
	}

	definition := metric.Definition{
		Kind:       layout.kind,
		SourceFile: relative,
		SourceLine: call.Line,
		ValueType:  layout.valueType,
		IsArray:    layout.isArray,
	}

	for position, argumentRole := range layout.roles {
		argument := arguments[position]
		switch argumentRole {
		case roleSeverity:
			level, err := metric.ParseSeverity(argument)
			if err != nil {
				return metric.Definition{}, err
			}
			definition.Level = level
		case roleMessage:
			message, err := stringLiteral(argument)
			if err != nil {
				return metric.Definition{}, err
			}
			definition.Message = message
		case roleName:
			name, err := stringLiteral(argument)
			if err != nil {
				return metric.Definition{}, err
			}
			definition.Name = name
		case roleType:
			if argument == "" {
				return metric.Definition{}, fmt.Errorf("empty value type")
			}
			definition.ValueType = argument
		}
	}

	if definition.ValueType != "" {
		if _, err := s.resolver.Size(definition.ValueType); err != nil {
			return metric.Definition{}, fmt.Errorf("value type of %q: %w", definition.Name, err)
		}
	}

	if layout.explicit {
		id, err := ParseID(idText)
		if err != nil {
			return metric.Definition{}, err
		}
		definition.ID = id
	} else {
		definition.ID = HashLocation(relative, call.Line)
	}
	if metric.IsReserved(definition.ID) {
		return metric.Definition{}, fmt.Errorf("ID %s is reserved", metric.HexID(definition.ID))
	}
	return definition, nil
}

// merge rejects duplicate IDs and warns about shared names.
func (s *Scanner) merge(definitions []metric.Definition) (*metric.Table, error) {
	seen := make(map[uint32]int, len(definitions))
	byName := make(map[string][]int)
	var names []string

	for index, definition := range definitions {
		if previous, exists := seen[definition.ID]; exists {
			return nil, &DuplicateIDError{
				ID:     definition.ID,
				First:  definitions[previous].Location(),
				Second: definition.Location(),
			}
		}
		seen[definition.ID] = index

		if definition.Name != "" {
			if _, exists := byName[definition.Name]; !exists {
				names = append(names, definition.Name)
			}
			byName[definition.Name] = append(byName[definition.Name], index)
		}
	}

	for _, name := range names {
		indexes := byName[name]
		if len(indexes) < 2 || isRegionPair(definitions[indexes[0]].Kind, definitions[indexes[1]].Kind, len(indexes)) {
			continue
		}
		locations := make([]string, len(indexes))
		for i, index := range indexes {
			locations[i] = definitions[index].Location()
		}
		s.logger.Warn("duplicate metric name",
			"name", name,
			"locations", strings.Join(locations, ", "),
		)
	}

	return metric.NewTable(definitions)
}

func isRegionPair(first, second metric.Kind, count int) bool {
	if count != 2 {
		return false
	}
	return (first == metric.Enter && second == metric.Exit) || (first == metric.Exit && second == metric.Enter)
}

// splitExplicitID separates the ID from the other arguments. Every
// layout has a string-literal role (message or name) right after the
// severity; where that literal sits tells the ID position, so a numeric
// severity is never mistaken for a leading ID.
func splitExplicitID(arguments []string, roles []role) (string, []string) {
	last := len(arguments) - 1
	literal := firstLiteralRole(roles)
	switch {
	case literal >= 0 && isStringLiteral(arguments[literal]):
		return arguments[last], arguments[:last]
	case literal >= 0 && isStringLiteral(arguments[literal+1]):
		return arguments[0], arguments[1:]
	case !isIntegerLiteral(arguments[0]) && isIntegerLiteral(arguments[last]):
		return arguments[last], arguments[:last]
	}
	return arguments[0], arguments[1:]
}

func firstLiteralRole(roles []role) int {
	for position, argumentRole := range roles {
		if argumentRole == roleMessage || argumentRole == roleName {
			return position
		}
	}
	return -1
}

func isStringLiteral(argument string) bool {
	_, err := stringLiteral(argument)
	return err == nil
}

// ParseID parses an explicit identifier literal in any C integer base
// (0x, 0b, 0o or leading-zero octal, decimal). Integer suffixes such as
// u and UL are ignored.
func ParseID(text string) (uint32, error) {
	value, err := parseIntegerLiteral(text)
	if err != nil {
		return 0, fmt.Errorf("could not parse ID %q", text)
	}
	if value > math.MaxUint32 {
		return 0, fmt.Errorf("could not parse ID %q: exceeds 32 bits", text)
	}
	return uint32(value), nil
}

func isIntegerLiteral(text string) bool {
	_, err := parseIntegerLiteral(text)
	return err == nil
}

func parseIntegerLiteral(text string) (uint64, error) {
	literal := strings.TrimRight(strings.TrimSpace(text), "uUlL")
	if literal == "" {
		return 0, errors.New("empty literal")
	}
	return strconv.ParseUint(strings.ReplaceAll(literal, "'", ""), 0, 64)
}

// HashLocation derives an identifier from a root-relative source path
// and line: the CRC-32 (IEEE) of "path:line" with forward slashes.
func HashLocation(relative string, line int) uint32 {
	location := filepath.ToSlash(relative) + ":" + strconv.Itoa(line)
	return crc32.ChecksumIEEE([]byte(location))
}

// RelativePath strips the first root that contains path. Paths outside
// every root are returned cleaned. Results use forward slashes.
func RelativePath(path string, roots []string) string {
	cleaned := filepath.Clean(path)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		absolute = cleaned
	}
	for _, root := range roots {
		rootAbsolute, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			continue
		}
		relative, err := filepath.Rel(rootAbsolute, absolute)
		if err != nil || relative == "." || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(relative)
	}
	return filepath.ToSlash(cleaned)
}

// stringLiteral strips the quotes from a string literal argument.
func stringLiteral(argument string) (string, error) {
	if len(argument) < 2 || argument[0] != '"' || argument[len(argument)-1] != '"' {
		return "", fmt.Errorf("%s is not a string literal", argument)
	}
	return argument[1 : len(argument)-1], nil
}
