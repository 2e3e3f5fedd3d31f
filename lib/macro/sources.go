// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package macro

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DefaultExtensions are the source suffixes scanned when none are
// configured.
var DefaultExtensions = []string{".c", ".cpp", ".h", ".hpp"}

// FindSources expands paths into the source files to scan. A file path
// is kept when its extension matches. A directory contributes its
// matching files, and with recursive also those of every subdirectory.
// Paths that do not exist are skipped. The result is sorted and free
// of duplicates.
func FindSources(paths, extensions []string, recursive bool) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	matches := func(path string) bool {
		return slices.Contains(extensions, filepath.Ext(path))
	}

	var found []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("source path %s: %w", path, err)
		}
		if !info.IsDir() {
			if matches(path) {
				found = append(found, filepath.Clean(path))
			}
			continue
		}

		err = filepath.WalkDir(path, func(current string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if current != path && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.Type().IsRegular() && matches(current) {
				found = append(found, current)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	slices.Sort(found)
	return slices.Compact(found), nil
}
