// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML project configuration for minlog.
//
// A project keeps its build and decode settings in one file selected by
// the --config flag or the MINLOG_CONFIG environment variable (see
// [Resolve]). There is no discovery: without either, the built-in
// [Default] values apply, and command-line flags override whatever the
// file says.
//
// The file has two sections, build and decode, mirroring the two
// commands that consume them. Path fields support ${HOME},
// ${MINLOG_ROOT} (the directory holding the config file) and
// ${VAR:-default}; after expansion, relative paths are taken relative
// to the config file so a checked-in minlog.yaml works from any
// working directory.
//
// This package depends on no other minlog packages.
package config
