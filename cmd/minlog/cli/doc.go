// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the minlog binary.
//
// A [Command] tree dispatches on the first positional argument; leaf
// commands parse their flags with spf13/pflag and run. Flags are
// usually declared as tagged struct fields and bound with
// [FlagsFromParams]:
//
//	type decodeParams struct {
//	    Metadata string `flag:"metadata,m" desc:"metadata file"`
//	    Follow   bool   `flag:"follow,f" desc:"keep reading a growing capture"`
//	}
//
// Mistyped commands and flags get a "did you mean" suggestion based on
// edit distance. [JSONOutput] adds a --json flag to a params struct.
// Errors are categorized with [Validation], [NotFound] and [Internal];
// [ExitError] requests a specific exit code without an error message.
package cli
