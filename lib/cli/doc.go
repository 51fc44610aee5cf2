// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli turns the commands of a [registry.Registry] into a
// command-line program.
//
// The pipeline has four stages:
//
//   - [Build] synthesizes an [ArgumentSchema]: per command, an
//     optional INITIALIZE CLASS group for the receiver's constructor
//     parameters, the ARGUMENTS group, and the process-wide OPTIONAL
//     CLI ARGUMENTS group (--notraceback, --cli, --pdb, --timing,
//     --raw). Shorthands, inverted booleans (--no-x), config-file
//     defaults, and the single-command shortcut are decided here.
//   - [NewParser] materializes the schema as a tree of [Command] nodes
//     backed by pflag flag sets; [Command.Parse] produces an
//     [Invocation].
//   - [Dispatcher.Dispatch] converts the parsed values, builds models
//     and receivers, calls the function, and returns an [Outcome].
//   - [Reporter.Report] prints the result or reports the failure under
//     the policy the controls select, and returns the exit code.
//
// [App.Main] runs the whole pipeline once for a program, adding
// configuration loading, help, --cli, phase timing, and bash completion
// through complete -C.
//
// When a user types an unknown command or flag, the parser computes
// Levenshtein edit distance against all known names and suggests the
// closest match. This is implemented in suggest.go.
package cli
