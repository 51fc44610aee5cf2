// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package postmortem runs an interactive inspection session after a
// command fails under --pdb.
//
// Go cannot resume a finished call, so the session inspects what the
// failure left behind: the error and its wrap chain, the goroutine
// stack of a recovered panic, and the arguments the command was called
// with. On a terminal the session uses golang.org/x/term for line
// editing and history; otherwise it reads plain lines, which keeps it
// scriptable in tests.
package postmortem
