// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger a program uses for
// registration warnings and framework diagnostics. When w is a
// terminal, it uses slog.TextHandler for human-readable output. When w
// is piped or redirected (CI, scripts, tests), it uses
// slog.JSONHandler for machine-parseable output.
//
// Callers scope the logger with context via With():
//
//	logger := cli.NewCommandLogger(os.Stderr, slog.LevelWarn).With(
//	    "program", "cliche-demo",
//	)
func NewCommandLogger(w io.Writer, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// terminalWidth returns the column count of w, or fallback when w is
// not a terminal.
func terminalWidth(w io.Writer, fallback int) int {
	file, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
