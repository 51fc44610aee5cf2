// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// Exit codes returned by [App.Main].
const (
	// ExitOK covers normal completion, help, and --cli.
	ExitOK = 0

	// ExitFailure means the command ran and failed.
	ExitFailure = 1

	// ExitUsage covers parse errors and unknown commands. Help is
	// printed before the error.
	ExitUsage = 2

	// ExitNoCommands means the registry was empty.
	ExitNoCommands = 3
)

// ExitError signals a non-zero exit code without printing an extra
// error message. A command that returns an ExitError has already
// written its own output; the application exits with Code and reports
// nothing further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. The reporter checks for this
// interface on returned errors to distinguish "handled non-zero exit"
// from "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}
