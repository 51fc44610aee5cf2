// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bureau-foundation/cliche/lib/postmortem"
)

// Policy selects how a failed dispatch is reported.
type Policy int

const (
	// PolicyTraceback prints the full diagnostic: the error, its type,
	// the wrap chain, and the stack of a recovered panic.
	PolicyTraceback Policy = iota

	// PolicySummary prints one line (--notraceback).
	PolicySummary

	// PolicyPostMortem prints the full diagnostic and opens an
	// interactive session (--pdb).
	PolicyPostMortem
)

// PolicyFor returns the policy selected by controls. --pdb wins over
// --notraceback.
func PolicyFor(controls Controls) Policy {
	switch {
	case controls.PDB:
		return PolicyPostMortem
	case controls.NoTraceback:
		return PolicySummary
	default:
		return PolicyTraceback
	}
}

// Reporter renders an [Outcome] and decides the exit code.
type Reporter struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	Printer *Printer

	// Styles are the styles of Stderr.
	Styles *Styles

	// PostMortem runs the --pdb session. Nil runs session.Run.
	PostMortem func(session *postmortem.Session) error
}

// Report prints the result or the failure of outcome and returns the
// exit code.
func (r *Reporter) Report(outcome Outcome) int {
	if !outcome.Failed() {
		if !outcome.HasValue {
			return ExitOK
		}
		if err := r.Printer.Print(outcome.Value, outcome.Controls.Raw); err != nil {
			fmt.Fprintln(r.Stderr, r.Styles.Error.Render("error: writing result: "+err.Error()))
			return ExitFailure
		}
		return ExitOK
	}

	var exitError *ExitError
	if errors.As(outcome.Err, &exitError) {
		return exitError.ExitCode()
	}

	call := outcome.Call
	if call == "" {
		call = outcome.Command
	}
	fmt.Fprintln(r.Stderr, r.Styles.Warning.Render(
		fmt.Sprintf("Fault while calling %s with the above arguments", call)))

	switch PolicyFor(outcome.Controls) {
	case PolicySummary:
		fmt.Fprintln(r.Stderr, r.Styles.Error.Render(summary(outcome.Err)))
	case PolicyPostMortem:
		r.diagnose(outcome)
		session := &postmortem.Session{
			Command:   outcome.Command,
			Call:      call,
			Err:       outcome.Err,
			Stack:     outcome.Stack(),
			Arguments: outcome.Arguments,
			In:        r.Stdin,
			Out:       r.Stderr,
		}
		run := r.PostMortem
		if run == nil {
			run = (*postmortem.Session).Run
		}
		if err := run(session); err != nil {
			fmt.Fprintln(r.Stderr, r.Styles.Error.Render(err.Error()))
		}
	default:
		r.diagnose(outcome)
	}
	return ExitFailure
}

// diagnose writes the full diagnostic of a failed outcome.
func (r *Reporter) diagnose(outcome Outcome) {
	var b strings.Builder
	if stack := outcome.Stack(); len(stack) > 0 {
		b.WriteString("Goroutine stack (most recent call first):\n")
		b.Write(stack)
		if stack[len(stack)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "Stage: %s\n", outcome.Stage)
	depth := 0
	for err := outcome.Err; err != nil; err = errors.Unwrap(err) {
		label := "Error"
		if depth > 0 {
			label = strings.Repeat("  ", depth) + "caused by"
		}
		fmt.Fprintf(&b, "%s: %T: %v\n", label, err, err)
		depth++
	}
	io.WriteString(r.Stderr, b.String())
	fmt.Fprintln(r.Stderr, r.Styles.Error.Render(summary(outcome.Err)))
}

// summary is the one-line form of err: its category or panic marker
// followed by the message.
func summary(err error) string {
	var toolError *ToolError
	var panicError *PanicError
	switch {
	case errors.As(err, &panicError):
		return "panic: " + fmt.Sprint(panicError.Value)
	case errors.As(err, &toolError):
		return string(toolError.Category) + " error: " + err.Error()
	default:
		return "error: " + err.Error()
	}
}
