// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bureau-foundation/cliche/lib/config"
	"github.com/bureau-foundation/cliche/lib/postmortem"
)

type reporterFixture struct {
	reporter *Reporter
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	sessions []*postmortem.Session
}

func newReporterFixture() *reporterFixture {
	f := &reporterFixture{}
	f.reporter = &Reporter{
		Stdout:  &f.stdout,
		Stderr:  &f.stderr,
		Stdin:   strings.NewReader(""),
		Printer: &Printer{Out: &f.stdout, Format: config.FormatJSON, Indent: 4},
		Styles:  NewStyles(&f.stderr, false),
		PostMortem: func(session *postmortem.Session) error {
			f.sessions = append(f.sessions, session)
			return nil
		},
	}
	return f
}

func failedOutcome(err error, controls Controls) Outcome {
	return Outcome{
		Command:   "fail",
		Call:      `Fail(reason string = "boom")`,
		Controls:  controls,
		Arguments: map[string]any{"reason": "boom"},
		Err:       err,
		Stage:     StageCall,
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		controls Controls
		want     Policy
	}{
		{Controls{}, PolicyTraceback},
		{Controls{NoTraceback: true}, PolicySummary},
		{Controls{PDB: true}, PolicyPostMortem},
		{Controls{PDB: true, NoTraceback: true}, PolicyPostMortem},
	}
	for _, test := range tests {
		if got := PolicyFor(test.controls); got != test.want {
			t.Errorf("PolicyFor(%+v) = %d, want %d", test.controls, got, test.want)
		}
	}
}

func TestReporter_Success(t *testing.T) {
	f := newReporterFixture()
	if code := f.reporter.Report(Outcome{Value: []int{1, 2}, HasValue: true}); code != ExitOK {
		t.Errorf("exit code = %d, want 0", code)
	}
	if f.stdout.String() != "[\n    1,\n    2\n]\n" {
		t.Errorf("stdout = %q", f.stdout.String())
	}

	f = newReporterFixture()
	f.reporter.Report(Outcome{Value: []int{1, 2}, HasValue: true, Controls: Controls{Raw: true}})
	if f.stdout.String() != "[1 2]\n" {
		t.Errorf("raw stdout = %q, want [1 2]", f.stdout.String())
	}

	f = newReporterFixture()
	f.reporter.Report(Outcome{})
	if f.stdout.Len() != 0 || f.stderr.Len() != 0 {
		t.Errorf("no value printed %q / %q, want nothing", f.stdout.String(), f.stderr.String())
	}
}

func TestReporter_Traceback(t *testing.T) {
	f := newReporterFixture()
	err := fmt.Errorf("saving: %w", errors.New("disk full"))
	if code := f.reporter.Report(failedOutcome(err, Controls{})); code != ExitFailure {
		t.Errorf("exit code = %d, want 1", code)
	}
	output := f.stderr.String()
	for _, want := range []string{
		`Fault while calling Fail(reason string = "boom") with the above arguments`,
		"Stage: call",
		"Error: *fmt.wrapError: saving: disk full",
		"  caused by: *errors.errorString: disk full",
		"error: saving: disk full",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("stderr missing %q:\n%s", want, output)
		}
	}
	if f.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", f.stdout.String())
	}
}

func TestReporter_TracebackPanic(t *testing.T) {
	f := newReporterFixture()
	err := &PanicError{Value: "kaboom", Stack: []byte("goroutine 1 [running]:\nmain.Explode()\n")}
	f.reporter.Report(failedOutcome(err, Controls{}))
	output := f.stderr.String()
	if !strings.Contains(output, "Goroutine stack") || !strings.Contains(output, "main.Explode()") {
		t.Errorf("stderr missing the stack:\n%s", output)
	}
	if !strings.Contains(output, "panic: kaboom") {
		t.Errorf("stderr missing the summary:\n%s", output)
	}
}

func TestReporter_Summary(t *testing.T) {
	f := newReporterFixture()
	err := &PanicError{Value: "kaboom", Stack: []byte("goroutine 1 [running]:\n")}
	if code := f.reporter.Report(failedOutcome(err, Controls{NoTraceback: true})); code != ExitFailure {
		t.Errorf("exit code = %d, want 1", code)
	}
	want := "Fault while calling Fail(reason string = \"boom\") with the above arguments\npanic: kaboom\n"
	if f.stderr.String() != want {
		t.Errorf("stderr = %q, want %q", f.stderr.String(), want)
	}
}

func TestReporter_SummaryCategory(t *testing.T) {
	f := newReporterFixture()
	f.reporter.Report(failedOutcome(Validation("zip too small"), Controls{NoTraceback: true}))
	if !strings.Contains(f.stderr.String(), "validation error: zip too small") {
		t.Errorf("stderr = %q", f.stderr.String())
	}
}

func TestReporter_PostMortem(t *testing.T) {
	f := newReporterFixture()
	err := errors.New("boom")
	if code := f.reporter.Report(failedOutcome(err, Controls{PDB: true, NoTraceback: true})); code != ExitFailure {
		t.Errorf("exit code = %d, want 1", code)
	}
	if len(f.sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(f.sessions))
	}
	session := f.sessions[0]
	if session.Err != err || session.Command != "fail" || session.Arguments["reason"] != "boom" {
		t.Errorf("session = %+v", session)
	}
	if !strings.Contains(f.stderr.String(), "Stage: call") {
		t.Errorf("post-mortem without the full diagnostic:\n%s", f.stderr.String())
	}
}

func TestReporter_ExitError(t *testing.T) {
	f := newReporterFixture()
	err := fmt.Errorf("check: %w", &ExitError{Code: 7})
	if code := f.reporter.Report(failedOutcome(err, Controls{})); code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if f.stderr.Len() != 0 {
		t.Errorf("stderr = %q, want nothing", f.stderr.String())
	}
}
