// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package postmortem

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func newSession(input string, err error) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	return &Session{
		Command:   "sum",
		Call:      "Sum(values []int)",
		Err:       err,
		Arguments: map[string]any{"values": []int{1, 2}, "label": "total"},
		In:        strings.NewReader(input),
		Out:       &out,
	}, &out
}

func TestSession_Run_QuitsOnCommand(t *testing.T) {
	session, out := newSession("args\nquit\nerror\n", errors.New("bad"))
	if err := session.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "Post-mortem of sum: bad") {
		t.Errorf("output = %q, want the banner", output)
	}
	if !strings.Contains(output, "label = total\nvalues = [1 2]\n") {
		t.Errorf("output = %q, want sorted arguments", output)
	}
	if strings.Contains(output, "*errors.errorString") {
		t.Error("commands after quit were executed")
	}
}

func TestSession_Run_EndsAtEOF(t *testing.T) {
	session, out := newSession("call\n", errors.New("bad"))
	if err := session.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Sum(values []int)") {
		t.Errorf("output = %q, want the call", out.String())
	}
	if strings.Count(out.String(), Prompt) != 2 {
		t.Errorf("output = %q, want two prompts", out.String())
	}
}

func TestSession_Execute(t *testing.T) {
	wrapped := fmt.Errorf("opening ledger: %w", fs.ErrNotExist)
	tests := []struct {
		line string
		want string
	}{
		{"error", "*fmt.wrapError: opening ledger: file does not exist"},
		{"chain", "  *errors.errorString: file does not exist"},
		{"p values", "values = []int{1, 2}"},
		{"p missing", `no argument "missing"`},
		{"print", "usage: print NAME"},
		{"where", "no stack"},
		{"help", "leave the session"},
		{"frobnicate", `unknown command "frobnicate"`},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			session, _ := newSession("", wrapped)
			var out bytes.Buffer
			if session.Execute(&out, test.line) {
				t.Fatalf("Execute(%q) ended the session", test.line)
			}
			if !strings.Contains(out.String(), test.want) {
				t.Errorf("Execute(%q) wrote %q, want %q", test.line, out.String(), test.want)
			}
		})
	}
}

func TestSession_Where_PrintsStack(t *testing.T) {
	session, _ := newSession("", errors.New("panic: boom"))
	session.Stack = []byte("goroutine 1 [running]:\nmain.boom()")
	var out bytes.Buffer
	session.Execute(&out, "bt")
	if out.String() != "goroutine 1 [running]:\nmain.boom()\n" {
		t.Errorf("where = %q", out.String())
	}
}

func TestWriteChain_Joined(t *testing.T) {
	var out bytes.Buffer
	writeChain(&out, errors.Join(errors.New("first"), errors.New("second")), 0)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("chain = %q, want three lines", out.String())
	}
	if lines[1] != "  *errors.errorString: first" || lines[2] != "  *errors.errorString: second" {
		t.Errorf("chain = %q", lines)
	}
}
