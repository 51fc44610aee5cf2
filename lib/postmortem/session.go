// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package postmortem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// Prompt is printed before each command.
const Prompt = "(postmortem) "

// Session holds the state of one failed command.
type Session struct {
	// Command is the command-line name; Call the Go name and signature.
	Command string
	Call    string

	Err   error
	Stack []byte

	// Arguments are the values the command was dispatched with.
	Arguments map[string]any

	In  io.Reader
	Out io.Writer
}

type lineReader interface {
	ReadLine() (string, error)
}

// Run reads commands until quit or end of input.
func (s *Session) Run() error {
	reader, out, restore, err := s.open()
	if err != nil {
		return err
	}
	defer restore()

	fmt.Fprintf(out, "Post-mortem of %s: %v\n", s.Command, s.Err)
	fmt.Fprintln(out, "Type help for commands.")
	for {
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("postmortem: reading command: %w", err)
		}
		if s.Execute(out, line) {
			return nil
		}
	}
}

// open picks the line reader: a raw-mode terminal when In is one,
// buffered lines otherwise.
func (s *Session) open() (lineReader, io.Writer, func(), error) {
	if file, ok := s.In.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		state, err := term.MakeRaw(int(file.Fd()))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postmortem: entering raw mode: %w", err)
		}
		terminal := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{file, s.Out}, Prompt)
		restore := func() { term.Restore(int(file.Fd()), state) }
		return terminal, terminal, restore, nil
	}
	reader := &scannerReader{scanner: bufio.NewScanner(s.In), out: s.Out}
	return reader, s.Out, func() {}, nil
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, Prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Execute runs one session command and reports whether the session
// should end.
func (s *Session) Execute(out io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q", "quit", "exit", "c", "continue":
		return true
	case "h", "help", "?":
		fmt.Fprint(out, helpText)
	case "w", "where", "bt":
		s.where(out)
	case "e", "error":
		fmt.Fprintf(out, "%T: %v\n", s.Err, s.Err)
	case "chain":
		writeChain(out, s.Err, 0)
	case "a", "args":
		s.args(out)
	case "p", "print":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: print NAME")
			break
		}
		value, ok := s.Arguments[fields[1]]
		if !ok {
			fmt.Fprintf(out, "no argument %q\n", fields[1])
			break
		}
		fmt.Fprintf(out, "%s = %#v\n", fields[1], value)
	case "call":
		fmt.Fprintln(out, s.Call)
	default:
		fmt.Fprintf(out, "unknown command %q; type help\n", fields[0])
	}
	return false
}

const helpText = `Commands:
  where, w, bt     goroutine stack of the panic
  error, e         the error and its type
  chain            the wrapped error chain
  args, a          arguments of the failed call
  print, p NAME    one argument in Go syntax
  call             the failed function and its signature
  help, h, ?       this list
  quit, q, c       leave the session
`

func (s *Session) where(out io.Writer) {
	if len(s.Stack) == 0 {
		fmt.Fprintln(out, "no stack: the command returned an error rather than panicking")
		return
	}
	out.Write(s.Stack)
	if s.Stack[len(s.Stack)-1] != '\n' {
		fmt.Fprintln(out)
	}
}

func (s *Session) args(out io.Writer) {
	if len(s.Arguments) == 0 {
		fmt.Fprintln(out, "no arguments")
		return
	}
	names := make([]string, 0, len(s.Arguments))
	for name := range s.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s = %v\n", name, s.Arguments[name])
	}
}

// writeChain prints err and everything it wraps, one level per line,
// following joined errors depth first.
func writeChain(out io.Writer, err error, depth int) {
	if err == nil {
		return
	}
	fmt.Fprintf(out, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
	switch wrapped := err.(type) {
	case interface{ Unwrap() error }:
		writeChain(out, wrapped.Unwrap(), depth+1)
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			writeChain(out, inner, depth+1)
		}
	}
}
