// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/cliche/lib/registry"
)

func newTestParser(t *testing.T, reg *registry.Registry, args []string) *Command {
	t.Helper()
	root, err := NewParser(buildSchema(t, reg, args, BuildOptions{}), nil)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return root
}

func parse(t *testing.T, reg *registry.Registry, args ...string) *Invocation {
	t.Helper()
	invocation, err := newTestParser(t, reg, args).Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return invocation
}

func parseError(t *testing.T, reg *registry.Registry, args ...string) *ToolError {
	t.Helper()
	_, err := newTestParser(t, reg, args).Parse(args)
	var toolError *ToolError
	if !errors.As(err, &toolError) {
		t.Fatalf("Parse(%q) error = %v, want a ToolError", args, err)
	}
	return toolError
}

func TestCommand_Parse_Promoted(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add))
	invocation := parse(t, reg, "-a", "2", "--b", "3")
	if invocation.Command == nil || invocation.Command.Name != "add" {
		t.Fatalf("Command = %+v, want add", invocation.Command)
	}
	if invocation.Values["a"] != 2 || invocation.Values["b"] != 3 {
		t.Errorf("Values = %v, want a=2 b=3", invocation.Values)
	}
}

func TestCommand_Parse_PromotedDefaults(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add))
	invocation := parse(t, reg)
	if invocation.Values["a"] != 0 || invocation.Values["b"] != 1 {
		t.Errorf("Values = %v, want a=0 b=1", invocation.Values)
	}
	if invocation.Values["raw"] != false {
		t.Errorf("raw = %v, want false", invocation.Values["raw"])
	}
}

func TestCommand_Parse_Subcommand(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Greet))
	invocation := parse(t, reg, "greet", "-n", "Ada", "--no-loud", "--style", "fancy")
	if invocation.Command.Name != "greet" {
		t.Fatalf("Command = %q, want greet", invocation.Command.Name)
	}
	if invocation.Values["name"] != "Ada" || invocation.Values["no-loud"] != true {
		t.Errorf("Values = %v, want name=Ada no-loud=true", invocation.Values)
	}
	if invocation.Values["style"] != style("fancy") {
		t.Errorf("style = %#v, want fancy", invocation.Values["style"])
	}
	if invocation.Values["greeting"] != "Hello" {
		t.Errorf("greeting = %v, want the default", invocation.Values["greeting"])
	}
}

func TestCommand_Parse_GlobalFlagBeforeCommand(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Greet))
	invocation := parse(t, reg, "--raw", "add", "--a", "1")
	if invocation.Command.Name != "add" {
		t.Fatalf("Command = %q, want add", invocation.Command.Name)
	}
	if invocation.Values["raw"] != true || invocation.Values["a"] != 1 {
		t.Errorf("Values = %v, want raw=true a=1", invocation.Values)
	}
}

func TestCommand_Parse_Containers(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Sum))
	invocation := parse(t, reg, "sum", "--values", "1", "--values", "[2, 3]")
	if got := invocation.Values["values"]; !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("values = %#v, want [1 2 3]", got)
	}
	if got := invocation.Values["tags"]; !reflect.DeepEqual(got, []string{}) {
		t.Errorf("tags = %#v, want an empty element list", got)
	}
}

func TestCommand_Parse_Positional(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Concat))
	invocation := parse(t, reg, "concat", "alpha", "--separator", "+", "beta")
	if !reflect.DeepEqual(invocation.Positional, []string{"alpha", "beta"}) {
		t.Errorf("Positional = %q, want [alpha beta]", invocation.Positional)
	}
}

func TestCommand_Parse_Help(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Greet))
	tests := [][]string{
		{"--help"},
		{"-h"},
		{"greet", "--help"},
		{"greet", "-h"},
		{"help", "greet"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			invocation := parse(t, reg, args...)
			if !invocation.Help {
				t.Errorf("Help = false")
			}
		})
	}
	if target := parse(t, reg, "help", "greet").Target; target.Name != "greet" {
		t.Errorf("help greet targets %q", target.Name)
	}
}

func TestCommand_Parse_Errors(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Greet))
	tests := []struct {
		name     string
		args     []string
		category ErrorCategory
		contains string
	}{
		{"unknown command", []string{"ad"}, CategoryNotFound, `did you mean "add"`},
		{"unknown command after flag", []string{"--raw", "grete"}, CategoryNotFound, `did you mean "greet"`},
		{"missing required", []string{"greet"}, CategoryValidation, "missing required flag --name"},
		{"bad value", []string{"add", "--a", "x"}, CategoryValidation, `invalid argument "x"`},
		{"bad choice", []string{"greet", "--name", "A", "--style", "bold"}, CategoryValidation, "bold"},
		{"unknown flag", []string{"greet", "--nmae", "Ada"}, CategoryUsage, "did you mean --name"},
		{"unexpected argument", []string{"add", "extra"}, CategoryUsage, `unexpected argument "extra"`},
		{"positive loud", []string{"greet", "--name", "A", "--loud"}, CategoryUsage, "unknown flag"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			toolError := parseError(t, reg, test.args...)
			if toolError.Category != test.category {
				t.Errorf("Category = %q, want %q", toolError.Category, test.category)
			}
			if !strings.Contains(toolError.Error(), test.contains) {
				t.Errorf("error = %q, want it to contain %q", toolError.Error(), test.contains)
			}
		})
	}
}
