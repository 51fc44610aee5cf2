// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/cliche/lib/config"
	"github.com/bureau-foundation/cliche/lib/registry"
)

func buildSchema(t *testing.T, reg *registry.Registry, args []string, options BuildOptions) *ArgumentSchema {
	t.Helper()
	if options.Program == "" {
		options.Program = "demo"
	}
	schema, err := Build(reg, args, options)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return schema
}

func commandSchema(t *testing.T, schema *ArgumentSchema, name string) *CommandSchema {
	t.Helper()
	command, ok := schema.Command(name)
	if !ok {
		t.Fatalf("command %q missing from %v", name, schema.CommandNames())
	}
	return command
}

func argumentByName(t *testing.T, command *CommandSchema, name string) ArgumentDef {
	t.Helper()
	for _, def := range command.Arguments() {
		if def.Name == name {
			return def
		}
	}
	t.Fatalf("argument %q missing from %s", name, command.Name)
	return ArgumentDef{}
}

func TestBuild_InitializeAndMethodGroupsDisjoint(t *testing.T) {
	reg := newTestRegistry(t, withLedger, withFunc(Add))
	command := commandSchema(t, buildSchema(t, reg, nil, BuildOptions{}), "append")

	if len(command.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(command.Groups))
	}
	initialize, arguments := command.Groups[0], command.Groups[1]
	if initialize.Kind != GroupInitialize || initialize.Title != "INITIALIZE CLASS: ledger()" {
		t.Errorf("group 0 = %q (%s), want the initialize group", initialize.Title, initialize.Kind)
	}
	if arguments.Kind != GroupArguments || arguments.Title != "ARGUMENTS" {
		t.Errorf("group 1 = %q (%s), want the arguments group", arguments.Title, arguments.Kind)
	}

	seen := make(map[string]bool)
	for _, def := range initialize.Arguments {
		seen[def.Flag] = true
	}
	for _, def := range arguments.Arguments {
		if seen[def.Flag] {
			t.Errorf("flag --%s appears in both groups", def.Flag)
		}
	}

	path := argumentByName(t, command, "path")
	if !path.Shared || path.Default != "ledger.db" {
		t.Errorf("path = %+v, want shared with the constructor default", path)
	}
	if len(arguments.Arguments) != 1 || arguments.Arguments[0].Name != "entry" {
		t.Errorf("arguments group = %+v, want only entry", arguments.Arguments)
	}
}

func TestBuild_SharedTypeMismatchDropsCommand(t *testing.T) {
	type options struct{ Path int }
	reg := newTestRegistry(t,
		withFunc(Add),
		func(reg *registry.Registry) error {
			return reg.RegisterMethod(func(options) *ledger { return &ledger{} }, (*ledger).Append)
		},
	)
	schema, err := Build(reg, nil, BuildOptions{Program: "demo"})
	if err == nil || !strings.Contains(err.Error(), `parameter "path"`) {
		t.Fatalf("Build error = %v, want a path type mismatch", err)
	}
	if !reflect.DeepEqual(schema.CommandNames(), []string{"add"}) {
		t.Errorf("commands = %v, want [add]", schema.CommandNames())
	}
}

func TestBuild_Shorthands(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Greet), withFunc(Serve), withFunc(Add), withLedger)
	schema := buildSchema(t, reg, nil, BuildOptions{})

	tests := []struct {
		command, name, want string
	}{
		{"greet", "greeting", "g"}, // explicit
		{"greet", "name", "n"},
		{"greet", "style", "s"},
		{"greet", "loud", ""}, // inverted
		{"serve", "host", ""}, // h is help
		{"serve", "port", ""}, // p wanted by three flags
		{"serve", "path", ""},
		{"add", "a", "a"},
		{"add", "b", "b"},
		{"append", "path", "p"},
		{"append", "verbose", "v"},
		{"append", "entry", "e"},
	}
	for _, test := range tests {
		t.Run(test.command+"/"+test.name, func(t *testing.T) {
			def := argumentByName(t, commandSchema(t, schema, test.command), test.name)
			if def.Shorthand != test.want {
				t.Errorf("shorthand = %q, want %q", def.Shorthand, test.want)
			}
		})
	}
}

func TestBuild_ExplicitShorthandCollision(t *testing.T) {
	type params struct {
		First  string `flag:"first,x"`
		Second string `flag:"second,x"`
	}
	reg := newTestRegistry(t, withFunc(func(params) {}, registry.WithName("pair")))
	command := commandSchema(t, buildSchema(t, reg, nil, BuildOptions{}), "pair")
	if got := argumentByName(t, command, "first").Shorthand; got != "x" {
		t.Errorf("first shorthand = %q, want x", got)
	}
	if got := argumentByName(t, command, "second").Shorthand; got != "" {
		t.Errorf("second shorthand = %q, want none after the collision", got)
	}
}

func TestBuild_InvertedBoolean(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Greet))
	command := commandSchema(t, buildSchema(t, reg, []string{"greet"}, BuildOptions{}), "greet")

	loud := argumentByName(t, command, "loud")
	if !loud.Inverted || loud.Flag != "no-loud" || !loud.Boolean {
		t.Errorf("loud = %+v, want inverted --no-loud", loud)
	}
	if got := command.Inverted(); !reflect.DeepEqual(got, []string{"loud"}) {
		t.Errorf("Inverted() = %v, want [loud]", got)
	}
}

func TestBuild_InvertedFlagCollision(t *testing.T) {
	type params struct {
		Loud   bool `default:"true"`
		NoLoud bool
	}
	reg := newTestRegistry(t, withFunc(Add), withFunc(func(params) {}, registry.WithName("shout")))
	schema, err := Build(reg, nil, BuildOptions{Program: "demo"})
	if err == nil || !strings.Contains(err.Error(), "--no-loud") {
		t.Fatalf("Build error = %v, want a --no-loud collision", err)
	}
	if _, ok := schema.Command("shout"); ok {
		t.Error("shout kept despite the collision")
	}
}

func TestBuild_BadDefaultDropsCommand(t *testing.T) {
	type params struct {
		Count int `default:"many"`
	}
	reg := newTestRegistry(t, withFunc(Add), withFunc(func(params) {}, registry.WithName("count")))
	schema, err := Build(reg, nil, BuildOptions{Program: "demo"})
	if err == nil {
		t.Fatal("Build succeeded, want an error for the bad default")
	}
	if !reflect.DeepEqual(schema.CommandNames(), []string{"add"}) {
		t.Errorf("commands = %v, want [add]", schema.CommandNames())
	}
}

func TestBuild_ConfigDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults = map[string]map[string]any{
		"greet": {"name": "Ada", "greeting": "Hi"},
	}
	reg := newTestRegistry(t, withFunc(Greet), withFunc(Add))
	command := commandSchema(t, buildSchema(t, reg, nil, BuildOptions{Config: cfg}), "greet")

	name := argumentByName(t, command, "name")
	if name.Required || name.Default != "Ada" || !name.HasDefault {
		t.Errorf("name = %+v, want optional with default Ada", name)
	}
	if greeting := argumentByName(t, command, "greeting"); greeting.Default != "Hi" {
		t.Errorf("greeting default = %q, want Hi", greeting.Default)
	}
}

func TestBuild_Choices(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Greet))
	command := commandSchema(t, buildSchema(t, reg, nil, BuildOptions{}), "greet")
	if got := argumentByName(t, command, "style").Choices; !reflect.DeepEqual(got, []string{"plain", "fancy"}) {
		t.Errorf("style choices = %v, want [plain fancy]", got)
	}
}

func TestBuild_SingleCommandShortcut(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add))

	tests := []struct {
		args     []string
		promoted bool
	}{
		{nil, true},
		{[]string{"--b", "5"}, true},
		{[]string{"add", "--b", "5"}, false},
	}
	var fingerprints []string
	for _, test := range tests {
		schema := buildSchema(t, reg, test.args, BuildOptions{})
		if schema.Promoted != test.promoted {
			t.Errorf("Build(%q).Promoted = %v, want %v", test.args, schema.Promoted, test.promoted)
		}
		fingerprint, err := schema.Commands[0].Fingerprint()
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		fingerprints = append(fingerprints, fingerprint)
	}
	for _, fingerprint := range fingerprints[1:] {
		if fingerprint != fingerprints[0] {
			t.Errorf("fingerprints differ between promoted and explicit: %v", fingerprints)
		}
	}
}

func TestBuild_NotPromotedWithSeveralCommands(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Add), withFunc(Greet))
	if buildSchema(t, reg, nil, BuildOptions{}).Promoted {
		t.Error("Promoted = true with two commands")
	}
}

func TestBuild_Positional(t *testing.T) {
	reg := newTestRegistry(t, withFunc(Concat))
	command := commandSchema(t, buildSchema(t, reg, nil, BuildOptions{}), "concat")
	if command.Positional == nil || command.Positional.Type != "...string" {
		t.Errorf("Positional = %+v, want ...string", command.Positional)
	}
}

func TestArgumentSchema_Fingerprint_ChangesWithFlags(t *testing.T) {
	first, err := buildSchema(t, newTestRegistry(t, withFunc(Add)), nil, BuildOptions{}).Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := buildSchema(t, newTestRegistry(t, withFunc(Add), withFunc(Greet)), nil, BuildOptions{}).Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first == second {
		t.Error("fingerprint unchanged after adding a command")
	}
}
