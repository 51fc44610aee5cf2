// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"

	"github.com/bureau-foundation/cliche/lib/codec"
	"github.com/bureau-foundation/cliche/lib/coerce"
	"github.com/bureau-foundation/cliche/lib/registry"
)

// Group titles.
const (
	initializeTitlePrefix = "INITIALIZE CLASS: "
	argumentsTitle        = "ARGUMENTS"
	globalTitle           = "OPTIONAL CLI ARGUMENTS"
)

// GroupKind distinguishes the argument groups of a command.
type GroupKind string

const (
	// GroupInitialize holds the constructor parameters of a method
	// command's receiver.
	GroupInitialize GroupKind = "initialize"

	// GroupArguments holds the function or method parameters.
	GroupArguments GroupKind = "arguments"

	// GroupGlobal holds the process-wide flags.
	GroupGlobal GroupKind = "global"
)

// ArgumentSchema is the synthesized command line of a program: one
// [CommandSchema] per registered command plus the process-wide flags.
type ArgumentSchema struct {
	Program string `json:"program"`

	Commands []*CommandSchema `json:"commands"`

	// Global is the OPTIONAL CLI ARGUMENTS group shared by every
	// command and by the root.
	Global ArgumentGroup `json:"global"`

	// Promoted is set when the single-command shortcut is active: the
	// only command's flags live on the root and no command name is
	// expected.
	Promoted bool `json:"promoted"`

	// Underscore reports whether names keep underscores.
	Underscore bool `json:"underscore"`
}

// Command returns the command schema with the given command-line name.
func (s *ArgumentSchema) Command(name string) (*CommandSchema, bool) {
	for _, command := range s.Commands {
		if command.Name == name {
			return command, true
		}
	}
	return nil, false
}

// CommandNames returns the command-line names in schema order.
func (s *ArgumentSchema) CommandNames() []string {
	names := make([]string, len(s.Commands))
	for i, command := range s.Commands {
		names[i] = command.Name
	}
	return names
}

// Fingerprint identifies the whole program's command line.
func (s *ArgumentSchema) Fingerprint() (string, error) {
	return codec.Fingerprint(struct {
		Commands []*CommandSchema `json:"commands"`
		Global   ArgumentGroup    `json:"global"`
	}{s.Commands, s.Global})
}

// CommandSchema is the synthesized command line of one command.
type CommandSchema struct {
	// Name is the command-line spelling; Native the registry key.
	Name   string `json:"name"`
	Native string `json:"native"`

	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`

	// Call is the Go name and signature shown in fault reports, for
	// example "Add(ctx, a int, b int = 1)".
	Call string `json:"call"`

	// Groups are the initialize group (for method commands) followed
	// by the arguments group.
	Groups []ArgumentGroup `json:"groups"`

	// Positional describes the variadic parameter, if any.
	Positional *ArgumentDef `json:"positional,omitempty"`

	entry *registry.Entry
}

// Entry returns the registry entry the schema was built from.
func (c *CommandSchema) Entry() *registry.Entry { return c.entry }

// Fingerprint returns a digest of the command's argument definitions.
// Two schemas with the same fingerprint accept the same flags with the
// same types, defaults, and shorthands.
func (c *CommandSchema) Fingerprint() (string, error) {
	return codec.Fingerprint(c)
}

// Arguments returns every argument definition across groups.
func (c *CommandSchema) Arguments() []ArgumentDef {
	var arguments []ArgumentDef
	for _, group := range c.Groups {
		arguments = append(arguments, group.Arguments...)
	}
	return arguments
}

// Inverted returns the native names of parameters exposed as --no-x.
func (c *CommandSchema) Inverted() []string {
	var names []string
	for _, argument := range c.Arguments() {
		if argument.Inverted {
			names = append(names, argument.Name)
		}
	}
	return names
}

// ArgumentGroup is a titled set of flags.
type ArgumentGroup struct {
	Title     string        `json:"title"`
	Kind      GroupKind     `json:"kind"`
	Arguments []ArgumentDef `json:"arguments"`
}

// ArgumentDef describes one flag.
type ArgumentDef struct {
	// Name is the native parameter name; Flag is the flag name without
	// dashes ("no-verbose" for an inverted boolean).
	Name      string `json:"name"`
	Flag      string `json:"flag"`
	Shorthand string `json:"shorthand,omitempty"`

	// Tag is the coercion entry; Type the Go type.
	Tag  coerce.Tag `json:"tag"`
	Type string     `json:"type"`

	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
	Required   bool   `json:"required,omitempty"`

	Description string   `json:"description,omitempty"`
	Choices     []string `json:"choices,omitempty"`

	// Model is the native name of the model this flag was flattened
	// from.
	Model string `json:"model,omitempty"`

	// Shared marks a constructor parameter that the method declares
	// too. It is defined once, in the initialize group, and delivered
	// to both.
	Shared bool `json:"shared,omitempty"`

	// Inverted marks a boolean defaulting to true, exposed as --no-x.
	Inverted bool `json:"inverted,omitempty"`

	Boolean   bool `json:"boolean,omitempty"`
	Container bool `json:"container,omitempty"`

	typ      reflect.Type
	explicit bool
}
