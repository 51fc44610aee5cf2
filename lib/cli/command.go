// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cliche/lib/coerce"
)

// Command is one node of the parser tree: the root, or a subcommand
// materialized from a [CommandSchema].
type Command struct {
	// Name is the command name as typed by the user, or the program
	// name for the root.
	Name string

	// Summary is a one-line description shown in the parent's help
	// listing. Description is markdown shown in the command's own help.
	Summary     string
	Description string

	// Schema is the command this node runs. It is nil for a root that
	// dispatches to subcommands.
	Schema *CommandSchema

	// Groups hold the command's flags in display order, the
	// process-wide group last.
	Groups []*FlagGroup

	Subcommands []*Command

	flags  *pflag.FlagSet
	values map[string]*coerce.Value

	// parent is set to build the full command path for help.
	parent *Command
}

// FlagGroup is a titled flag set.
type FlagGroup struct {
	Title     string
	Kind      GroupKind
	Arguments []ArgumentDef
	Flags     *pflag.FlagSet
}

// Invocation is the result of parsing a command line.
type Invocation struct {
	// Command is the command to run, or nil when none was named.
	Command *CommandSchema

	// Target is the node whose flags were parsed. Help and usage
	// errors refer to it.
	Target *Command

	// Values maps every flag name of Target to its value: typed values
	// for scalars, raw element lists ([]string) for containers.
	// Omitted flags hold their defaults.
	Values map[string]any

	// Positional holds leftover arguments for a variadic parameter.
	Positional []string

	// Help is set when -h, --help, or the help word was given.
	Help bool
}

// NewParser materializes the parser tree for schema.
func NewParser(schema *ArgumentSchema, coercions *coerce.Registry) (*Command, error) {
	if coercions == nil {
		coercions = coerce.New()
	}
	root := &Command{Name: schema.Program}

	if schema.Promoted {
		command := schema.Commands[0]
		root.Schema = command
		root.Summary = command.Summary
		root.Description = command.Description
		if err := root.define(command.Groups, schema.Global, coercions); err != nil {
			return nil, err
		}
		return root, nil
	}

	if err := root.define(nil, schema.Global, coercions); err != nil {
		return nil, err
	}
	for _, command := range schema.Commands {
		sub := &Command{
			Name:        command.Name,
			Summary:     command.Summary,
			Description: command.Description,
			Schema:      command,
			parent:      root,
		}
		if err := sub.define(command.Groups, schema.Global, coercions); err != nil {
			return nil, err
		}
		root.Subcommands = append(root.Subcommands, sub)
	}
	return root, nil
}

// define creates the flag sets of c: one per group and one holding
// every flag for parsing.
func (c *Command) define(groups []ArgumentGroup, global ArgumentGroup, coercions *coerce.Registry) error {
	c.flags = pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	c.flags.SetOutput(io.Discard)
	c.flags.SortFlags = false
	c.values = make(map[string]*coerce.Value)

	for _, group := range append(append([]ArgumentGroup(nil), groups...), global) {
		flagGroup := &FlagGroup{
			Title:     group.Title,
			Kind:      group.Kind,
			Arguments: group.Arguments,
			Flags:     pflag.NewFlagSet(group.Title, pflag.ContinueOnError),
		}
		flagGroup.Flags.SortFlags = false
		for _, def := range group.Arguments {
			flag, value, err := newFlag(def, coercions)
			if err != nil {
				return fmt.Errorf("command %s: %w", c.Name, err)
			}
			flagGroup.Flags.AddFlag(flag)
			c.flags.AddFlag(flag)
			c.values[def.Flag] = value
		}
		c.Groups = append(c.Groups, flagGroup)
	}
	return nil
}

func newFlag(def ArgumentDef, coercions *coerce.Registry) (*pflag.Flag, *coerce.Value, error) {
	var value *coerce.Value
	var err error
	if def.Inverted {
		// --no-x is a plain switch; the dispatcher turns it into x.
		value, err = coercions.NewValue(boolType, "", false)
	} else {
		value, err = coercions.NewValue(def.typ, def.Default, def.HasDefault)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("flag --%s: %w", def.Flag, err)
	}
	flag := &pflag.Flag{
		Name:      def.Flag,
		Shorthand: def.Shorthand,
		Usage:     def.Description,
		Value:     value,
		DefValue:  value.String(),
	}
	if value.IsBoolFlag() {
		flag.NoOptDefVal = "true"
	}
	return flag, value, nil
}

// Parse parses args (without the program name) against the tree.
func (c *Command) Parse(args []string) (*Invocation, error) {
	if len(c.Subcommands) == 0 {
		return c.parse(args)
	}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if sub := c.subcommand(args[0]); sub != nil {
			return sub.parse(args[1:])
		}
		if args[0] == "help" {
			return c.helpFor(args[1:]), nil
		}
		return nil, c.unknownCommand(args[0])
	}

	// Process-wide flags may precede the command name.
	c.flags.SetInterspersed(false)
	invocation, err := c.parse(args)
	if err != nil || invocation.Help || len(invocation.Positional) == 0 {
		return invocation, err
	}
	name := invocation.Positional[0]
	sub := c.subcommand(name)
	if sub == nil {
		return nil, c.unknownCommand(name)
	}
	subInvocation, err := sub.parse(invocation.Positional[1:])
	if err != nil || subInvocation.Help {
		return subInvocation, err
	}
	c.flags.Visit(func(flag *pflag.Flag) {
		subInvocation.Values[flag.Name] = c.values[flag.Name].Get()
	})
	return subInvocation, nil
}

func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// helpFor handles "prog help [command]".
func (c *Command) helpFor(args []string) *Invocation {
	target := c
	if len(args) > 0 {
		if sub := c.subcommand(args[0]); sub != nil {
			target = sub
		}
	}
	return &Invocation{Command: target.Schema, Target: target, Help: true}
}

func (c *Command) unknownCommand(name string) error {
	names := make([]string, len(c.Subcommands))
	for i, sub := range c.Subcommands {
		names[i] = sub.Name
	}
	if suggestion := suggestCommand(name, names); suggestion != "" {
		return NotFound("unknown command %q (did you mean %q?)", name, suggestion)
	}
	return NotFound("unknown command %q", name)
}

func (c *Command) parse(args []string) (*Invocation, error) {
	invocation := &Invocation{Command: c.Schema, Target: c}

	if err := c.flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			invocation.Help = true
			return invocation, nil
		}
		message := err.Error()
		switch {
		case strings.HasPrefix(message, "invalid argument"):
			return invocation, &ToolError{Category: CategoryValidation, Err: err}
		case strings.Contains(message, "unknown flag"):
			if suggestion := suggestFlag(args, c.flags); suggestion != "" {
				return invocation, Usage("%s (did you mean %s?)", message, suggestion)
			}
		}
		return invocation, &ToolError{Category: CategoryUsage, Err: err}
	}

	leftovers := c.flags.Args()
	switch {
	case c.Schema == nil:
		// A root with subcommands hands leftovers to Parse.
		invocation.Positional = leftovers
	case c.Schema.Positional != nil:
		invocation.Positional = leftovers
	case len(leftovers) > 0:
		return invocation, Usage("unexpected argument %q", leftovers[0])
	}

	if c.Schema != nil {
		for _, def := range c.Schema.Arguments() {
			if def.Required && !c.values[def.Flag].Changed() {
				return invocation, Validation("missing required flag --%s", def.Flag)
			}
		}
	}

	invocation.Values = make(map[string]any, len(c.values))
	for name, value := range c.values {
		invocation.Values[name] = value.Get()
	}
	return invocation, nil
}

// fullName returns the complete command path (e.g., "demo add").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// Flags returns the flag set holding every flag of the command.
func (c *Command) Flags() *pflag.FlagSet { return c.flags }
