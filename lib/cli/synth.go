// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/bureau-foundation/cliche/lib/coerce"
	"github.com/bureau-foundation/cliche/lib/config"
	"github.com/bureau-foundation/cliche/lib/registry"
	"github.com/bureau-foundation/cliche/lib/signature"
)

// Process-wide flag names. Parameters may not use them.
const (
	flagNoTraceback = "notraceback"
	flagPDB         = "pdb"
	flagTiming      = "timing"
	flagRaw         = "raw"
	flagCLI         = "cli"
)

var boolType = reflect.TypeFor[bool]()

// BuildOptions configures [Build].
type BuildOptions struct {
	// Program is the executable name shown in usage lines.
	Program string

	// Coercions resolves parameter types. Nil uses coerce.New().
	Coercions *coerce.Registry

	// Config supplies default overrides. Nil uses config.Default().
	Config *config.Config

	// Logger receives warnings about dropped shorthands and commands.
	Logger *slog.Logger
}

// Build synthesizes the argument schema of every command in reg. args
// are the process arguments after the program name; they decide the
// single-command shortcut.
//
// Build always returns a usable schema. A command whose parameters
// cannot be expressed (a default that does not convert, two flags with
// one name) is left out and reported in the returned error.
func Build(reg *registry.Registry, args []string, options BuildOptions) (*ArgumentSchema, error) {
	if options.Coercions == nil {
		options.Coercions = coerce.New()
	}
	if options.Config == nil {
		options.Config = config.Default()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	b := &builder{registry: reg, options: options}

	schema := &ArgumentSchema{
		Program:    options.Program,
		Global:     globalGroup(),
		Underscore: reg.Underscore(),
	}

	var errs []error
	for _, entry := range reg.Entries() {
		command, err := b.command(entry)
		if err != nil {
			options.Logger.Warn("command left out of the command line",
				"command", reg.CommandName(entry.Name), "error", err)
			errs = append(errs, err)
			continue
		}
		schema.Commands = append(schema.Commands, command)
	}

	if len(schema.Commands) == 1 && (len(args) == 0 || args[0] != schema.Commands[0].Name) {
		schema.Promoted = true
	}
	return schema, errors.Join(errs...)
}

func globalGroup() ArgumentGroup {
	define := func(name, description string) ArgumentDef {
		return ArgumentDef{
			Name:        name,
			Flag:        name,
			Tag:         coerce.TagBool,
			Type:        "bool",
			Description: description,
			Boolean:     true,
			typ:         boolType,
		}
	}
	return ArgumentGroup{
		Title: globalTitle,
		Kind:  GroupGlobal,
		Arguments: []ArgumentDef{
			define(flagNoTraceback, "Print a one-line summary instead of the full diagnostic on failure"),
			define(flagCLI, "Print program, installation, and runtime information and exit"),
			define(flagPDB, "Open a post-mortem session on failure"),
			define(flagTiming, "Print timings of argument parsing and the function call"),
			define(flagRaw, "Print the result in its Go text form instead of JSON"),
		},
	}
}

type builder struct {
	registry *registry.Registry
	options  BuildOptions
}

func (b *builder) command(entry *registry.Entry) (*CommandSchema, error) {
	sig := entry.Signature
	command := &CommandSchema{
		Name:        b.registry.CommandName(entry.Name),
		Native:      entry.Name,
		Summary:     entry.Summary,
		Description: entry.Description,
		Call:        sig.Name + sig.String(),
		entry:       entry,
	}

	var initialize []ArgumentDef
	shared := make(map[string]int)
	if entry.Owner != nil {
		for _, parameter := range entry.Owner.Parameters {
			def, err := b.argument(entry, parameter)
			if err != nil {
				return nil, fmt.Errorf("%s(): %w", entry.Owner.Name, err)
			}
			shared[parameter.Name] = len(initialize)
			initialize = append(initialize, def)
		}
	}

	var arguments []ArgumentDef
	for _, parameter := range sig.Parameters {
		if index, ok := shared[parameter.Name]; ok {
			if initialize[index].typ != parameter.Type {
				return nil, fmt.Errorf("parameter %q is %s in %s() and %s in %s",
					parameter.Name, initialize[index].typ, entry.Owner.Name, parameter.Type, sig.Name)
			}
			initialize[index].Shared = true
			continue
		}
		def, err := b.argument(entry, parameter)
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, def)
	}

	b.assignShorthands(command.Name, initialize, arguments)

	if entry.Owner != nil {
		command.Groups = append(command.Groups, ArgumentGroup{
			Title:     initializeTitlePrefix + entry.Owner.Name + "()",
			Kind:      GroupInitialize,
			Arguments: initialize,
		})
	}
	command.Groups = append(command.Groups, ArgumentGroup{
		Title:     argumentsTitle,
		Kind:      GroupArguments,
		Arguments: arguments,
	})

	if sig.Positional != nil {
		elem := sig.Positional.Type.Elem()
		command.Positional = &ArgumentDef{
			Name:      sig.Positional.Name,
			Flag:      sig.Positional.Name,
			Tag:       b.options.Coercions.Resolve(elem).Tag,
			Type:      "..." + elem.String(),
			Container: true,
			typ:       sig.Positional.Type,
		}
	}

	if err := checkFlagNames(command); err != nil {
		return nil, err
	}
	return command, nil
}

// argument describes one parameter. Configured defaults replace
// declared ones and satisfy required parameters.
func (b *builder) argument(entry *registry.Entry, parameter signature.Parameter) (ArgumentDef, error) {
	coercion := b.options.Coercions.Resolve(parameter.Type)
	def := ArgumentDef{
		Name:        parameter.Name,
		Flag:        b.registry.CommandName(parameter.Name),
		Shorthand:   parameter.Shorthand,
		Tag:         coercion.Tag,
		Type:        parameter.Type.String(),
		Default:     parameter.Default,
		HasDefault:  parameter.HasDefault,
		Required:    parameter.Required && !parameter.HasDefault,
		Description: parameter.Description,
		Model:       parameter.Model,
		Boolean:     coercion.Boolean,
		Container:   coercion.Container,
		typ:         parameter.Type,
	}
	if text, ok := b.options.Config.Default(entry.Name, parameter.Name); ok {
		def.Default, def.HasDefault, def.Required = text, true, false
	}
	if coercion.Choices != nil {
		def.Choices = coercion.Choices(parameter.Type)
	}
	if def.HasDefault {
		if _, err := b.options.Coercions.NewValue(parameter.Type, def.Default, true); err != nil {
			return ArgumentDef{}, fmt.Errorf("parameter %q: %w", parameter.Name, err)
		}
	}
	if def.Boolean && def.HasDefault {
		if on, _ := strconv.ParseBool(def.Default); on {
			def.Inverted = true
			def.Flag = b.registry.CommandName("no_" + parameter.Name)
		}
	}
	return def, nil
}

// assignShorthands gives each flag at most one single-letter alias.
// Explicit shorthands are placed first, initialize group before
// arguments group. A flag then gets the first letter of its name when
// no other flag in its group starts with that letter and the letter is
// still free. "h" belongs to help. Inverted booleans get none.
func (b *builder) assignShorthands(command string, groups ...[]ArgumentDef) {
	used := map[string]bool{"h": true}
	for _, group := range groups {
		for i := range group {
			shorthand := group[i].Shorthand
			if shorthand == "" {
				continue
			}
			if used[shorthand] {
				b.options.Logger.Warn("shorthand already taken, using the full flag name only",
					"command", command, "flag", group[i].Flag, "shorthand", shorthand)
				group[i].Shorthand = ""
				group[i].explicit = true
				continue
			}
			used[shorthand] = true
			group[i].explicit = true
		}
	}

	for _, group := range groups {
		wants := make(map[string]int)
		for _, def := range group {
			if !def.explicit && !def.Inverted {
				wants[firstLetter(def.Flag)]++
			}
		}
		for i := range group {
			def := &group[i]
			if def.explicit || def.Inverted {
				continue
			}
			letter := firstLetter(def.Flag)
			if letter == "" || wants[letter] > 1 || used[letter] {
				continue
			}
			def.Shorthand = letter
			used[letter] = true
		}
	}
}

func firstLetter(name string) string {
	if name == "" {
		return ""
	}
	c := name[0]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return string(c)
	}
	return ""
}

// checkFlagNames rejects commands whose flags would collide, such as a
// parameter named no_verbose next to an inverted verbose.
func checkFlagNames(command *CommandSchema) error {
	seen := make(map[string]string)
	for _, def := range globalGroup().Arguments {
		seen[def.Flag] = "process-wide flag"
	}
	for _, def := range command.Arguments() {
		if owner, ok := seen[def.Flag]; ok {
			return fmt.Errorf("flag --%s of parameter %q collides with %s", def.Flag, def.Name, owner)
		}
		seen[def.Flag] = fmt.Sprintf("parameter %q", def.Name)
	}
	return nil
}
