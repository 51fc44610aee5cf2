// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"slices"
	"strings"
)

// complete returns bash completion candidates for the command line
// line, cut at the cursor position point. It serves programs hooked
// into bash with
//
//	complete -C <program> <program>
func (a *App) complete(options BuildOptions, line string, point int) []string {
	if point >= 0 && point < len(line) {
		line = line[:point]
	}
	words := strings.Fields(line)
	if len(words) > 0 {
		words = words[1:]
	}
	current := ""
	if len(words) > 0 && !strings.HasSuffix(line, " ") {
		current = words[len(words)-1]
		words = words[:len(words)-1]
	}

	schema, _ := Build(a.registry, words, options)
	return completions(schema, words, current)
}

// completions lists the candidates for current given the complete
// words before it.
func completions(schema *ArgumentSchema, words []string, current string) []string {
	var command *CommandSchema
	if schema.Promoted {
		command = schema.Commands[0]
	} else {
		for _, word := range words {
			if strings.HasPrefix(word, "-") {
				continue
			}
			if found, ok := schema.Command(word); ok {
				command = found
			}
			break
		}
	}

	var definitions []ArgumentDef
	if command != nil {
		definitions = command.Arguments()
	}
	definitions = append(definitions, schema.Global.Arguments...)

	if len(words) > 0 && !strings.HasPrefix(current, "-") {
		previous := words[len(words)-1]
		for _, def := range definitions {
			if !def.Boolean && len(def.Choices) > 0 && previous == "--"+def.Flag {
				return matching(def.Choices, current)
			}
		}
	}

	if command == nil && !strings.HasPrefix(current, "-") {
		return matching(schema.CommandNames(), current)
	}
	if !strings.HasPrefix(current, "-") {
		return nil
	}
	flags := make([]string, 0, len(definitions))
	for _, def := range definitions {
		flags = append(flags, "--"+def.Flag)
	}
	return matching(flags, current)
}

// matching returns the sorted candidates that start with prefix.
func matching(candidates []string, prefix string) []string {
	var matches []string
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, prefix) {
			matches = append(matches, candidate)
		}
	}
	slices.Sort(matches)
	return matches
}
