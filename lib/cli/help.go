// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/cliche/lib/coerce"
)

// helpWidth is the wrap width used when the writer is not a terminal.
const helpWidth = 100

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer, styles *Styles) {
	width := terminalWidth(w, helpWidth)
	name := c.fullName()

	// Description or summary.
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", renderMarkdown(c.Description, styles, width))
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	// Usage line.
	fmt.Fprintln(w, styles.Heading.Render("Usage:"))
	switch {
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "  %s %s [flags]\n", name, styles.Placeholder.Render("<command>"))
	case c.Schema != nil && c.Schema.Positional != nil:
		fmt.Fprintf(w, "  %s [flags] [%s]\n", name,
			styles.Placeholder.Render(c.Schema.Positional.Name+" "+c.Schema.Positional.Type))
	default:
		fmt.Fprintf(w, "  %s [flags]\n", name)
	}

	// Subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\n%s\n", styles.Heading.Render("Commands:"))
		nameWidth := 0
		for _, sub := range c.Subcommands {
			nameWidth = max(nameWidth, len(sub.Name))
		}
		for _, sub := range c.Subcommands {
			padding := strings.Repeat(" ", nameWidth-len(sub.Name)+3)
			fmt.Fprintf(w, "  %s%s%s\n", styles.Command.Render(sub.Name), padding, sub.Summary)
		}
	}

	// Flags, by group.
	for _, group := range c.Groups {
		if len(group.Arguments) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", styles.Heading.Render(group.Title+":"))
		writeFlagTable(w, styles, group.Arguments, width)
	}

	// Footer: help hint for subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// writeFlagTable writes one line per flag, descriptions aligned and
// wrapped to width.
func writeFlagTable(w io.Writer, styles *Styles, arguments []ArgumentDef, width int) {
	lefts := make([]string, len(arguments))
	leftWidth := 0
	for i, def := range arguments {
		lefts[i] = flagLabel(def, styles)
		leftWidth = max(leftWidth, ansi.StringWidth(lefts[i]))
	}

	descriptionWidth := max(width-leftWidth-4, 20)
	indent := strings.Repeat(" ", leftWidth+4)
	for i, def := range arguments {
		padding := strings.Repeat(" ", leftWidth-ansi.StringWidth(lefts[i])+2)
		description := ansi.Wrap(flagDescription(def, styles), descriptionWidth, " ,")
		description = strings.ReplaceAll(description, "\n", "\n"+indent)
		fmt.Fprintf(w, "  %s%s%s\n", lefts[i], padding, strings.TrimRight(description, " "))
	}
}

// flagLabel renders "-c, --count int" or "    --verbose".
func flagLabel(def ArgumentDef, styles *Styles) string {
	label := "    "
	if def.Shorthand != "" {
		label = styles.Flag.Render("-"+def.Shorthand) + ", "
	}
	label += styles.Flag.Render("--" + def.Flag)
	if placeholder := flagPlaceholder(def); placeholder != "" {
		label += " " + styles.Placeholder.Render(placeholder)
	}
	return label
}

func flagPlaceholder(def ArgumentDef) string {
	switch {
	case def.Boolean:
		return ""
	case len(def.Choices) > 0:
		return "{" + strings.Join(def.Choices, ",") + "}"
	case def.Container:
		return def.Type
	default:
		return string(def.Tag)
	}
}

func flagDescription(def ArgumentDef, styles *Styles) string {
	var parts []string
	if def.Inverted {
		parts = append(parts, fmt.Sprintf("Set %s to false.", def.Name))
	}
	if def.Description != "" {
		parts = append(parts, def.Description)
	}
	if def.Model != "" {
		parts = append(parts, styles.Faint.Render("("+def.Model+")"))
	}
	if def.Container {
		parts = append(parts, styles.Faint.Render(containerHint))
	}
	switch {
	case def.Required:
		parts = append(parts, styles.Warning.Render("(required)"))
	case def.HasDefault && !def.Inverted && !def.Boolean:
		parts = append(parts, styles.Faint.Render(fmt.Sprintf("(default %s)", quoteDefault(def))))
	}
	if def.Shared {
		parts = append(parts, styles.Faint.Render("(also passed to the method)"))
	}
	return strings.Join(parts, " ")
}

// A bare container flag still needs a value; "" or [] gives none.
const containerHint = `(comma list or JSON array; "" for none)`

func quoteDefault(def ArgumentDef) string {
	if def.Tag == coerce.TagString || def.Tag == coerce.TagFreeForm {
		return fmt.Sprintf("%q", def.Default)
	}
	return def.Default
}
