// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bureau-foundation/cliche/lib/version"
)

// printInfo writes the --cli report: the program and its installation,
// completion status, the Go runtime, and the argument-schema
// fingerprint.
func (a *App) printInfo(w io.Writer, styles *Styles, schema *ArgumentSchema) {
	executable := a.name
	if a.version != "" {
		executable += " (version " + a.version + ")"
	}
	path, err := os.Executable()
	if err != nil {
		path = "unknown"
	}
	installed := "false"
	if module, ok := version.Main(); ok && module.Installed {
		installed = "true (" + module.Path + "@" + module.Version + ")"
	}
	fingerprint, err := schema.Fingerprint()
	if err != nil {
		fingerprint = "unavailable: " + err.Error()
	}

	rows := []struct{ label, value, note string }{
		{"Executable:", executable, ""},
		{"Executable path:", path, ""},
		{"Cliche version:", version.Info(), ""},
		{"Installed:", installed, ""},
		{"Autocomplete enabled:", fmt.Sprint(autocompleteEnabled(a.name)), "(bash only)"},
		{"Go version:", runtime.Version(), ""},
		{"Platform:", version.Platform(), ""},
		{"Schema fingerprint:", fingerprint, ""},
	}
	for _, row := range rows {
		line := fmt.Sprintf("%-22s%s", row.label, styles.Highlight.Render(row.value))
		if row.note != "" {
			line += " " + styles.Faint.Render(row.note)
		}
		fmt.Fprintln(w, line)
	}
}

// autocompleteEnabled reports whether ~/.bashrc hooks program into bash
// completion with complete -C.
func autocompleteEnabled(program string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	if err != nil {
		return false
	}
	name := filepath.Base(program)
	for line := range strings.Lines(string(data)) {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == "complete" && fields[1] == "-C" && fields[len(fields)-1] == name {
			return true
		}
	}
	return false
}
