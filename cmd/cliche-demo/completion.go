// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const completionDescription = `Print, install, or remove the bash completion hook.

The hook is a ` + "`complete -C`" + ` line naming this executable. With
` + "`--install`" + ` it is appended to ~/.bashrc; ` + "`--uninstall`" + ` removes it.`

type completionParams struct {
	Install   bool `desc:"append the hook to ~/.bashrc"`
	Uninstall bool `desc:"remove the hook from ~/.bashrc"`
}

// Completion manages the bash completion hook of this program.
func Completion(params completionParams) (string, error) {
	if params.Install && params.Uninstall {
		return "", errors.New("--install and --uninstall are mutually exclusive")
	}
	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating the executable: %w", err)
	}
	line := hookLine(executable)
	if !params.Install && !params.Uninstall {
		return line, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(home, ".bashrc")
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if params.Uninstall {
		kept, removed := removeHook(string(data), programName)
		if !removed {
			return "not installed in " + path, nil
		}
		if err := os.WriteFile(path, []byte(kept), 0o644); err != nil {
			return "", err
		}
		return "removed from " + path, nil
	}

	if _, installed := removeHook(string(data), programName); installed {
		return "already installed in " + path, nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(file, "\n%s\n", line); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return "installed in " + path, nil
}

func hookLine(executable string) string {
	return fmt.Sprintf("complete -C %s %s", executable, programName)
}

// removeHook drops every complete -C line for program from bashrc.
func removeHook(bashrc, program string) (string, bool) {
	var kept []string
	removed := false
	for line := range strings.Lines(bashrc) {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == "complete" && fields[1] == "-C" && fields[len(fields)-1] == program {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, ""), removed
}
