// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cliche-demo exposes a handful of plain Go functions as subcommands.
// It exercises every parameter shape the framework supports and serves
// as a template for programs built on it.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/cliche/lib/cli"
	"github.com/bureau-foundation/cliche/lib/registry"
	"github.com/bureau-foundation/cliche/lib/version"
)

const programName = "cliche-demo"

const description = `Demonstration commands for **cliche**.

Every subcommand is an ordinary Go function. Run
` + "`cliche-demo <command> --help`" + ` to see the flags synthesized from
its parameters, and ` + "`cliche-demo --cli`" + ` for installation details.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := cli.NewCommandLogger(stderr, slog.LevelWarn).With("program", programName)
	reg := registry.New(logger, nil)
	// The registry warns about each rejected command as it happens;
	// the remaining commands still run.
	if err := register(reg); err != nil {
		logger.Debug("registration incomplete", "error", err)
	}

	app := cli.New(programName, reg,
		cli.WithVersion(version.Short()),
		cli.WithDescription(description),
		cli.WithStdin(stdin),
		cli.WithStdout(stdout),
		cli.WithStderr(stderr),
	)
	return app.Main(ctx, args)
}
