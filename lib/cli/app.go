// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/bureau-foundation/cliche/lib/clock"
	"github.com/bureau-foundation/cliche/lib/coerce"
	"github.com/bureau-foundation/cliche/lib/config"
	"github.com/bureau-foundation/cliche/lib/postmortem"
	"github.com/bureau-foundation/cliche/lib/registry"
)

// noCommandsWarning is printed before help when nothing was registered.
const noCommandsWarning = "No commands have been registered."

// App runs the commands of one registry as a command-line program.
type App struct {
	name        string
	version     string
	description string
	registry    *registry.Registry

	exclude    []string
	configFile string

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	clock      clock.Clock
	logger     *slog.Logger
	coercions  *coerce.Registry
	lookupEnv  func(string) (string, bool)
	postMortem func(*postmortem.Session) error

	uptime *clock.Stopwatch
	ran    bool
}

// Option configures an [App].
type Option func(*App)

// WithVersion sets the version shown by --cli.
func WithVersion(version string) Option {
	return func(a *App) { a.version = version }
}

// WithDescription sets the markdown shown at the top of the root help.
func WithDescription(markdown string) Option {
	return func(a *App) { a.description = markdown }
}

// WithExclude removes, when Main runs, every command declared in a
// package whose import path contains one of substrings.
func WithExclude(substrings ...string) Option {
	return func(a *App) { a.exclude = append(a.exclude, substrings...) }
}

// WithConfigFile names the config file, overriding the <APP>_CONFIG
// environment variable.
func WithConfigFile(path string) Option {
	return func(a *App) { a.configFile = path }
}

// WithStdout sets where results, help, and timings are written.
func WithStdout(w io.Writer) Option {
	return func(a *App) { a.stdout = w }
}

// WithStderr sets where faults, usage errors, and logs are written.
func WithStderr(w io.Writer) Option {
	return func(a *App) { a.stderr = w }
}

// WithStdin sets the input of the post-mortem session.
func WithStdin(r io.Reader) Option {
	return func(a *App) { a.stdin = r }
}

// WithClock sets the clock used for timings.
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithLogger replaces the logger built from the config file.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithCoercions sets the coercion registry shared by the synthesizer,
// the parser, and the dispatcher.
func WithCoercions(coercions *coerce.Registry) Option {
	return func(a *App) { a.coercions = coercions }
}

// WithLookupEnv replaces os.LookupEnv for the COMP_LINE and
// COMP_POINT completion variables.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(a *App) { a.lookupEnv = lookup }
}

// WithPostMortem replaces the interactive session run under --pdb.
func WithPostMortem(run func(*postmortem.Session) error) Option {
	return func(a *App) { a.postMortem = run }
}

// New returns an application named name that runs the commands of reg.
func New(name string, reg *registry.Registry, opts ...Option) *App {
	a := &App{
		name:      name,
		registry:  reg,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		stdin:     os.Stdin,
		clock:     clock.Real(),
		coercions: coerce.New(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.uptime = clock.NewStopwatch(a.clock)
	return a
}

// Main parses args (without the program name), runs the selected
// command, and returns the process exit code. Main runs once per App;
// later calls warn and return [ExitOK].
func (a *App) Main(ctx context.Context, args []string) int {
	if a.ran {
		logger := a.logger
		if logger == nil {
			logger = NewCommandLogger(a.stderr, slog.LevelWarn)
		}
		logger.Warn("application already ran; ignoring", "program", a.name)
		return ExitOK
	}
	a.ran = true

	cfg, err := a.loadConfig()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return ExitFailure
	}
	logger := a.logger
	if logger == nil {
		level, _ := cfg.LogLevel()
		logger = NewCommandLogger(a.stderr, level).With("program", a.name)
	}

	stdoutStyles := NewStyles(a.stdout, cfg.Output.Colorize(isTerminal(a.stdout)))
	stderrStyles := NewStyles(a.stderr, cfg.Output.Colorize(isTerminal(a.stderr)))

	if len(a.exclude) > 0 {
		if removed := a.registry.Exclude(a.exclude...); removed > 0 {
			logger.Debug("excluded commands", "count", removed, "patterns", a.exclude)
		}
	}
	a.registry.Freeze()

	args, timing := extractFlag(args, "--"+flagTiming)
	args, pdb := extractFlag(args, "--"+flagPDB)
	watch := clock.NewStopwatch(a.clock)
	if timing {
		a.printPreparation()
	}

	options := BuildOptions{Program: a.name, Coercions: a.coercions, Config: cfg, Logger: logger}

	if line, ok := a.lookupEnv("COMP_LINE"); ok {
		point := len(line)
		if text, ok := a.lookupEnv("COMP_POINT"); ok {
			if parsed, err := strconv.Atoi(text); err == nil {
				point = parsed
			}
		}
		for _, candidate := range a.complete(options, line, point) {
			fmt.Fprintln(a.stdout, candidate)
		}
		return ExitOK
	}

	schema, err := Build(a.registry, args, options)
	if err != nil {
		logger.Debug("argument schema incomplete", "error", err)
	}

	if slices.Contains(args, "--"+flagCLI) {
		a.printInfo(a.stdout, stdoutStyles, schema)
		return ExitOK
	}

	root, err := NewParser(schema, a.coercions)
	if err != nil {
		fmt.Fprintln(a.stderr, stderrStyles.Error.Render("error: "+err.Error()))
		return ExitFailure
	}
	if root.Description == "" {
		root.Description = a.description
	}

	if len(schema.Commands) == 0 {
		fmt.Fprintln(a.stderr, stderrStyles.Warning.Render(noCommandsWarning))
		root.PrintHelp(a.stdout, stdoutStyles)
		return ExitNoCommands
	}

	invocation, err := root.Parse(args)
	if err != nil {
		target := root
		if invocation != nil && invocation.Target != nil {
			target = invocation.Target
		}
		target.PrintHelp(a.stderr, stderrStyles)
		fmt.Fprintf(a.stderr, "\n%s\n", stderrStyles.Error.Render("error: "+err.Error()))
		var toolError *ToolError
		if errors.As(err, &toolError) {
			return toolError.ExitCode()
		}
		return ExitUsage
	}
	if timing {
		fmt.Fprintln(a.stdout, "timing arg parsing", watch.Lap())
	}

	if invocation.Help || invocation.Command == nil {
		invocation.Target.PrintHelp(a.stdout, stdoutStyles)
		if timing {
			fmt.Fprintln(a.stdout, "timing print help", watch.Lap())
		}
		return ExitOK
	}

	kwargs := invocation.Values
	if pdb {
		kwargs[flagPDB] = true
	}
	if timing {
		kwargs[flagTiming] = true
	}

	dispatcher := NewDispatcher(a.registry, a.coercions, a.clock)
	outcome := dispatcher.Dispatch(ctx, invocation.Command.Name, kwargs, invocation.Positional...)
	if timing && outcome.Stage != StageResolve && outcome.Stage != StageArguments {
		result := "success"
		if outcome.Failed() {
			result = "exception"
		}
		fmt.Fprintln(a.stdout, "timing function call", result, outcome.Elapsed)
	}

	reporter := &Reporter{
		Stdout: a.stdout,
		Stderr: a.stderr,
		Stdin:  a.stdin,
		Printer: &Printer{
			Out:    a.stdout,
			Format: cfg.Output.Format,
			Indent: cfg.Output.Indent,
			Color:  stdoutStyles.Color,
		},
		Styles:     stderrStyles,
		PostMortem: a.postMortem,
	}
	return reporter.Report(outcome)
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.configFile != "" {
		return config.LoadFile(a.configFile)
	}
	return config.Load(config.EnvVar(a.name))
}

// printPreparation writes the inspection time of every command.
func (a *App) printPreparation() {
	for _, entry := range a.registry.Entries() {
		fmt.Fprintln(a.stdout, "timing preparing", a.registry.CommandName(entry.Name),
			entry.Prepared, "since startup", a.uptime.Total())
	}
}

// extractFlag removes every occurrence of flag from args and reports
// whether there was one.
func extractFlag(args []string, flag string) ([]string, bool) {
	if !slices.Contains(args, flag) {
		return args, false
	}
	kept := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != flag {
			kept = append(kept, arg)
		}
	}
	return kept, true
}
