// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the commands of one program.
//
// A [Registry] is an explicit value: programs create one, register
// functions and methods into it, freeze it, and hand it to the argument
// synthesizer and dispatcher. Tests create a fresh registry per case or
// call [Registry.Reset].
//
// Command names derive from Go function names: AddItem registers as
// "add-item". A function whose Go name contains an underscore switches
// the whole registry into underscore mode, in which command and flag
// names keep underscores ("add_item"). The mode is registry-wide, never
// per command.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/bureau-foundation/cliche/lib/clock"
	"github.com/bureau-foundation/cliche/lib/signature"
)

var (
	// ErrNotFound is returned by Lookup for unknown command names.
	ErrNotFound = errors.New("command not found")

	// ErrFrozen is returned by registrations after Freeze.
	ErrFrozen = errors.New("registry is frozen")
)

// Entry is one registered command.
type Entry struct {
	// Name is the native command name (snake_case). Use
	// [Registry.CommandName] for the command-line spelling.
	Name string

	// Func is the raw callable: a function, or a method expression when
	// Owner is set.
	Func reflect.Value

	Signature *signature.Signature
	Owner     *Owner

	// Summary is a one-line description; Description is markdown shown
	// in the command's help.
	Summary     string
	Description string

	// Package is the import path the function was declared in.
	Package string

	// Prepared is how long inspection took.
	Prepared time.Duration

	// underscore is set when the name was spelled with a literal
	// underscore.
	underscore bool
}

// Owner describes the type a method command is called on.
type Owner struct {
	// Name is the Go type name, without pointer or package.
	Name string

	// Receiver is the method's receiver type (T or *T).
	Receiver reflect.Type

	// Constructor builds the receiver. It is invalid when the receiver
	// struct's own fields are the constructor parameters. Context and
	// ConstructorError describe its signature.
	Constructor      reflect.Value
	Context          bool
	ConstructorError bool

	// Options is the struct type whose fields are the constructor
	// parameters: the constructor's params struct, or the receiver
	// struct itself.
	Options        reflect.Type
	OptionsPointer bool

	Parameters []signature.Parameter
	Models     []signature.Model
}

// Option configures a registration.
type Option func(*options)

type options struct {
	name        string
	summary     string
	description string
}

// WithName overrides the command name derived from the function name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithSummary sets the one-line description shown in command lists.
func WithSummary(summary string) Option {
	return func(o *options) { o.summary = summary }
}

// WithDescription sets the markdown description shown in help. When no
// summary is given, the first line of the description is used.
func WithDescription(markdown string) Option {
	return func(o *options) { o.description = markdown }
}

// Registry maps command names to entries.
type Registry struct {
	logger *slog.Logger
	clock  clock.Clock

	entries    map[string]*Entry
	underscore bool
	frozen     bool
}

// New creates an empty registry. A nil logger discards registration
// warnings; a nil clock uses the real clock.
func New(logger *slog.Logger, c clock.Clock) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if c == nil {
		c = clock.Real()
	}
	return &Registry{
		logger:  logger,
		clock:   c,
		entries: make(map[string]*Entry),
	}
}

// Reset removes every entry and clears underscore mode and the freeze.
func (r *Registry) Reset() {
	r.entries = make(map[string]*Entry)
	r.underscore = false
	r.frozen = false
}

// Freeze ends registration.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r.frozen }

// Underscore reports whether underscore mode is active.
func (r *Registry) Underscore() bool { return r.underscore }

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.entries) }

// Register adds fn as a command, replacing any command of the same
// name. fn has the shape
//
//	func([context.Context], [P], [...T]) ([R], [error])
//
// where P is a params struct. A registration that fails is logged and
// returned; the registry is left as it was.
func (r *Registry) Register(fn any, opts ...Option) error {
	start := r.clock.Now()
	sig, err := signature.Inspect(fn)
	if err != nil {
		return r.reject(err)
	}
	entry, err := r.newEntry(sig, reflect.ValueOf(fn), opts)
	if err != nil {
		return r.reject(err)
	}
	entry.Prepared = r.clock.Now().Sub(start)
	r.insert(entry)
	return nil
}

// RegisterMethod adds a method as a command. method is a method
// expression such as (*Counter).Increment. constructor builds the
// receiver and has the shape
//
//	func([context.Context], [O]) (*T | T, [error])
//
// where O is an options struct; its fields become the command's
// "initialize" parameters. constructor may be nil, in which case the
// receiver struct's exported fields are the initialize parameters and
// the receiver is built by filling them in.
func (r *Registry) RegisterMethod(constructor, method any, opts ...Option) error {
	start := r.clock.Now()
	sig, err := signature.InspectMethod(method)
	if err != nil {
		return r.reject(err)
	}
	owner, err := newOwner(sig.Receiver, constructor)
	if err == nil {
		err = checkReserved(owner.Parameters)
	}
	if err != nil {
		return r.reject(fmt.Errorf("registry: %s: %w", sig.Name, err))
	}
	entry, err := r.newEntry(sig, reflect.ValueOf(method), opts)
	if err != nil {
		return r.reject(err)
	}
	entry.Owner = owner
	entry.Prepared = r.clock.Now().Sub(start)
	r.insert(entry)
	return nil
}

func (r *Registry) newEntry(sig *signature.Signature, fn reflect.Value, opts []Option) (*Entry, error) {
	if r.frozen {
		return nil, fmt.Errorf("registry: registering %s: %w", sig.Name, ErrFrozen)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	name := o.name
	if name == "" {
		if signature.IsClosure(sig.Name) {
			return nil, fmt.Errorf("registry: anonymous function in %s needs WithName", sig.Package)
		}
		name = sig.Name
	}
	if err := checkReserved(sig.Parameters); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", name, err)
	}

	summary := o.summary
	if summary == "" && o.description != "" {
		summary, _, _ = strings.Cut(strings.TrimSpace(o.description), "\n")
	}

	for _, field := range sig.Degraded {
		r.logger.Warn("parameter cannot be expressed as a flag, skipping",
			"command", name, "field", field)
	}

	return &Entry{
		Name:        nativeName(name),
		Func:        fn,
		Signature:   sig,
		Summary:     summary,
		Description: o.description,
		Package:     sig.Package,
		underscore:  strings.Contains(name, "_"),
	}, nil
}

// Reserved lists parameter names taken by process-wide flags.
var Reserved = []string{"notraceback", "pdb", "timing", "raw", "cli"}

func checkReserved(parameters []signature.Parameter) error {
	for _, parameter := range parameters {
		for _, reserved := range Reserved {
			if parameter.Name == reserved {
				return fmt.Errorf("parameter name %q is reserved", reserved)
			}
		}
	}
	return nil
}

func (r *Registry) insert(entry *Entry) {
	if entry.underscore {
		r.underscore = true
	}
	if _, exists := r.entries[entry.Name]; exists {
		r.logger.Debug("replacing command", "command", entry.Name)
	}
	r.entries[entry.Name] = entry
}

func (r *Registry) reject(err error) error {
	r.logger.Warn("command not registered", "error", err)
	return err
}

// nativeName turns a Go identifier or a command-line spelling into the
// snake_case form entries are keyed by.
func nativeName(name string) string {
	return signature.SnakeCase(strings.ReplaceAll(name, "-", "_"))
}

// CommandName returns the command-line spelling of a native name:
// underscores become dashes unless underscore mode is active. Flag
// names follow the same rule.
func (r *Registry) CommandName(native string) string {
	if r.underscore {
		return native
	}
	return strings.ReplaceAll(native, "_", "-")
}

// NativeName is the inverse of CommandName.
func (r *Registry) NativeName(name string) string {
	if r.underscore {
		return name
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Lookup returns the entry whose command-line name is name.
func (r *Registry) Lookup(name string) (*Entry, error) {
	if !r.underscore && strings.Contains(name, "_") {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	entry, ok := r.entries[r.NativeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return entry, nil
}

// Names returns the command-line names of every command, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.Entries() {
		names = append(names, r.CommandName(entry.Name))
	}
	return names
}

// Entries returns every entry sorted by name.
func (r *Registry) Entries() []*Entry {
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Exclude removes every command whose package path contains one of the
// substrings and returns how many were removed.
func (r *Registry) Exclude(substrings ...string) int {
	removed := 0
	for name, entry := range r.entries {
		for _, substring := range substrings {
			if substring != "" && strings.Contains(entry.Package, substring) {
				delete(r.entries, name)
				removed++
				break
			}
		}
	}
	return removed
}
