// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/bureau-foundation/cliche/lib/clock"
	"github.com/bureau-foundation/cliche/lib/coerce"
	"github.com/bureau-foundation/cliche/lib/model"
	"github.com/bureau-foundation/cliche/lib/registry"
	"github.com/bureau-foundation/cliche/lib/signature"
)

// Controls are the process-wide switches. They are stripped from the
// arguments before the command sees them.
type Controls struct {
	NoTraceback bool
	Raw         bool
	PDB         bool
	Timing      bool
	CLI         bool
}

// Stage names the step of a dispatch that failed.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageArguments Stage = "arguments"
	StageConstruct Stage = "construct"
	StageCall      Stage = "call"
)

// PanicError is a panic recovered from a command or constructor.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Outcome is the result of one dispatch. Exactly one of HasValue and
// Err describes the result; a successful command without a printable
// value has neither.
type Outcome struct {
	// Command is the command-line name; Call the Go name and signature.
	Command string
	Call    string

	Controls Controls

	// Arguments are the values the command was dispatched with, keyed
	// by native parameter name.
	Arguments map[string]any

	Value    any
	HasValue bool

	Err   error
	Stage Stage

	// Elapsed covers construction of the receiver and the call.
	Elapsed time.Duration
}

// Failed reports whether the dispatch failed.
func (o *Outcome) Failed() bool { return o.Err != nil }

// Stack returns the goroutine stack of a recovered panic, or nil.
func (o *Outcome) Stack() []byte {
	var panicError *PanicError
	if errors.As(o.Err, &panicError) {
		return panicError.Stack
	}
	return nil
}

// Dispatcher calls registered commands. It keeps no state between
// calls; one Dispatcher may dispatch any number of times.
type Dispatcher struct {
	registry  *registry.Registry
	coercions *coerce.Registry
	validator *model.Validator
	clock     clock.Clock
}

// NewDispatcher returns a dispatcher for reg. Nil coercions use
// coerce.New(); a nil clock uses the real clock.
func NewDispatcher(reg *registry.Registry, coercions *coerce.Registry, c clock.Clock) *Dispatcher {
	if coercions == nil {
		coercions = coerce.New()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Dispatcher{
		registry:  reg,
		coercions: coercions,
		validator: model.NewValidator(),
		clock:     c,
	}
}

// Dispatch calls the command named name. kwargs maps flag or parameter
// names to values: typed values, text to convert, or raw element lists
// ([]string) for containers. Parameters missing from kwargs take their
// declared defaults. positional feeds a variadic parameter.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, kwargs map[string]any, positional ...string) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	kwargs = maps.Clone(kwargs)
	if kwargs == nil {
		kwargs = make(map[string]any)
	}
	outcome := Outcome{Command: name, Controls: popControls(kwargs)}

	entry, err := d.registry.Lookup(name)
	if err != nil {
		outcome.Err = &ToolError{Category: CategoryNotFound, Err: err}
		outcome.Stage = StageResolve
		return outcome
	}
	sig := entry.Signature
	outcome.Call = sig.Name + sig.String()

	values := d.normalize(entry, kwargs)
	outcome.Arguments = maps.Clone(values)

	fail := func(stage Stage, err error) Outcome {
		outcome.Stage = stage
		outcome.Err = err
		return outcome
	}

	// Constructor parameters leave the mapping unless the method
	// declares them too.
	var options reflect.Value
	if owner := entry.Owner; owner != nil && owner.Options != nil {
		shared := func(name string) bool {
			_, ok := sig.Parameter(name)
			return ok
		}
		options, err = d.fill(owner.Options, owner.Parameters, owner.Models, values, shared)
		if err != nil {
			return fail(StageArguments, err)
		}
	}

	var params reflect.Value
	if sig.Params != nil {
		params, err = d.fill(sig.Params, sig.Parameters, sig.Models, values, func(string) bool { return false })
		if err != nil {
			return fail(StageArguments, err)
		}
	}

	if len(values) > 0 {
		unknown := make([]string, 0, len(values))
		for name := range values {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return fail(StageArguments, Validation("%s has no parameter %q", sig.Name, unknown[0]))
	}

	var variadic reflect.Value
	switch {
	case sig.Positional != nil:
		variadic, err = d.coercions.Collect(positional, sig.Positional.Type)
		if err != nil {
			return fail(StageArguments, Validation("positional arguments: %w", err))
		}
	case len(positional) > 0:
		return fail(StageArguments, Validation("%s takes no positional arguments, got %q", sig.Name, positional[0]))
	}

	start := d.clock.Now()
	var in []reflect.Value
	if entry.Owner != nil {
		receiver, err := d.construct(ctx, entry.Owner, options)
		if err != nil {
			outcome.Elapsed = d.clock.Now().Sub(start)
			return fail(StageConstruct, err)
		}
		in = append(in, receiver)
	}
	if sig.Context {
		in = append(in, reflect.ValueOf(ctx))
	}
	if sig.Params != nil {
		in = append(in, pointerIf(params, sig.ParamsPointer))
	}
	if sig.Positional != nil {
		in = append(in, variadic)
	}

	out, err := call(entry.Func, in, sig.Positional != nil)
	outcome.Elapsed = d.clock.Now().Sub(start)
	if err != nil {
		return fail(StageCall, err)
	}
	if sig.Error {
		if last := out[len(out)-1]; !last.IsNil() {
			return fail(StageCall, last.Interface().(error))
		}
	}
	if sig.Result && printable(out[0]) {
		outcome.Value = out[0].Interface()
		outcome.HasValue = true
	}
	return outcome
}

func popControls(kwargs map[string]any) Controls {
	pop := func(name string) bool {
		value, ok := kwargs[name]
		if !ok {
			return false
		}
		delete(kwargs, name)
		on := reflect.ValueOf(value)
		return on.IsValid() && on.Kind() == reflect.Bool && on.Bool()
	}
	return Controls{
		NoTraceback: pop(flagNoTraceback),
		Raw:         pop(flagRaw),
		PDB:         pop(flagPDB),
		Timing:      pop(flagTiming),
		CLI:         pop(flagCLI),
	}
}

// normalize rekeys kwargs by native name and turns no_x switches into
// x with the opposite value. A given switch wins over a plain x.
func (d *Dispatcher) normalize(entry *registry.Entry, kwargs map[string]any) map[string]any {
	values := make(map[string]any, len(kwargs))
	switches := make(map[string]bool)
	for key, value := range kwargs {
		name := key
		if !d.registry.Underscore() {
			name = strings.ReplaceAll(key, "-", "_")
		}
		if base, ok := strings.CutPrefix(name, "no_"); ok && !declares(entry, name) && parameterKind(entry, base) == reflect.Bool {
			if on := reflect.ValueOf(value); on.IsValid() && on.Kind() == reflect.Bool {
				switches[base] = on.Bool()
				continue
			}
		}
		values[name] = value
	}
	for base, on := range switches {
		if _, given := values[base]; on || !given {
			values[base] = !on
		}
	}
	return values
}

func declares(entry *registry.Entry, name string) bool {
	return parameterKind(entry, name) != reflect.Invalid
}

// parameterKind returns the kind (through pointers) of the named
// method or constructor parameter, or reflect.Invalid.
func parameterKind(entry *registry.Entry, name string) reflect.Kind {
	parameter, ok := entry.Signature.Parameter(name)
	if !ok && entry.Owner != nil {
		parameter, ok = entry.Owner.Parameter(name)
	}
	if !ok {
		return reflect.Invalid
	}
	typ := parameter.Type
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.Kind()
}

// fill builds a struct of type typ from values. Each parameter's key is
// removed from values unless keep reports it is needed again. Model
// members are collected into their model, which is validated and
// stored whole.
func (d *Dispatcher) fill(typ reflect.Type, parameters []signature.Parameter, models []signature.Model, values map[string]any, keep func(string) bool) (reflect.Value, error) {
	target := reflect.New(typ).Elem()
	built := make(map[string]reflect.Value, len(models))
	for _, m := range models {
		built[m.Name] = reflect.New(m.Type).Elem()
	}

	for _, parameter := range parameters {
		raw, present := values[parameter.Name]
		if present && !keep(parameter.Name) {
			delete(values, parameter.Name)
		}
		value, err := d.parameterValue(parameter, raw, present)
		if err != nil {
			return reflect.Value{}, err
		}
		container := target
		if parameter.Model != "" {
			container = built[parameter.Model]
		}
		fieldByIndex(container, parameter.Index).Set(value)
	}

	for _, m := range models {
		value := pointerIf(built[m.Name], m.Pointer)
		if err := d.validator.Validate(m, parameters, value); err != nil {
			return reflect.Value{}, err
		}
		fieldByIndex(target, m.Index).Set(value)
	}
	return target, nil
}

// parameterValue converts one raw value, or supplies the default when
// the parameter was not given.
func (d *Dispatcher) parameterValue(parameter signature.Parameter, raw any, present bool) (reflect.Value, error) {
	if !present {
		switch {
		case parameter.Required && !parameter.HasDefault:
			return reflect.Value{}, Validation("missing required parameter %q", parameter.Name)
		case parameter.HasDefault:
			raw = parameter.Default
		default:
			raw = nil
		}
	}
	value, err := d.convert(parameter.Type, raw)
	if err != nil {
		return reflect.Value{}, Validation("parameter %q: %w", parameter.Name, err)
	}
	return value, nil
}

// convert turns raw into a value of typ. Containers are collected here,
// once, from their raw elements.
func (d *Dispatcher) convert(typ reflect.Type, raw any) (reflect.Value, error) {
	entry := d.coercions.Resolve(typ)

	switch raw := raw.(type) {
	case nil:
		if entry.Container {
			return d.coercions.Collect(nil, typ)
		}
		return reflect.Zero(typ), nil
	case []string:
		if entry.Container {
			return d.coercions.Collect(raw, typ)
		}
	case string:
		if entry.Container {
			elements, err := coerce.Elements(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			return d.coercions.Collect(elements, typ)
		}
		return entry.Convert(raw, typ)
	}

	value := reflect.ValueOf(raw)
	switch {
	case value.Type().AssignableTo(typ):
		converted := reflect.New(typ).Elem()
		converted.Set(value)
		return converted, nil
	case typ.Kind() == reflect.Pointer:
		inner, err := d.convert(typ.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return pointerIf(inner, true), nil
	case value.Kind() == typ.Kind() && value.Type().ConvertibleTo(typ):
		return value.Convert(typ), nil
	case entry.Container && (value.Kind() == reflect.Slice || value.Kind() == reflect.Array):
		elements := make([]string, value.Len())
		for i := range value.Len() {
			elements[i] = d.coercions.Format(value.Index(i))
		}
		return d.coercions.Collect(elements, typ)
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", raw, typ)
}

// construct builds the receiver of a method command, calling the
// constructor exactly once.
func (d *Dispatcher) construct(ctx context.Context, owner *registry.Owner, options reflect.Value) (reflect.Value, error) {
	if !owner.Constructor.IsValid() {
		if !options.IsValid() {
			options = reflect.New(owner.Options).Elem()
		}
		return adaptReceiver(options, owner.Receiver)
	}

	var in []reflect.Value
	if owner.Context {
		in = append(in, reflect.ValueOf(ctx))
	}
	if owner.Options != nil {
		in = append(in, pointerIf(options, owner.OptionsPointer))
	}
	out, err := call(owner.Constructor, in, false)
	if err != nil {
		return reflect.Value{}, err
	}
	if owner.ConstructorError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return adaptReceiver(out[0], owner.Receiver)
}

// adaptReceiver converts between T and *T to match the method's
// receiver type.
func adaptReceiver(value reflect.Value, receiver reflect.Type) (reflect.Value, error) {
	if value.Kind() == reflect.Pointer && value.IsNil() {
		return reflect.Value{}, Internal("constructor returned a nil %s", value.Type())
	}
	switch {
	case value.Type() == receiver:
		return value, nil
	case receiver.Kind() == reflect.Pointer:
		return pointerIf(value, true), nil
	default:
		return value.Elem(), nil
	}
}

// call invokes fn, turning a panic into a *PanicError.
func call(fn reflect.Value, in []reflect.Value, variadic bool) (out []reflect.Value, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &PanicError{Value: recovered, Stack: debug.Stack()}
		}
	}()
	if variadic {
		return fn.CallSlice(in), nil
	}
	return fn.Call(in), nil
}

// pointerIf returns a pointer to a copy of value when pointer is set.
func pointerIf(value reflect.Value, pointer bool) reflect.Value {
	if !pointer {
		return value
	}
	target := reflect.New(value.Type())
	target.Elem().Set(value)
	return target
}

// fieldByIndex is reflect.Value.FieldByIndex that allocates nil
// embedded pointers on the way.
func fieldByIndex(value reflect.Value, index []int) reflect.Value {
	for i, position := range index {
		if i > 0 && value.Kind() == reflect.Pointer {
			if value.IsNil() {
				value.Set(reflect.New(value.Type().Elem()))
			}
			value = value.Elem()
		}
		value = value.Field(position)
	}
	return value
}
