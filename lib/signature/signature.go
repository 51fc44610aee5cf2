// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	contextType         = reflect.TypeFor[context.Context]()
	errorType           = reflect.TypeFor[error]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	timeType            = reflect.TypeFor[time.Time]()
)

// Parameter describes one command-line parameter. Parameters come from
// the exported fields of a command's params struct, including the
// flattened members of model fields.
type Parameter struct {
	// Name is the native spelling: snake_case of the Go field name, or
	// the name given in the flag tag with dashes turned to underscores.
	Name string

	// Field is the Go field name.
	Field string

	// Index is the field index path. For top-level parameters it is
	// relative to the params struct; for model members it is relative
	// to the model struct.
	Index []int

	Type reflect.Type

	// Default is the raw text of the default tag. Meaningful only when
	// HasDefault is set.
	Default    string
	HasDefault bool
	Required   bool

	Description string

	// Shorthand is an explicit one-letter alias from the flag tag.
	Shorthand string

	// Model is the native name of the model parameter this field was
	// flattened from, or empty.
	Model string

	// FreeForm marks interface-typed parameters. They carry no type
	// information and receive raw text.
	FreeForm bool

	Constraints Constraints
}

// Constraints are value restrictions declared through struct tags
// (min, max, minlen, maxlen, pattern). Model members are validated
// against them before the model reaches the command.
type Constraints struct {
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	Pattern   string
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.Minimum == nil && c.Maximum == nil && c.MinLength == nil && c.MaxLength == nil && c.Pattern == ""
}

// Model records a struct-typed parameter whose fields were flattened
// into the command's parameter list.
type Model struct {
	Name  string
	Field string

	// Index is the model field's index path within the params struct.
	Index []int

	// Type is the struct type. Pointer reports whether the field holds
	// a pointer to it.
	Type    reflect.Type
	Pointer bool

	// Members lists the native names of the flattened parameters in
	// declaration order.
	Members []string
}

// Signature is the inspected shape of a command function:
//
//	func([recv], [context.Context], [P], [...T]) ([R], [error])
type Signature struct {
	// Name is the Go function or method name; Package its import path.
	Name    string
	Package string

	// Receiver is set for method expressions.
	Receiver reflect.Type

	// Context reports whether the function takes a context.Context.
	Context bool

	// Params is the params struct type. ParamsPointer reports whether
	// the function takes a pointer to it.
	Params        reflect.Type
	ParamsPointer bool

	Parameters []Parameter
	Models     []Model

	// Positional is the trailing variadic parameter, if any. Its Type is
	// the slice type.
	Positional *Parameter

	// Result reports whether the function returns a value besides an
	// error; Error whether its last result is an error.
	Result bool
	Error  bool

	// Degraded names fields that could not be expressed as flags and
	// were left out.
	Degraded []string

	funcType reflect.Type
}

// FuncType returns the inspected function type.
func (s *Signature) FuncType() reflect.Type { return s.funcType }

// Parameter returns the parameter with the given native name.
func (s *Signature) Parameter(name string) (Parameter, bool) {
	for _, parameter := range s.Parameters {
		if parameter.Name == name {
			return parameter, true
		}
	}
	return Parameter{}, false
}

// Inspect inspects a plain function.
func Inspect(fn any) (*Signature, error) {
	return inspect(fn, false)
}

// InspectMethod inspects a method expression such as (*Counter).Add.
// The first input is the receiver and is not a parameter.
func InspectMethod(method any) (*Signature, error) {
	return inspect(method, true)
}

func inspect(fn any, method bool) (*Signature, error) {
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func || value.IsNil() {
		return nil, fmt.Errorf("signature: expected a function, got %T", fn)
	}
	funcType := value.Type()
	pkg, name := FuncName(value)
	sig := &Signature{Name: name, Package: pkg, funcType: funcType}

	in := 0
	if method {
		if funcType.NumIn() == 0 {
			return nil, fmt.Errorf("signature: method %s has no receiver", name)
		}
		sig.Receiver = funcType.In(0)
		if structType(sig.Receiver) == nil {
			return nil, fmt.Errorf("signature: receiver of %s must be a struct or pointer to struct, got %s", name, sig.Receiver)
		}
		in++
	}

	if in < funcType.NumIn() && funcType.In(in) == contextType {
		sig.Context = true
		in++
	}

	last := funcType.NumIn()
	if funcType.IsVariadic() {
		last--
		sliceType := funcType.In(last)
		sig.Positional = &Parameter{
			Name:  "args",
			Field: "args",
			Type:  sliceType,
		}
	}

	if in < last {
		paramsType := funcType.In(in)
		elem := structType(paramsType)
		if elem == nil {
			return nil, fmt.Errorf("signature: %s: parameter %d must be a params struct, got %s", name, in, paramsType)
		}
		sig.Params = elem
		sig.ParamsPointer = paramsType.Kind() == reflect.Pointer
		in++

		parameters, models, degraded, err := Fields(elem)
		if err != nil {
			return nil, fmt.Errorf("signature: %s: %w", name, err)
		}
		sig.Parameters = parameters
		sig.Models = models
		sig.Degraded = degraded
	}
	if in != last {
		return nil, fmt.Errorf("signature: %s: unexpected parameter %s", name, funcType.In(in))
	}

	switch funcType.NumOut() {
	case 0:
	case 1:
		if funcType.Out(0) == errorType {
			sig.Error = true
		} else {
			sig.Result = true
		}
	case 2:
		if funcType.Out(1) != errorType {
			return nil, fmt.Errorf("signature: %s: second result must be error, got %s", name, funcType.Out(1))
		}
		sig.Result = true
		sig.Error = true
	default:
		return nil, fmt.Errorf("signature: %s: too many results (%d)", name, funcType.NumOut())
	}

	return sig, nil
}

// Fields returns the parameters declared by the exported fields of a
// struct type. Struct-typed fields become models whose own fields are
// flattened into the result. Fields no flag can carry are reported in
// degraded and left out.
func Fields(typ reflect.Type) (parameters []Parameter, models []Model, degraded []string, err error) {
	if typ.Kind() != reflect.Struct {
		return nil, nil, nil, fmt.Errorf("expected a struct, got %s", typ)
	}
	collector := &fieldCollector{seen: make(map[string]string)}
	if err := collector.walk(typ, nil, ""); err != nil {
		return nil, nil, nil, err
	}
	return collector.parameters, collector.models, collector.degraded, nil
}

type fieldCollector struct {
	parameters []Parameter
	models     []Model
	degraded   []string
	seen       map[string]string
}

// walk visits the fields of typ. prefix is the index path from the root
// of the current struct (params struct or model); model is the current
// model name.
func (c *fieldCollector) walk(typ reflect.Type, prefix []int, model string) error {
	for i := range typ.NumField() {
		field := typ.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := c.walk(field.Type, index, model); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		tagName, shorthand := parseFlagTag(field.Tag.Get("flag"))
		if tagName == "-" {
			continue
		}
		name := tagName
		if name == "" {
			name = SnakeCase(field.Name)
		} else {
			name = strings.ReplaceAll(name, "-", "_")
		}

		if isModel(field.Type) {
			if model != "" {
				// Nested structs belong to the enclosing model.
				if err := c.walk(structType(field.Type), index, model); err != nil {
					return fmt.Errorf("field %s: %w", field.Name, err)
				}
				continue
			}
			if field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Pointer {
				c.degraded = append(c.degraded, field.Name)
				continue
			}
			c.models = append(c.models, Model{
				Name:    name,
				Field:   field.Name,
				Index:   index,
				Type:    structType(field.Type),
				Pointer: field.Type.Kind() == reflect.Pointer,
			})
			modelIndex := len(c.models) - 1
			if err := c.walk(structType(field.Type), nil, name); err != nil {
				return fmt.Errorf("model %s: %w", field.Name, err)
			}
			if len(c.models[modelIndex].Members) == 0 {
				return fmt.Errorf("model %s has no exported fields", field.Name)
			}
			continue
		}

		if unsupported(field.Type) {
			c.degraded = append(c.degraded, field.Name)
			continue
		}

		if owner, ok := c.seen[name]; ok {
			return fmt.Errorf("field %s: parameter %q already declared by %s", field.Name, name, owner)
		}
		c.seen[name] = field.Name

		parameter := Parameter{
			Name:        name,
			Field:       field.Name,
			Index:       index,
			Type:        field.Type,
			Description: field.Tag.Get("desc"),
			Shorthand:   shorthand,
			Model:       model,
			FreeForm:    field.Type.Kind() == reflect.Interface,
		}
		if len(shorthand) > 1 {
			return fmt.Errorf("field %s: shorthand %q must be one character", field.Name, shorthand)
		}
		parameter.Default, parameter.HasDefault = field.Tag.Lookup("default")
		parameter.Required = field.Tag.Get("required") == "true"
		if parameter.FreeForm && !parameter.HasDefault {
			parameter.Required = true
		}

		constraints, err := parseConstraints(field.Tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		parameter.Constraints = constraints

		c.parameters = append(c.parameters, parameter)
		if model != "" {
			modelIndex := len(c.models) - 1
			c.models[modelIndex].Members = append(c.models[modelIndex].Members, name)
		}
	}
	return nil
}

func parseConstraints(tag reflect.StructTag) (Constraints, error) {
	var constraints Constraints
	for _, key := range []string{"min", "max"} {
		text, ok := tag.Lookup(key)
		if !ok {
			continue
		}
		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Constraints{}, fmt.Errorf("%s tag %q: %w", key, text, err)
		}
		if key == "min" {
			constraints.Minimum = &number
		} else {
			constraints.Maximum = &number
		}
	}
	for _, key := range []string{"minlen", "maxlen"} {
		text, ok := tag.Lookup(key)
		if !ok {
			continue
		}
		length, err := strconv.Atoi(text)
		if err != nil || length < 0 {
			return Constraints{}, fmt.Errorf("%s tag %q: not a length", key, text)
		}
		if key == "minlen" {
			constraints.MinLength = &length
		} else {
			constraints.MaxLength = &length
		}
	}
	constraints.Pattern = tag.Get("pattern")
	return constraints, nil
}

// parseFlagTag splits "name" into ("name", "") and "name,n" into ("name", "n").
func parseFlagTag(tag string) (string, string) {
	name, shorthand, _ := strings.Cut(tag, ",")
	return name, shorthand
}

// structType returns the struct type behind typ (directly or through
// one pointer), or nil.
func structType(typ reflect.Type) reflect.Type {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}

// isModel reports whether a field of this type is flattened. Structs
// that parse themselves from text are scalar values.
func isModel(typ reflect.Type) bool {
	elem := structType(typ)
	if elem == nil || elem == timeType {
		return false
	}
	if reflect.PointerTo(elem).Implements(textUnmarshalerType) {
		return false
	}
	return true
}

func unsupported(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128, reflect.Invalid:
		return true
	case reflect.Pointer:
		return unsupported(typ.Elem())
	}
	return false
}

// String renders the call-site form used in fault reports, for example
// "(ctx, count int = 3, names []string)".
func (s *Signature) String() string {
	var parts []string
	if s.Receiver != nil {
		parts = append(parts, "recv "+s.Receiver.String())
	}
	if s.Context {
		parts = append(parts, "ctx")
	}
	for _, parameter := range s.Parameters {
		part := parameter.Name + " " + parameter.Type.String()
		if parameter.HasDefault {
			text := parameter.Default
			if parameter.FreeForm || parameter.Type.Kind() == reflect.String {
				text = strconv.Quote(text)
			}
			part += " = " + text
		}
		parts = append(parts, part)
	}
	if s.Positional != nil {
		parts = append(parts, "args ..."+s.Positional.Type.Elem().String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
