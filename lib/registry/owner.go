// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/bureau-foundation/cliche/lib/signature"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

func newOwner(receiver reflect.Type, constructor any) (*Owner, error) {
	base := receiver
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	owner := &Owner{Name: base.Name(), Receiver: receiver}

	if constructor == nil {
		owner.Options = base
		return owner, owner.inspectOptions(false)
	}

	value := reflect.ValueOf(constructor)
	if value.Kind() != reflect.Func || value.IsNil() {
		return nil, fmt.Errorf("constructor must be a function, got %T", constructor)
	}
	funcType := value.Type()
	if funcType.IsVariadic() {
		return nil, errors.New("constructor must not be variadic")
	}

	in := 0
	if in < funcType.NumIn() && funcType.In(in) == contextType {
		owner.Context = true
		in++
	}
	if in < funcType.NumIn() {
		options := funcType.In(in)
		owner.OptionsPointer = options.Kind() == reflect.Pointer
		if owner.OptionsPointer {
			options = options.Elem()
		}
		if options.Kind() != reflect.Struct {
			return nil, fmt.Errorf("constructor parameter must be an options struct, got %s", funcType.In(in))
		}
		owner.Options = options
		in++
	}
	if in != funcType.NumIn() {
		return nil, fmt.Errorf("constructor has unexpected parameter %s", funcType.In(in))
	}

	switch funcType.NumOut() {
	case 1:
	case 2:
		if funcType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor's second result must be error, got %s", funcType.Out(1))
		}
		owner.ConstructorError = true
	default:
		return nil, fmt.Errorf("constructor must return %s and an optional error", receiver)
	}
	built := funcType.Out(0)
	if built != base && built != reflect.PointerTo(base) {
		return nil, fmt.Errorf("constructor returns %s, want %s or *%s", built, base, base)
	}

	owner.Constructor = value
	if owner.Options == nil {
		return owner, nil
	}
	return owner, owner.inspectOptions(true)
}

// inspectOptions collects the initialize parameters. Receiver structs
// may hold fields that are not parameters; options structs may not.
func (o *Owner) inspectOptions(strict bool) error {
	parameters, models, degraded, err := signature.Fields(o.Options)
	if err != nil {
		return fmt.Errorf("%s options: %w", o.Name, err)
	}
	if strict && len(degraded) > 0 {
		return fmt.Errorf("%s options: fields %v cannot be flags", o.Name, degraded)
	}
	o.Parameters = parameters
	o.Models = models
	return nil
}

// Parameter returns the constructor parameter with the given native
// name.
func (o *Owner) Parameter(name string) (signature.Parameter, bool) {
	for _, parameter := range o.Parameters {
		if parameter.Name == name {
			return parameter, true
		}
	}
	return signature.Parameter{}, false
}
