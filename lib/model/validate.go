// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bureau-foundation/cliche/lib/signature"
)

// Checker is implemented by models that validate themselves beyond
// what their tags express. Validate runs after the tag constraints
// pass.
type Checker interface {
	Validate() error
}

var checkerType = reflect.TypeFor[Checker]()

// ValidationError reports a model that failed validation.
type ValidationError struct {
	Model string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Model, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator validates model values. Resolved schemas are cached per
// model type, so one Validator serves every dispatch in a process.
type Validator struct {
	resolved map[reflect.Type]*jsonschema.Resolved
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{resolved: make(map[reflect.Type]*jsonschema.Resolved)}
}

// Validate checks value, a rebuilt model of type model.Type (or a
// pointer to it), against the constraints of its parameters and then
// against its own Validate method.
func (v *Validator) Validate(model signature.Model, parameters []signature.Parameter, value reflect.Value) error {
	resolved, err := v.resolve(model, parameters)
	if err != nil {
		return err
	}
	instance, err := Instance(model, parameters, value)
	if err != nil {
		return err
	}
	if err := resolved.Validate(instance); err != nil {
		return &ValidationError{Model: model.Name, Err: err}
	}

	if checker, ok := asChecker(value); ok {
		if err := checker.Validate(); err != nil {
			return &ValidationError{Model: model.Name, Err: err}
		}
	}
	return nil
}

func (v *Validator) resolve(model signature.Model, parameters []signature.Parameter) (*jsonschema.Resolved, error) {
	if resolved, ok := v.resolved[model.Type]; ok {
		return resolved, nil
	}
	schema, err := Schema(model, parameters)
	if err != nil {
		return nil, err
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("model %s: resolving schema: %w", model.Name, err)
	}
	v.resolved[model.Type] = resolved
	return resolved, nil
}

// asChecker finds a Validate method on the value or its address.
func asChecker(value reflect.Value) (Checker, bool) {
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, false
		}
		if value.Type().Implements(checkerType) {
			return value.Interface().(Checker), true
		}
		value = value.Elem()
	}
	if value.Type().Implements(checkerType) {
		return value.Interface().(Checker), true
	}
	if value.CanAddr() && value.Addr().Type().Implements(checkerType) {
		return value.Addr().Interface().(Checker), true
	}
	if reflect.PointerTo(value.Type()).Implements(checkerType) {
		copied := reflect.New(value.Type())
		copied.Elem().Set(value)
		return copied.Interface().(Checker), true
	}
	return nil, false
}
