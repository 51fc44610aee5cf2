// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package model validates the structured parameters a command receives.
//
// A model is a struct-typed parameter whose fields were flattened into
// individual flags. Before the command runs, the dispatcher rebuilds the
// struct and passes it through [Validator.Validate], which checks the
// constraint tags (min, max, minlen, maxlen, pattern, required) with
// JSON Schema and then calls the model's own Validate method when it
// has one.
package model

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bureau-foundation/cliche/lib/signature"
)

// Well-known types whose JSON form differs from their Go structure.
var (
	timeType          = reflect.TypeFor[time.Time]()
	durationType      = reflect.TypeFor[time.Duration]()
	rawMessageType    = reflect.TypeFor[json.RawMessage]()
	byteSliceType     = reflect.TypeFor[[]byte]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
)

// Schema builds the JSON Schema of a model from its flattened
// parameters. Property names are the parameters' native names; the
// instance validated against it is produced by [Instance].
func Schema(model signature.Model, parameters []signature.Parameter) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema),
	}

	members := make(map[string]bool, len(model.Members))
	for _, name := range model.Members {
		members[name] = true
	}

	for _, parameter := range parameters {
		if parameter.Model != model.Name || !members[parameter.Name] {
			continue
		}
		property, err := schemaForType(parameter.Type)
		if err != nil {
			return nil, fmt.Errorf("model %s: field %s: %w", model.Name, parameter.Field, err)
		}
		property.Description = parameter.Description
		applyConstraints(property, parameter.Constraints)
		schema.Properties[parameter.Name] = property

		if parameter.Required && !parameter.HasDefault {
			schema.Required = append(schema.Required, parameter.Name)
		}
	}
	return schema, nil
}

func applyConstraints(schema *jsonschema.Schema, constraints signature.Constraints) {
	schema.Minimum = constraints.Minimum
	schema.Maximum = constraints.Maximum
	schema.MinLength = constraints.MinLength
	schema.MaxLength = constraints.MaxLength
	schema.Pattern = constraints.Pattern

	// Length constraints on lists bound the element count.
	if schema.Type == "array" {
		schema.MinItems, schema.MinLength = schema.MinLength, nil
		schema.MaxItems, schema.MaxLength = schema.MaxLength, nil
	}
}

// schemaForType generates a JSON Schema matching the JSON encoding of
// typ. Types with custom marshaling are described by their serialized
// form rather than their Go structure.
func schemaForType(typ reflect.Type) (*jsonschema.Schema, error) {
	switch typ {
	case timeType:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}, nil
	case durationType:
		// Durations encode as integer nanoseconds.
		return &jsonschema.Schema{Type: "integer"}, nil
	case rawMessageType:
		return &jsonschema.Schema{}, nil
	case byteSliceType:
		return &jsonschema.Schema{Type: "string"}, nil
	}
	if typ.Implements(jsonMarshalerType) || reflect.PointerTo(typ).Implements(jsonMarshalerType) {
		return &jsonschema.Schema{}, nil
	}
	if typ.Implements(textMarshalerType) {
		return &jsonschema.Schema{Type: "string"}, nil
	}

	switch typ.Kind() {
	case reflect.Pointer:
		inner, err := schemaForType(typ.Elem())
		if err != nil {
			return nil, err
		}
		if inner.Type != "" {
			inner.Types = []string{inner.Type, "null"}
			inner.Type = ""
		}
		return inner, nil
	case reflect.Slice, reflect.Array:
		items, err := schemaForType(typ.Elem())
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case reflect.String:
		return &jsonschema.Schema{Type: "string"}, nil
	case reflect.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonschema.Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonschema.Schema{Type: "number"}, nil
	case reflect.Map, reflect.Struct:
		// Sets encode as objects keyed by member; nested structs are
		// validated by their own fields' tags at the top level only.
		return &jsonschema.Schema{Type: "object"}, nil
	case reflect.Interface:
		return &jsonschema.Schema{}, nil
	default:
		return nil, fmt.Errorf("unsupported type %s (%s)", typ, typ.Kind())
	}
}

// Instance renders the flattened members of a model value as the JSON
// object its schema describes. Each member is passed through
// encoding/json so the instance has the same shape the schema was
// derived from.
func Instance(model signature.Model, parameters []signature.Parameter, value reflect.Value) (map[string]any, error) {
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	instance := make(map[string]any, len(model.Members))
	for _, parameter := range parameters {
		if parameter.Model != model.Name {
			continue
		}
		field := value.FieldByIndex(parameter.Index)
		switch {
		case field.Kind() == reflect.Slice && field.IsNil() && field.Type() != byteSliceType:
			instance[parameter.Name] = []any{}
			continue
		case field.Kind() == reflect.Map && field.IsNil():
			instance[parameter.Name] = map[string]any{}
			continue
		}
		encoded, err := json.Marshal(field.Interface())
		if err != nil {
			return nil, fmt.Errorf("model %s: field %s: %w", model.Name, parameter.Field, err)
		}
		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return nil, fmt.Errorf("model %s: field %s: %w", model.Name, parameter.Field, err)
		}
		instance[parameter.Name] = decoded
	}
	return instance, nil
}
