// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package coerce

import (
	"fmt"
	"reflect"
)

// Value is a [pflag.Value] backed by a coercion entry. Scalars are
// converted as each flag occurrence is parsed, so a bad value is a
// usage error. Containers collect raw elements; the first occurrence
// replaces the default and later ones append.
//
// [pflag.Value]: https://pkg.go.dev/github.com/spf13/pflag#Value
type Value struct {
	registry *Registry
	entry    *Entry
	typ      reflect.Type

	value    reflect.Value
	elements []string
	changed  bool
}

// NewValue returns a flag value for typ holding its default. When
// hasDefault is false the default is the zero value (an empty container
// for containers).
func (r *Registry) NewValue(typ reflect.Type, defaultText string, hasDefault bool) (*Value, error) {
	v := &Value{registry: r, entry: r.Resolve(typ), typ: typ}

	if v.entry.Container {
		v.elements = []string{}
		if hasDefault {
			elements, err := Elements(defaultText)
			if err != nil {
				return nil, fmt.Errorf("default %q: %w", defaultText, err)
			}
			v.elements = elements
		}
		return v, nil
	}

	v.value = reflect.New(typ).Elem()
	if hasDefault {
		converted, err := v.entry.Convert(defaultText, typ)
		if err != nil {
			return nil, fmt.Errorf("default %q: %w", defaultText, err)
		}
		v.value = converted
	}
	return v, nil
}

// Entry returns the coercion entry behind the value.
func (v *Value) Entry() *Entry { return v.entry }

// Changed reports whether the flag was given on the command line.
func (v *Value) Changed() bool { return v.changed }

// Elements returns the raw container elements.
func (v *Value) Elements() []string {
	return append([]string{}, v.elements...)
}

// Get returns the current value: the typed value for scalars, or the
// raw element list ([]string) for containers.
func (v *Value) Get() any {
	if v.entry.Container {
		return v.Elements()
	}
	return v.value.Interface()
}

// String renders the current value.
func (v *Value) String() string {
	if v.entry.Container {
		if len(v.elements) == 0 {
			return "[]"
		}
		value, err := v.registry.Collect(v.elements, v.typ)
		if err != nil {
			return fmt.Sprint(v.elements)
		}
		return v.entry.Format(value)
	}
	if !v.value.IsValid() {
		return ""
	}
	return v.entry.Format(v.value)
}

// Set parses one flag occurrence.
func (v *Value) Set(text string) error {
	if v.entry.Container {
		elements, err := Elements(text)
		if err != nil {
			return err
		}
		if !v.changed {
			v.elements = nil
		}
		v.elements = append(v.elements, elements...)
		if v.elements == nil {
			v.elements = []string{}
		}
		v.changed = true
		return nil
	}

	converted, err := v.entry.Convert(text, v.typ)
	if err != nil {
		return err
	}
	v.value = converted
	v.changed = true
	return nil
}

// Type names the value kind in usage output.
func (v *Value) Type() string {
	if v.entry.Container {
		return string(v.entry.Tag) + " of " + string(v.registry.Resolve(ElementType(v.typ)).Tag)
	}
	return string(v.entry.Tag)
}

// IsBoolFlag reports whether the flag takes no argument.
func (v *Value) IsBoolFlag() bool { return v.entry.Boolean }
