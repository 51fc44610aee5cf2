// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package coerce converts between command-line text and typed Go values.
//
// A [Registry] maps Go types to [Entry] values. Resolution tries, in
// order: an exact type registration, pointers (resolved through their
// element), the [Chooser] capability, [encoding.TextUnmarshaler],
// containers (slices and sets), the type's kind, and finally the
// free-form fallback. Every type resolves to exactly one entry.
//
// Container elements are kept as raw text while flags are parsed and
// converted in one step by [Registry.Collect] when the command runs.
package coerce

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Tag identifies a coercion entry in argument schemas and help output.
type Tag string

const (
	TagString   Tag = "string"
	TagBool     Tag = "bool"
	TagInt      Tag = "int"
	TagUint     Tag = "uint"
	TagFloat    Tag = "float"
	TagDuration Tag = "duration"
	TagTime     Tag = "time"
	TagText     Tag = "text"
	TagChoice   Tag = "choice"
	TagList     Tag = "list"
	TagSet      Tag = "set"
	TagFreeForm Tag = "freeform"
)

// Chooser is implemented by enumerated types. Choices returns the
// closed set of labels the type accepts on the command line. It is
// called on the zero value.
type Chooser interface {
	Choices() []string
}

var (
	chooserType         = reflect.TypeFor[Chooser]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType        = reflect.TypeFor[fmt.Stringer]()
	durationType        = reflect.TypeFor[time.Duration]()
	timeType            = reflect.TypeFor[time.Time]()
	stringType          = reflect.TypeFor[string]()
)

// Entry converts between text and one family of Go types.
type Entry struct {
	Tag Tag

	// Boolean entries define flags that take no value.
	Boolean bool

	// Container entries accept repeated flags and defer element
	// conversion to [Registry.Collect].
	Container bool

	// Convert parses text into a value of typ.
	Convert func(text string, typ reflect.Type) (reflect.Value, error)

	// Format renders a value so that Convert accepts the result.
	Format func(value reflect.Value) string

	// Choices returns the allowed labels for typ, or nil when any text
	// is accepted.
	Choices func(typ reflect.Type) []string
}

// Registry resolves Go types to coercion entries.
type Registry struct {
	types    map[reflect.Type]*Entry
	kinds    map[reflect.Kind]*Entry
	choice   *Entry
	text     *Entry
	list     *Entry
	set      *Entry
	fallback *Entry
}

// New returns a registry holding the built-in entries.
func New() *Registry {
	r := &Registry{
		types: make(map[reflect.Type]*Entry),
		kinds: make(map[reflect.Kind]*Entry),
	}

	stringEntry := &Entry{Tag: TagString, Convert: convertString, Format: formatString}
	boolEntry := &Entry{Tag: TagBool, Boolean: true, Convert: convertBool, Format: formatBool}
	intEntry := &Entry{Tag: TagInt, Convert: convertInt, Format: formatInt}
	uintEntry := &Entry{Tag: TagUint, Convert: convertUint, Format: formatUint}
	floatEntry := &Entry{Tag: TagFloat, Convert: convertFloat, Format: formatFloat}

	r.kinds[reflect.String] = stringEntry
	r.kinds[reflect.Bool] = boolEntry
	for _, kind := range []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64} {
		r.kinds[kind] = intEntry
	}
	for _, kind := range []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr} {
		r.kinds[kind] = uintEntry
	}
	r.kinds[reflect.Float32] = floatEntry
	r.kinds[reflect.Float64] = floatEntry

	r.types[durationType] = &Entry{Tag: TagDuration, Convert: convertDuration, Format: formatDuration}
	r.types[timeType] = &Entry{Tag: TagTime, Convert: convertTime, Format: formatTime}

	r.choice = &Entry{Tag: TagChoice, Convert: convertChoice, Format: formatChoice, Choices: choicesOf}
	r.text = &Entry{Tag: TagText, Convert: convertText, Format: formatText}
	r.list = &Entry{Tag: TagList, Container: true, Convert: r.convertContainer, Format: r.formatContainer}
	r.set = &Entry{Tag: TagSet, Container: true, Convert: r.convertContainer, Format: r.formatContainer}
	r.fallback = &Entry{Tag: TagFreeForm, Convert: convertFreeForm, Format: formatFreeForm}

	return r
}

// Register installs entry for values of exactly typ, replacing any
// earlier registration.
func (r *Registry) Register(typ reflect.Type, entry *Entry) {
	r.types[typ] = entry
}

// Resolve returns the entry for typ. It never returns nil.
func (r *Registry) Resolve(typ reflect.Type) *Entry {
	if entry, ok := r.types[typ]; ok {
		return entry
	}
	if typ.Kind() == reflect.Pointer {
		return r.pointerEntry(r.Resolve(typ.Elem()))
	}
	if typ.Implements(chooserType) {
		return r.choice
	}
	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		return r.text
	}
	switch typ.Kind() {
	case reflect.Slice:
		return r.list
	case reflect.Map:
		if IsSet(typ) {
			return r.set
		}
	}
	if entry, ok := r.kinds[typ.Kind()]; ok {
		return entry
	}
	return r.fallback
}

// Convert parses text into a value of typ.
func (r *Registry) Convert(text string, typ reflect.Type) (reflect.Value, error) {
	return r.Resolve(typ).Convert(text, typ)
}

// Format renders value as text that Convert accepts.
func (r *Registry) Format(value reflect.Value) string {
	return r.Resolve(value.Type()).Format(value)
}

// Choices returns the allowed labels for typ, or nil.
func (r *Registry) Choices(typ reflect.Type) []string {
	entry := r.Resolve(typ)
	if entry.Choices == nil {
		return nil
	}
	return entry.Choices(typ)
}

// IsSet reports whether typ is a set: map[T]struct{} or map[T]bool.
func IsSet(typ reflect.Type) bool {
	if typ.Kind() != reflect.Map {
		return false
	}
	value := typ.Elem()
	return value.Kind() == reflect.Bool || (value.Kind() == reflect.Struct && value.NumField() == 0)
}

// ElementType returns the element type of a slice or the key type of a
// set.
func ElementType(typ reflect.Type) reflect.Type {
	if typ.Kind() == reflect.Map {
		return typ.Key()
	}
	return typ.Elem()
}

// Collect converts raw elements into a container of typ. Zero elements
// produce an empty container, never nil.
func (r *Registry) Collect(elements []string, typ reflect.Type) (reflect.Value, error) {
	elementType := ElementType(typ)
	entry := r.Resolve(elementType)

	if typ.Kind() == reflect.Map {
		set := reflect.MakeMapWithSize(typ, len(elements))
		member := reflect.Zero(typ.Elem())
		if typ.Elem().Kind() == reflect.Bool {
			member = reflect.ValueOf(true).Convert(typ.Elem())
		}
		for _, element := range elements {
			key, err := entry.Convert(element, elementType)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %q: %w", element, err)
			}
			set.SetMapIndex(key, member)
		}
		return set, nil
	}

	list := reflect.MakeSlice(typ, 0, len(elements))
	for _, element := range elements {
		value, err := entry.Convert(element, elementType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %q: %w", element, err)
		}
		list = reflect.Append(list, value)
	}
	return list, nil
}

// Elements splits container text into raw elements. A JSON array (JSON
// with comments is accepted) yields one element per item, with strings
// unquoted and other items kept as JSON text. Anything else is a
// comma-separated list whose elements are trimmed of surrounding
// space; quote a JSON array to keep it. Empty text and "[]" yield no
// elements.
func Elements(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		elements := strings.Split(text, ",")
		for i, element := range elements {
			elements[i] = strings.TrimSpace(element)
		}
		return elements, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON([]byte(trimmed)), &items); err != nil {
		return nil, fmt.Errorf("parsing list %q: %w", text, err)
	}
	elements := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			elements = append(elements, text)
			continue
		}
		elements = append(elements, string(item))
	}
	return elements, nil
}

func (r *Registry) convertContainer(text string, typ reflect.Type) (reflect.Value, error) {
	elements, err := Elements(text)
	if err != nil {
		return reflect.Value{}, err
	}
	return r.Collect(elements, typ)
}

func (r *Registry) formatContainer(value reflect.Value) string {
	var items []string
	if value.Kind() == reflect.Map {
		for _, key := range value.MapKeys() {
			items = append(items, r.Format(key))
		}
	} else {
		for i := range value.Len() {
			items = append(items, r.Format(value.Index(i)))
		}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return strings.Join(items, ",")
	}
	return string(encoded)
}

func (r *Registry) pointerEntry(elem *Entry) *Entry {
	pointer := *elem
	pointer.Convert = func(text string, typ reflect.Type) (reflect.Value, error) {
		value, err := elem.Convert(text, typ.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		target := reflect.New(typ.Elem())
		target.Elem().Set(value)
		return target, nil
	}
	pointer.Format = func(value reflect.Value) string {
		if value.IsNil() {
			return ""
		}
		return elem.Format(value.Elem())
	}
	if elem.Choices != nil {
		pointer.Choices = func(typ reflect.Type) []string { return elem.Choices(typ.Elem()) }
	}
	return &pointer
}

func convertString(text string, typ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(text).Convert(typ), nil
}

func formatString(value reflect.Value) string { return value.String() }

func convertBool(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := strconv.ParseBool(text)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid boolean %q", text)
	}
	return reflect.ValueOf(parsed).Convert(typ), nil
}

func formatBool(value reflect.Value) string { return strconv.FormatBool(value.Bool()) }

func convertInt(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(text), 0, typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid integer %q", text)
	}
	value := reflect.New(typ).Elem()
	value.SetInt(parsed)
	return value, nil
}

func formatInt(value reflect.Value) string { return strconv.FormatInt(value.Int(), 10) }

func convertUint(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(text), 0, typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid unsigned integer %q", text)
	}
	value := reflect.New(typ).Elem()
	value.SetUint(parsed)
	return value, nil
}

func formatUint(value reflect.Value) string { return strconv.FormatUint(value.Uint(), 10) }

func convertFloat(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(text), typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid number %q", text)
	}
	value := reflect.New(typ).Elem()
	value.SetFloat(parsed)
	return value, nil
}

func formatFloat(value reflect.Value) string {
	return strconv.FormatFloat(value.Float(), 'g', -1, value.Type().Bits())
}

func convertDuration(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid duration %q", text)
	}
	return reflect.ValueOf(parsed).Convert(typ), nil
}

func formatDuration(value reflect.Value) string {
	return time.Duration(value.Int()).String()
}

func convertTime(text string, typ reflect.Type) (reflect.Value, error) {
	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid time %q (want RFC 3339)", text)
	}
	return reflect.ValueOf(parsed), nil
}

func formatTime(value reflect.Value) string {
	return value.Interface().(time.Time).Format(time.RFC3339Nano)
}

func convertText(text string, typ reflect.Type) (reflect.Value, error) {
	target := reflect.New(typ)
	if err := target.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return reflect.Value{}, fmt.Errorf("invalid %s %q: %w", typ, text, err)
	}
	return target.Elem(), nil
}

func formatText(value reflect.Value) string {
	if value.Type().Implements(textMarshalerType) {
		encoded, err := value.Interface().(encoding.TextMarshaler).MarshalText()
		if err == nil {
			return string(encoded)
		}
	}
	return fmt.Sprint(value.Interface())
}

func choicesOf(typ reflect.Type) []string {
	return reflect.Zero(typ).Interface().(Chooser).Choices()
}

func convertChoice(text string, typ reflect.Type) (reflect.Value, error) {
	choices := choicesOf(typ)
	position := -1
	for i, choice := range choices {
		if choice == text {
			position = i
			break
		}
	}
	if position < 0 {
		quoted := make([]string, len(choices))
		for i, choice := range choices {
			quoted[i] = strconv.Quote(choice)
		}
		return reflect.Value{}, fmt.Errorf("invalid choice %q (choose from %s)", text, strings.Join(quoted, ", "))
	}

	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		return convertText(text, typ)
	}

	value := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.String:
		value.SetString(text)
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		for i := range choices {
			value.SetInt(int64(i))
			if labelOf(value, choices) == text {
				return value, nil
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		for i := range choices {
			value.SetUint(uint64(i))
			if labelOf(value, choices) == text {
				return value, nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("choice %q has no %s value", text, typ)
}

func formatChoice(value reflect.Value) string {
	return labelOf(value, choicesOf(value.Type()))
}

// labelOf returns the label for an enumerated value: its String or
// MarshalText form when it has one, else its string content or its
// position in choices.
func labelOf(value reflect.Value, choices []string) string {
	if value.Type().Implements(stringerType) {
		return value.Interface().(fmt.Stringer).String()
	}
	if value.Type().Implements(textMarshalerType) {
		return formatText(value)
	}
	switch value.Kind() {
	case reflect.String:
		return value.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if index := value.Int(); index >= 0 && index < int64(len(choices)) {
			return choices[index]
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if index := value.Uint(); index < uint64(len(choices)) {
			return choices[index]
		}
	}
	return fmt.Sprint(value.Interface())
}

// convertFreeForm hands text through unchanged to string and interface
// types and decodes it as JSON for everything else.
func convertFreeForm(text string, typ reflect.Type) (reflect.Value, error) {
	if typ.Kind() == reflect.String {
		return reflect.ValueOf(text).Convert(typ), nil
	}
	if typ.Kind() == reflect.Interface && stringType.Implements(typ) {
		value := reflect.New(typ).Elem()
		value.Set(reflect.ValueOf(text))
		return value, nil
	}
	target := reflect.New(typ)
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("decoding %s from %q: %w", typ, text, err)
	}
	return target.Elem(), nil
}

func formatFreeForm(value reflect.Value) string {
	if value.Kind() == reflect.String {
		return value.String()
	}
	if value.Kind() == reflect.Interface {
		if value.IsNil() {
			return ""
		}
		if text, ok := value.Interface().(string); ok {
			return text
		}
	}
	encoded, err := json.Marshal(value.Interface())
	if err != nil {
		return fmt.Sprint(value.Interface())
	}
	return string(encoded)
}
