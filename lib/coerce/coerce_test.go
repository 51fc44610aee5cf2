// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package coerce

import (
	"math"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"
)

type color string

func (color) Choices() []string { return []string{"red", "green", "blue"} }

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

func (l level) String() string {
	switch l {
	case levelDebug:
		return "debug"
	case levelInfo:
		return "info"
	case levelError:
		return "error"
	}
	return "unknown"
}

func (level) Choices() []string { return []string{"debug", "info", "error"} }

type shape uint8

func (shape) Choices() []string { return []string{"circle", "square"} }

func TestResolve_Tags(t *testing.T) {
	registry := New()
	tests := []struct {
		value any
		want  Tag
	}{
		{"", TagString},
		{false, TagBool},
		{int8(0), TagInt},
		{int64(0), TagInt},
		{uint16(0), TagUint},
		{float32(0), TagFloat},
		{time.Duration(0), TagDuration},
		{time.Time{}, TagTime},
		{netip.Addr{}, TagText},
		{color(""), TagChoice},
		{level(0), TagChoice},
		{[]int{}, TagList},
		{map[string]struct{}{}, TagSet},
		{map[int]bool{}, TagSet},
		{map[string]int{}, TagFreeForm},
		{struct{ A int }{}, TagFreeForm},
		{new(int), TagInt},
	}
	for _, test := range tests {
		typ := reflect.TypeOf(test.value)
		if got := registry.Resolve(typ).Tag; got != test.want {
			t.Errorf("Resolve(%s).Tag = %q, want %q", typ, got, test.want)
		}
	}
	if got := registry.Resolve(reflect.TypeFor[any]()).Tag; got != TagFreeForm {
		t.Errorf("Resolve(any).Tag = %q, want %q", got, TagFreeForm)
	}
}

func TestRoundTrip(t *testing.T) {
	registry := New()
	values := []any{
		"", "hello world", "with,comma",
		true, false,
		0, -1, 42, math.MaxInt64, math.MinInt64,
		int8(-128), int16(32767), int32(-5),
		uint(7), uint8(255), uint64(math.MaxUint64),
		0.0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64, 0.1,
		float32(0.1), float32(3.4e38),
		time.Duration(0), 1500 * time.Millisecond, -3 * time.Hour,
		time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC),
		netip.MustParseAddr("192.0.2.1"),
		color("red"), color("blue"),
		levelDebug, levelInfo, levelError,
		shape(0), shape(1),
	}
	for _, value := range values {
		original := reflect.ValueOf(value)
		text := registry.Format(original)
		converted, err := registry.Convert(text, original.Type())
		if err != nil {
			t.Errorf("Convert(Format(%#v)) = error %v (text %q)", value, err, text)
			continue
		}
		if !reflect.DeepEqual(converted.Interface(), value) {
			t.Errorf("Convert(Format(%#v)) = %#v (text %q)", value, converted.Interface(), text)
		}
	}
}

func TestConvert_Choice(t *testing.T) {
	registry := New()

	converted, err := registry.Convert("info", reflect.TypeFor[level]())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if converted.Interface() != levelInfo {
		t.Errorf("Convert(info) = %v, want %v", converted.Interface(), levelInfo)
	}

	_, err = registry.Convert("purple", reflect.TypeFor[color]())
	if err == nil {
		t.Fatal("Convert(purple) succeeded, want error")
	}
	if !strings.Contains(err.Error(), `invalid choice "purple"`) || !strings.Contains(err.Error(), `"green"`) {
		t.Errorf("error = %q, want invalid choice listing the labels", err)
	}

	choices := registry.Choices(reflect.TypeFor[*color]())
	if !reflect.DeepEqual(choices, []string{"red", "green", "blue"}) {
		t.Errorf("Choices(*color) = %v", choices)
	}
	if registry.Choices(reflect.TypeFor[int]()) != nil {
		t.Error("Choices(int) is non-nil, want nil")
	}
}

func TestConvert_Errors(t *testing.T) {
	registry := New()
	tests := []struct {
		text string
		typ  reflect.Type
	}{
		{"abc", reflect.TypeFor[int]()},
		{"300", reflect.TypeFor[uint8]()},
		{"-1", reflect.TypeFor[uint]()},
		{"maybe", reflect.TypeFor[bool]()},
		{"fast", reflect.TypeFor[time.Duration]()},
		{"yesterday", reflect.TypeFor[time.Time]()},
		{"not-an-ip", reflect.TypeFor[netip.Addr]()},
		{"{broken", reflect.TypeFor[map[string]int]()},
	}
	for _, test := range tests {
		if _, err := registry.Convert(test.text, test.typ); err == nil {
			t.Errorf("Convert(%q, %s) succeeded, want error", test.text, test.typ)
		}
	}
}

func TestCollect_EmptyContainers(t *testing.T) {
	registry := New()
	for _, typ := range []reflect.Type{
		reflect.TypeFor[[]string](),
		reflect.TypeFor[[]float64](),
		reflect.TypeFor[map[string]struct{}](),
		reflect.TypeFor[map[int]bool](),
	} {
		value, err := registry.Collect(nil, typ)
		if err != nil {
			t.Fatalf("Collect(nil, %s): %v", typ, err)
		}
		if value.Type() != typ {
			t.Errorf("Collect type = %s, want %s", value.Type(), typ)
		}
		if value.IsNil() {
			t.Errorf("Collect(nil, %s) is nil, want empty container", typ)
		}
		if value.Len() != 0 {
			t.Errorf("Collect(nil, %s) has %d elements, want 0", typ, value.Len())
		}
	}
}

func TestCollect_Elements(t *testing.T) {
	registry := New()

	list, err := registry.Collect([]string{"1.5", "2", "-3"}, reflect.TypeFor[[]float64]())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := list.Interface().([]float64); !reflect.DeepEqual(got, []float64{1.5, 2, -3}) {
		t.Errorf("list = %v, want [1.5 2 -3]", got)
	}

	set, err := registry.Collect([]string{"a", "b", "a"}, reflect.TypeFor[map[string]struct{}]())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := set.Interface().(map[string]struct{}); len(got) != 2 {
		t.Errorf("set = %v, want two members", got)
	}

	levels, err := registry.Collect([]string{"error", "debug"}, reflect.TypeFor[[]level]())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := levels.Interface().([]level); !reflect.DeepEqual(got, []level{levelError, levelDebug}) {
		t.Errorf("levels = %v", got)
	}

	if _, err := registry.Collect([]string{"1", "x"}, reflect.TypeFor[[]int]()); err == nil {
		t.Error("Collect with a bad element succeeded, want error")
	}
}

func TestElements(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", []string{}},
		{"  ", []string{}},
		{"[]", []string{}},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{`[" a "]`, []string{" a "}},
		{`["a,b", "c"]`, []string{"a,b", "c"}},
		{"[1, 2.5, true]", []string{"1", "2.5", "true"}},
		{`[{"x": 1}] // trailing comment`, []string{`{"x": 1}`}},
	}
	for _, test := range tests {
		got, err := Elements(test.text)
		if err != nil {
			t.Errorf("Elements(%q): %v", test.text, err)
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("Elements(%q) = %q, want %q", test.text, got, test.want)
		}
	}
	if _, err := Elements("[1,"); err == nil {
		t.Error("Elements of truncated JSON succeeded, want error")
	}
}

func TestConvert_FreeForm(t *testing.T) {
	registry := New()

	value, err := registry.Convert("anything at all", reflect.TypeFor[any]())
	if err != nil {
		t.Fatalf("Convert(any): %v", err)
	}
	if value.Interface() != "anything at all" {
		t.Errorf("Convert(any) = %#v, want the raw text", value.Interface())
	}

	value, err = registry.Convert(`{"a": 1, /* note */ "b": 2}`, reflect.TypeFor[map[string]int]())
	if err != nil {
		t.Fatalf("Convert(map): %v", err)
	}
	if got := value.Interface().(map[string]int); got["a"] != 1 || got["b"] != 2 {
		t.Errorf("Convert(map) = %v, want a=1 b=2", got)
	}
}

func TestConvert_Pointer(t *testing.T) {
	registry := New()
	value, err := registry.Convert("12", reflect.TypeFor[*int]())
	if err != nil {
		t.Fatalf("Convert(*int): %v", err)
	}
	if got := *value.Interface().(*int); got != 12 {
		t.Errorf("*value = %d, want 12", got)
	}
}

func TestValue_Scalar(t *testing.T) {
	registry := New()
	value, err := registry.NewValue(reflect.TypeFor[int](), "3", true)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if value.Get() != 3 || value.Changed() {
		t.Errorf("default Get/Changed = %v/%v, want 3/false", value.Get(), value.Changed())
	}
	if err := value.Set("nope"); err == nil {
		t.Error("Set(nope) succeeded, want error")
	}
	if err := value.Set("9"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if value.Get() != 9 || !value.Changed() || value.String() != "9" {
		t.Errorf("after Set Get/Changed/String = %v/%v/%q", value.Get(), value.Changed(), value.String())
	}
	if value.Type() != "int" {
		t.Errorf("Type() = %q, want int", value.Type())
	}

	if _, err := registry.NewValue(reflect.TypeFor[int](), "three", true); err == nil {
		t.Error("NewValue with a bad default succeeded, want error")
	}
}

func TestValue_Container(t *testing.T) {
	registry := New()
	value, err := registry.NewValue(reflect.TypeFor[[]int](), "1,2", true)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if got := value.Get(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("default = %v, want [1 2]", got)
	}

	// The first occurrence replaces the default, later ones append.
	if err := value.Set("7"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := value.Set("[8, 9]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := value.Get(); !reflect.DeepEqual(got, []string{"7", "8", "9"}) {
		t.Errorf("Get() = %v, want [7 8 9]", got)
	}
	if value.String() != `["7","8","9"]` {
		t.Errorf("String() = %q", value.String())
	}
	if value.Type() != "list of int" {
		t.Errorf("Type() = %q, want %q", value.Type(), "list of int")
	}

	// Element conversion is deferred: parsing accepts anything.
	if err := value.Set("x"); err != nil {
		t.Errorf("Set(x) = %v, want deferred conversion", err)
	}
}

func TestValue_EmptyContainerOccurrence(t *testing.T) {
	registry := New()
	value, err := registry.NewValue(reflect.TypeFor[[]string](), "a", true)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if err := value.Set(""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := value.Get().([]string)
	if !ok || got == nil || len(got) != 0 {
		t.Errorf("Get() = %#v, want empty non-nil slice", value.Get())
	}
}

func TestValue_Bool(t *testing.T) {
	registry := New()
	value, err := registry.NewValue(reflect.TypeFor[bool](), "", false)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if !value.IsBoolFlag() {
		t.Error("IsBoolFlag() = false, want true")
	}
	if value.Get() != false {
		t.Errorf("Get() = %v, want false", value.Get())
	}
}
