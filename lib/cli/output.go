// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/cliche/lib/codec"
	"github.com/bureau-foundation/cliche/lib/config"
)

// Printer writes command results.
type Printer struct {
	Out    io.Writer
	Format config.Format
	Indent int

	// Color enables chroma highlighting of structured output.
	Color bool
}

// Print writes value in the configured format. raw forces the Go text
// form. Values that cannot be serialized in the configured format fall
// back to the text form.
func (p *Printer) Print(value any, raw bool) error {
	if raw || p.Format == config.FormatRaw {
		_, err := fmt.Fprintln(p.Out, value)
		return err
	}

	value = normalizeNilSlice(value)
	var (
		text     string
		language string
		err      error
	)
	switch p.Format {
	case config.FormatYAML:
		text, err = encodeYAML(value, p.Indent)
		language = "yaml"
	case config.FormatCBOR:
		text, err = codec.Diagnose(value)
	default:
		text, err = encodeJSON(value, p.Indent)
		language = "json"
	}
	if err != nil {
		_, err = fmt.Fprintln(p.Out, value)
		return err
	}

	text = strings.TrimRight(text, "\n") + "\n"
	if p.Color && language != "" {
		if err := quick.Highlight(p.Out, text, language, "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err = io.WriteString(p.Out, text)
	return err
}

func encodeJSON(value any, indent int) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", strings.Repeat(" ", indent))
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func encodeYAML(value any, indent int) (text string, err error) {
	// yaml.v3 panics on values it cannot represent, such as channels.
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("encoding YAML: %v", recovered)
		}
	}()
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(max(indent, 2))
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that serialization produces [] instead of null.
// Returns value unchanged for all other types.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}

// printable reports whether a command result should be printed. Nil
// pointers, maps, interfaces, and functions are skipped; nil slices
// print as empty lists.
func printable(value reflect.Value) bool {
	if !value.IsValid() {
		return false
	}
	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return !value.IsNil()
	}
	return true
}
