// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/cliche/lib/clock"
	"github.com/bureau-foundation/cliche/lib/registry"
)

type addParams struct {
	A int `desc:"first operand"`
	B int `default:"1"`
}

func Add(params addParams) int { return params.A + params.B }

type style string

func (style) Choices() []string { return []string{"plain", "fancy"} }

type greetParams struct {
	Name     string `required:"true" desc:"who to greet"`
	Loud     bool   `default:"true"`
	Greeting string `flag:"greeting,g" default:"Hello"`
	Style    style  `default:"plain"`
}

func Greet(params greetParams) string {
	text := fmt.Sprintf("%s, %s", params.Greeting, params.Name)
	if params.Style == "fancy" {
		text = "~ " + text + " ~"
	}
	if params.Loud {
		text = strings.ToUpper(text)
	}
	return text
}

type sumParams struct {
	Values []int
	Tags   map[string]struct{}
}

func Sum(params sumParams) sumParams { return params }

type concatParams struct {
	Separator string `default:" "`
}

func Concat(params concatParams, words ...string) string {
	return strings.Join(words, params.Separator)
}

type failParams struct {
	Reason string `default:"boom"`
}

func Fail(params failParams) error { return errors.New(params.Reason) }

func Explode() { panic("kaboom") }

type address struct {
	Street string `minlen:"1"`
	Zip    int    `min:"1000" max:"99999"`
}

type enrollParams struct {
	Name string `required:"true"`
	Home address
}

func Enroll(params enrollParams) address { return params.Home }

type serveParams struct {
	Host string
	Port int
	Path string
	Page int
}

func Serve(params serveParams) {}

// ledger counts constructor calls so tests can check the receiver is
// built exactly once per dispatch.
type ledger struct {
	path    string
	verbose bool
}

var ledgerOpens int

type ledgerOptions struct {
	Path    string `default:"ledger.db"`
	Verbose bool
}

func openLedger(options ledgerOptions) (*ledger, error) {
	ledgerOpens++
	if options.Path == "" {
		return nil, errors.New("empty ledger path")
	}
	return &ledger{path: options.Path, verbose: options.Verbose}, nil
}

type appendParams struct {
	Entry string `required:"true"`
	Path  string
}

func (l *ledger) Append(params appendParams) map[string]any {
	return map[string]any{
		"ledger":  l.path,
		"verbose": l.verbose,
		"entry":   params.Entry,
		"path":    params.Path,
	}
}

func newTestRegistry(t *testing.T, register ...func(*registry.Registry) error) *registry.Registry {
	t.Helper()
	reg := registry.New(nil, clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	for _, fn := range register {
		if err := fn(reg); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return reg
}

func withFunc(fn any, opts ...registry.Option) func(*registry.Registry) error {
	return func(reg *registry.Registry) error { return reg.Register(fn, opts...) }
}

func withLedger(reg *registry.Registry) error {
	return reg.RegisterMethod(openLedger, (*ledger).Append)
}
