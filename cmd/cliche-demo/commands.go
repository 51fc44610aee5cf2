// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/cliche/lib/registry"
)

// register adds every demo command to reg.
func register(reg *registry.Registry) error {
	return errors.Join(
		reg.Register(Add, registry.WithDescription("Add two integers.")),
		reg.Register(Greet, registry.WithDescription(greetDescription)),
		reg.Register(Sum, registry.WithDescription("Sum numbers given as flags and as positional arguments.")),
		reg.Register(Dedupe, registry.WithDescription("Sort a list of words and drop repeats.")),
		reg.Register(Signup, registry.WithDescription("Validate a new account and echo it back.")),
		reg.Register(Wait, registry.WithDescription("Sleep, stopping early on interrupt.")),
		reg.Register(Fail, registry.WithDescription("Return an error, to try the failure policies.")),
		reg.Register(Crash, registry.WithDescription("Panic, to try the failure policies.")),
		reg.RegisterMethod(newCounter, (*Counter).Increment,
			registry.WithDescription("Count up from a starting value.")),
		reg.RegisterMethod(newCounter, (*Counter).Countdown,
			registry.WithDescription("Count down from the starting value to zero.")),
		reg.Register(Completion, registry.WithDescription(completionDescription)),
	)
}

type addParams struct {
	A int `desc:"first operand"`
	B int `default:"1" desc:"second operand"`
}

// Add returns a + b.
func Add(params addParams) int { return params.A + params.B }

// Tone is the register of a greeting.
type Tone int

const (
	Casual Tone = iota
	Formal
	Pirate
)

// Choices lists the labels accepted by --tone, in value order.
func (Tone) Choices() []string { return []string{"casual", "formal", "pirate"} }

func (t Tone) String() string { return Tone(0).Choices()[t] }

const greetDescription = `Greet someone.

The greeting is shouted unless ` + "`--no-shout`" + ` is given.`

type greetParams struct {
	Name  string `required:"true" desc:"who to greet"`
	Tone  Tone   `default:"casual" desc:"how to say it"`
	Shout bool   `default:"true"`
	Times int    `flag:"times,x" default:"1"`
}

// Greet builds a greeting.
func Greet(params greetParams) []string {
	var text string
	switch params.Tone {
	case Formal:
		text = "Good day, " + params.Name + "."
	case Pirate:
		text = "Ahoy, " + params.Name + "!"
	default:
		text = "Hi " + params.Name
	}
	if params.Shout {
		text = strings.ToUpper(text)
	}
	lines := make([]string, max(params.Times, 1))
	for i := range lines {
		lines[i] = text
	}
	return lines
}

type sumParams struct {
	Numbers []float64 `desc:"numbers to add; repeat the flag or pass a JSON array"`
	Scale   float64   `default:"1"`
}

// Sum adds the numbers from --numbers and the positional arguments.
func Sum(params sumParams, extra ...float64) float64 {
	total := 0.0
	for _, number := range append(params.Numbers, extra...) {
		total += number
	}
	return total * params.Scale
}

type dedupeParams struct {
	Words map[string]struct{} `desc:"words to keep once each"`
	Upper bool
}

// Dedupe returns the distinct words in order.
func Dedupe(params dedupeParams) []string {
	words := slices.Sorted(maps.Keys(params.Words))
	if params.Upper {
		for i, word := range words {
			words[i] = strings.ToUpper(word)
		}
	}
	return words
}

// Account is a validated model: its fields become --username, --email,
// --age, and --roles.
type Account struct {
	Username string   `json:"username" minlen:"3" maxlen:"16" pattern:"^[a-z][a-z0-9_]*$"`
	Email    string   `json:"email" required:"true"`
	Age      int      `json:"age" min:"13" max:"130" default:"18"`
	Roles    []string `json:"roles" maxlen:"3"`
}

// Validate checks what the field constraints cannot express.
func (a Account) Validate() error {
	if !strings.Contains(a.Email, "@") {
		return fmt.Errorf("email %q has no @", a.Email)
	}
	return nil
}

type signupParams struct {
	Account Account
	DryRun  bool `desc:"validate only"`
}

// Signup validates an account.
func Signup(params signupParams) (map[string]any, error) {
	return map[string]any{
		"account": params.Account,
		"created": !params.DryRun,
	}, nil
}

type waitParams struct {
	For time.Duration `default:"1s" desc:"how long to sleep"`
}

// Wait sleeps for the given duration or until ctx ends.
func Wait(ctx context.Context, params waitParams) (string, error) {
	timer := time.NewTimer(params.For)
	defer timer.Stop()
	select {
	case <-timer.C:
		return "slept " + params.For.String(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("interrupted: %w", ctx.Err())
	}
}

type failParams struct {
	Message string `default:"something went wrong"`
}

// Fail always fails.
func Fail(params failParams) error {
	return fmt.Errorf("fail: %w", errors.New(params.Message))
}

// Crash always panics.
func Crash() {
	var counts map[string]int
	counts["boom"]++
}

// Counter is the receiver of the increment and countdown commands.
type Counter struct {
	label string
	value int
}

type counterOptions struct {
	Start int    `default:"0" desc:"initial value"`
	Label string `default:"count"`
}

func newCounter(options counterOptions) (*Counter, error) {
	if options.Start < 0 {
		return nil, fmt.Errorf("start must not be negative, got %d", options.Start)
	}
	return &Counter{label: options.Label, value: options.Start}, nil
}

type incrementParams struct {
	By    int `default:"1"`
	Times int `default:"1"`
	// Label is shared with the constructor.
	Label string
}

// Increment adds By to the counter Times times.
func (c *Counter) Increment(params incrementParams) map[string]int {
	for range params.Times {
		c.value += params.By
	}
	return map[string]int{params.Label: c.value}
}

type countdownParams struct {
	Step int `default:"1"`
}

// Countdown lists the values from the start down to zero.
func (c *Counter) Countdown(params countdownParams) []int {
	if params.Step < 1 {
		params.Step = 1
	}
	var values []int
	for value := c.value; value >= 0; value -= params.Step {
		values = append(values, value)
	}
	return values
}
