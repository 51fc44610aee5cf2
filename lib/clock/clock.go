// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Clock abstracts the current time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Stopwatch measures consecutive intervals against a Clock.
type Stopwatch struct {
	clock Clock
	start time.Time
	lap   time.Time
}

// NewStopwatch starts a stopwatch at the clock's current time.
func NewStopwatch(c Clock) *Stopwatch {
	now := c.Now()
	return &Stopwatch{clock: c, start: now, lap: now}
}

// Lap returns the time since the previous Lap (or since the start) and
// begins a new interval.
func (s *Stopwatch) Lap() time.Duration {
	now := s.clock.Now()
	elapsed := now.Sub(s.lap)
	s.lap = now
	return elapsed
}

// Total returns the time since the stopwatch started.
func (s *Stopwatch) Total() time.Duration {
	return s.clock.Now().Sub(s.start)
}
