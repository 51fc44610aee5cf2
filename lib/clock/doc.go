// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that measures elapsed time accepts a Clock instead of calling
// time.Now directly. Production code passes Real(); tests pass Fake()
// and move time with Advance, so phase timings print deterministic
// durations:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	watch := clock.NewStopwatch(c)
//	c.Advance(250 * time.Millisecond)
//	watch.Lap() // 250ms
package clock
