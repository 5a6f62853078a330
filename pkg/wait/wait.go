// Copyright (c) 2026 The Disruptor Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wait provides the polling disciplines used instead of blocking
// synchronization primitives: a producer waiting for free capacity and a
// consumer waiting for new events both call Idle between polls.
package wait

import (
	"runtime"
	"time"
)

const (
	// DefaultSpinTries is the number of polls Backoff performs without giving up the CPU.
	DefaultSpinTries = 64
	// DefaultYieldTries is the number of polls Backoff follows with runtime.Gosched.
	DefaultYieldTries = 64
	// DefaultMaxSleep caps the sleep Backoff escalates to.
	DefaultMaxSleep = 500 * time.Microsecond
)

// Strategy decides what a caller does after attempt consecutive polls found
// nothing to do. Implementations must be safe for concurrent use.
type Strategy interface {
	Idle(attempt int)
}

// Default returns the strategy used when none is configured.
func Default() Strategy {
	return Backoff{}
}

// Backoff spins, then yields, then sleeps for exponentially growing periods.
// Zero fields fall back to the package defaults.
type Backoff struct {
	SpinTries  int
	YieldTries int
	MaxSleep   time.Duration
}

// Idle implements Strategy.
func (b Backoff) Idle(attempt int) {
	spins, yields, maxSleep := b.SpinTries, b.YieldTries, b.MaxSleep
	if spins <= 0 {
		spins = DefaultSpinTries
	}
	if yields <= 0 {
		yields = DefaultYieldTries
	}
	if maxSleep <= 0 {
		maxSleep = DefaultMaxSleep
	}

	switch {
	case attempt < spins:
	case attempt < spins+yields:
		runtime.Gosched()
	default:
		shift := attempt - spins - yields
		if shift > 16 {
			shift = 16
		}
		d := time.Microsecond << uint(shift)
		if d > maxSleep {
			d = maxSleep
		}
		time.Sleep(d)
	}
}

// Yield gives up the processor on every idle poll.
type Yield struct{}

// Idle implements Strategy.
func (Yield) Idle(int) {
	runtime.Gosched()
}

// BusySpin never gives up the processor. It only makes sense when every
// consumer has a dedicated core.
type BusySpin struct{}

// Idle implements Strategy.
func (BusySpin) Idle(int) {}

// Sleeping sleeps for a fixed duration on every idle poll.
type Sleeping struct {
	Duration time.Duration
}

// Idle implements Strategy.
func (s Sleeping) Idle(int) {
	time.Sleep(s.Duration)
}

// Parse returns the strategy registered under name: "backoff", "yield",
// "busy-spin" or "sleeping". It returns false for unknown names.
func Parse(name string) (Strategy, bool) {
	switch name {
	case "", "backoff":
		return Backoff{}, true
	case "yield":
		return Yield{}, true
	case "busy-spin":
		return BusySpin{}, true
	case "sleeping":
		return Sleeping{Duration: 50 * time.Microsecond}, true
	}
	return nil, false
}
