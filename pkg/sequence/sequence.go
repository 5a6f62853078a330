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

// Package sequence provides the ordered positions and the shared counters
// that producers and consumers coordinate through.
//
// A Sequence is a logical position that is never reused during the lifetime
// of a ring buffer: positions grow past the physical capacity and are mapped
// onto slots with a mask. A Counter publishes a Sequence from exactly one
// writer to any number of readers.
package sequence

import (
	"math"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	// Initial is the value of every cursor before anything was claimed or read.
	Initial int64 = -1

	// Retired is stored by a consumer that will never read again, it never gates a producer.
	Retired int64 = math.MaxInt64
)

// Sequence is a monotonic logical position in a ring buffer.
type Sequence int64

// Value returns the raw position.
func (s Sequence) Value() int64 {
	return int64(s)
}

// Index maps the position onto a slot, mask must be capacity-1 for a power-of-two capacity.
func (s Sequence) Index(mask int64) int64 {
	return int64(s) & mask
}

// Increment returns the position delta steps further.
func (s Sequence) Increment(delta int64) Sequence {
	return s + Sequence(delta)
}

// Less reports whether s precedes other.
func (s Sequence) Less(other Sequence) bool {
	return s < other
}

// Counter is a Sequence shared between goroutines. It occupies its own cache
// lines so that a consumer advancing its cursor does not invalidate the line
// holding the producer's cursor.
type Counter struct {
	_     cpu.CacheLinePad
	value atomic.Int64
	_     cpu.CacheLinePad
}

// NewCounter returns a Counter holding initial.
func NewCounter(initial int64) *Counter {
	c := new(Counter)
	c.value.Store(initial)
	return c
}

// Load returns the last stored value.
func (c *Counter) Load() int64 {
	return c.value.Load()
}

// Sequence returns the last stored value as a Sequence.
func (c *Counter) Sequence() Sequence {
	return Sequence(c.value.Load())
}

// Store publishes v. Everything written before Store is visible to a
// goroutine that observes v through Load.
func (c *Counter) Store(v int64) {
	c.value.Store(v)
}

// CompareAndSwap sets the counter to next if it still holds current.
func (c *Counter) CompareAndSwap(current, next int64) bool {
	return c.value.CompareAndSwap(current, next)
}

// Add adds delta and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	return c.value.Add(delta)
}

// MinimumOf returns the smallest value held by counters, or fallback if it
// is smaller or counters is empty.
func MinimumOf(counters []*Counter, fallback int64) int64 {
	minimum := fallback
	for _, c := range counters {
		if v := c.Load(); v < minimum {
			minimum = v
		}
	}
	return minimum
}
