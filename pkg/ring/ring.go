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

// Package ring implements the fixed-capacity circular array of event slots
// and the claim/publish/read protocol that coordinates one producer (or
// several CAS-arbitrated producers) with any number of consumers.
//
// The producer claims sequence S only once every gating sequence has reached
// S-capacity, so a slot is never overwritten before every consumer gating on
// it has read it. Publishing stores the new position into a Counter; a
// consumer that loads that position also observes the fully written slot.
package ring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/math"
	"github.com/marketpulse/disruptor/pkg/sequence"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// ProducerMode selects how sequences are claimed.
type ProducerMode int

const (
	// SingleProducer claims without arbitration, Claim must only ever be
	// called from one goroutine at a time.
	SingleProducer ProducerMode = iota

	// MultiProducer arbitrates concurrent claims with compare-and-swap and
	// tracks per-slot publication so readers only see contiguous runs.
	MultiProducer
)

// String implements fmt.Stringer.
func (m ProducerMode) String() string {
	switch m {
	case SingleProducer:
		return "single"
	case MultiProducer:
		return "multi"
	}
	return fmt.Sprintf("ProducerMode(%d)", int(m))
}

// Event is one pre-allocated slot of the ring.
type Event[T any] struct {
	// Sequence is the position the slot was last published with.
	Sequence int64
	// Timestamp is taken when the slot is filled.
	Timestamp time.Time
	// Type is the caller-defined type tag.
	Type uint32
	// Flags carries caller-defined bits.
	Flags uint32
	// Payload is the user data.
	Payload T
}

// Buffer is the ring of Event slots plus its sequence bookkeeping.
type Buffer[T any] struct {
	slots    []Event[T]
	mask     int64
	capacity int64
	shift    uint8
	mode     ProducerMode
	strategy wait.Strategy

	// cursor is the published position for SingleProducer and the claimed
	// position for MultiProducer.
	cursor *sequence.Counter
	// gate caches the slowest gating sequence seen by the last claim.
	gate *sequence.Counter
	// claimed is private to the single producer.
	claimed int64
	// available holds, per slot, the lap number it was last published in.
	available []int32
	gating    []*sequence.Counter
}

// New allocates a ring of the given capacity. A nil strategy selects wait.Default.
func New[T any](capacity int64, mode ProducerMode, strategy wait.Strategy) (*Buffer[T], error) {
	if !math.IsPowerOfTwo(capacity) {
		return nil, fmt.Errorf("%w: got %d", errorx.ErrInvalidCapacity, capacity)
	}
	if strategy == nil {
		strategy = wait.Default()
	}

	b := &Buffer[T]{
		slots:    make([]Event[T], capacity),
		mask:     capacity - 1,
		capacity: capacity,
		shift:    math.Log2(capacity),
		mode:     mode,
		strategy: strategy,
		cursor:   sequence.NewCounter(sequence.Initial),
		gate:     sequence.NewCounter(sequence.Initial),
		claimed:  sequence.Initial,
	}
	if mode == MultiProducer {
		b.available = make([]int32, capacity)
		for i := range b.available {
			b.available[i] = -1
		}
	}
	return b, nil
}

// Capacity returns the number of slots.
func (b *Buffer[T]) Capacity() int64 {
	return b.capacity
}

// Mask returns Capacity()-1.
func (b *Buffer[T]) Mask() int64 {
	return b.mask
}

// Mode returns the producer mode the ring was built with.
func (b *Buffer[T]) Mode() ProducerMode {
	return b.mode
}

// AddGatingSequences registers consumer cursors the producer must respect.
// It must not be called concurrently with Claim.
func (b *Buffer[T]) AddGatingSequences(counters ...*sequence.Counter) error {
	for _, c := range counters {
		if c == nil {
			return fmt.Errorf("%w: nil counter", errorx.ErrInvalidGating)
		}
		for _, g := range b.gating {
			if g == c {
				return fmt.Errorf("%w: counter registered twice", errorx.ErrInvalidGating)
			}
		}
		b.gating = append(b.gating, c)
	}
	b.gate.Store(sequence.Initial)
	return nil
}

// RemoveGatingSequence unregisters c and reports whether it was registered.
// It must not be called concurrently with Claim.
func (b *Buffer[T]) RemoveGatingSequence(c *sequence.Counter) bool {
	for i, g := range b.gating {
		if g == c {
			b.gating = append(b.gating[:i:i], b.gating[i+1:]...)
			return true
		}
	}
	return false
}

// GatingSequences returns the registered consumer cursors.
func (b *Buffer[T]) GatingSequences() []*sequence.Counter {
	return append([]*sequence.Counter(nil), b.gating...)
}

// Claim reserves the next sequence, waiting as long as it takes for the
// slowest gating consumer to free the slot.
func (b *Buffer[T]) Claim() int64 {
	seq, _ := b.claim(nil, false)
	return seq
}

// ClaimContext is Claim with a bounded wait: it fails with ErrClaimTimeout
// once ctx is done.
func (b *Buffer[T]) ClaimContext(ctx context.Context) (int64, error) {
	return b.claim(ctx, false)
}

// TryClaim reserves the next sequence only if a slot is free right now.
func (b *Buffer[T]) TryClaim() (int64, bool) {
	seq, err := b.claim(nil, true)
	return seq, err == nil
}

func (b *Buffer[T]) claim(ctx context.Context, nonblocking bool) (int64, error) {
	if b.mode == MultiProducer {
		return b.claimShared(ctx, nonblocking)
	}

	next := b.claimed + 1
	if wrap := next - b.capacity; wrap > b.gate.Load() {
		if err := b.awaitGate(ctx, wrap, nonblocking); err != nil {
			return sequence.Initial, err
		}
	}
	b.claimed = next
	return next, nil
}

func (b *Buffer[T]) claimShared(ctx context.Context, nonblocking bool) (int64, error) {
	for {
		current := b.cursor.Load()
		next := current + 1
		if wrap := next - b.capacity; wrap > b.gate.Load() {
			if err := b.awaitGate(ctx, wrap, nonblocking); err != nil {
				return sequence.Initial, err
			}
			continue
		}
		if b.cursor.CompareAndSwap(current, next) {
			return next, nil
		}
	}
}

// awaitGate polls the gating sequences until all of them reached wrap.
func (b *Buffer[T]) awaitGate(ctx context.Context, wrap int64, nonblocking bool) error {
	for attempt := 0; ; attempt++ {
		gate := sequence.MinimumOf(b.gating, b.cursor.Load())
		b.gate.Store(gate)
		if wrap <= gate {
			return nil
		}
		if nonblocking {
			return errorx.ErrRingFull
		}
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", errorx.ErrClaimTimeout, err)
			}
		}
		b.strategy.Idle(attempt)
	}
}

// Slot returns the slot seq maps onto. The producer writes it between claim
// and Publish; consumers read it only once seq is visible to them.
func (b *Buffer[T]) Slot(seq int64) *Event[T] {
	return &b.slots[seq&b.mask]
}

// Publish makes the claimed and written slot seq visible to consumers.
func (b *Buffer[T]) Publish(seq int64) {
	if b.mode == MultiProducer {
		atomic.StoreInt32(&b.available[seq&b.mask], int32(seq>>b.shift))
		return
	}
	b.cursor.Store(seq)
}

// Cursor returns the highest published sequence for SingleProducer, or the
// highest claimed sequence for MultiProducer; pass it to HighestPublished.
func (b *Buffer[T]) Cursor() int64 {
	return b.cursor.Load()
}

// HighestPublished returns the largest s in [lower, upper] such that every
// sequence from lower to s is published, or lower-1 if lower is not.
func (b *Buffer[T]) HighestPublished(lower, upper int64) int64 {
	if b.mode == SingleProducer {
		return upper
	}
	for seq := lower; seq <= upper; seq++ {
		if atomic.LoadInt32(&b.available[seq&b.mask]) != int32(seq>>b.shift) {
			return seq - 1
		}
	}
	return upper
}

// Remaining returns how many sequences can be claimed without waiting.
func (b *Buffer[T]) Remaining() int64 {
	cursor := b.cursor.Load()
	consumed := sequence.MinimumOf(b.gating, cursor)
	return b.capacity - (cursor - consumed)
}
