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

package disruptor

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/ring"
	"github.com/marketpulse/disruptor/pkg/sequence"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// HandlerState is the lifecycle of one consume loop.
type HandlerState int32

const (
	// HandlerIdle means the loop has not been started.
	HandlerIdle HandlerState = iota
	// HandlerRunning means the loop is polling the ring.
	HandlerRunning
	// HandlerDraining means a stop was observed and the loop finishes what was published before it.
	HandlerDraining
	// HandlerStopped means the loop has exited.
	HandlerStopped
)

// String implements fmt.Stringer.
func (s HandlerState) String() string {
	switch s {
	case HandlerIdle:
		return "idle"
	case HandlerRunning:
		return "running"
	case HandlerDraining:
		return "draining"
	case HandlerStopped:
		return "stopped"
	}
	return fmt.Sprintf("HandlerState(%d)", int32(s))
}

type handler[T any] struct {
	id   int
	name string

	// processor is only held until Start moves it into the loop.
	processor Processor[T]

	ring       *ring.Buffer[T]
	cursor     *sequence.Counter
	peers      []*sequence.Counter
	visibility Visibility
	idle       wait.Strategy
	running    *atomic.Bool
	lockThread bool
	logger     logging.Logger

	state       atomic.Int32
	processed   atomic.Uint64
	errors      atomic.Uint64
	last        atomic.Int64
	startedAt   atomic.Int64
	lastEventAt atomic.Int64
	stoppedAt   atomic.Int64
	failure     atomic.Pointer[HandlerError]
}

// run is the consume loop. It owns p for its whole lifetime.
func (h *handler[T]) run(p Processor[T]) (err *HandlerError) {
	if h.lockThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	h.startedAt.Store(time.Now().UnixNano())
	h.state.Store(int32(HandlerRunning))
	defer func() {
		// A loop that exits never reads again, so it must stop gating the producer.
		h.cursor.Store(sequence.Retired)
		h.stoppedAt.Store(time.Now().UnixNano())
		h.state.Store(int32(HandlerStopped))
	}()

	if s, ok := p.(Shutdowner); ok {
		defer s.OnShutdown(h.id)
	}
	if s, ok := p.(Starter); ok {
		if e := s.OnStart(h.id); e != nil {
			h.errors.Add(1)
			return h.fail(sequence.Initial, e)
		}
	}

	next := h.cursor.Load() + 1
	for attempt := 0; ; {
		if !h.running.Load() {
			h.state.Store(int32(HandlerDraining))
			return h.drain(p, next)
		}

		highest := h.highest(next)
		if next > highest {
			h.idle.Idle(attempt)
			attempt++
			continue
		}
		attempt = 0
		if next, err = h.process(p, next, highest); err != nil {
			return err
		}
	}
}

// drain processes everything published before the stop request was observed.
func (h *handler[T]) drain(p Processor[T], next int64) (err *HandlerError) {
	target := h.ring.HighestPublished(next, h.ring.Cursor())
	for attempt := 0; next <= target; {
		highest := h.highest(next)
		if highest > target {
			highest = target
		}
		if next > highest {
			h.idle.Idle(attempt)
			attempt++
			continue
		}
		attempt = 0
		if next, err = h.process(p, next, highest); err != nil {
			return err
		}
	}
	return nil
}

// highest returns the last sequence this handler may read.
func (h *handler[T]) highest(next int64) int64 {
	bound := h.ring.HighestPublished(next, h.ring.Cursor())
	if h.visibility == VisibilityLockstep {
		if slowest := sequence.MinimumOf(h.peers, sequence.Retired); slowest != sequence.Retired && slowest+1 < bound {
			bound = slowest + 1
		}
	}
	return bound
}

// process runs p over [next, highest] and publishes the new cursor.
func (h *handler[T]) process(p Processor[T], next, highest int64) (int64, *HandlerError) {
	first := next
	for ; next <= highest; next++ {
		if err := h.invoke(p, h.ring.Slot(next)); err != nil {
			h.errors.Add(1)
			if next > first {
				h.advanced(next - 1)
			}
			return next, h.fail(next, err)
		}
		h.processed.Add(1)
	}
	h.advanced(highest)
	h.cursor.Store(highest)
	return next, nil
}

func (h *handler[T]) advanced(seq int64) {
	h.last.Store(seq)
	h.lastEventAt.Store(time.Now().UnixNano())
}

func (h *handler[T]) invoke(p Processor[T], ev *Event[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errorx.ErrProcessorPanic, r)
		}
	}()
	return p.OnEvent(ev)
}

func (h *handler[T]) fail(seq int64, err error) *HandlerError {
	herr := &HandlerError{Handler: h.id, Name: h.name, Sequence: seq, Err: err}
	h.failure.Store(herr)
	return herr
}

func (h *handler[T]) stats() ProcessingStats {
	s := ProcessingStats{
		ID:              h.id,
		Name:            h.name,
		State:           HandlerState(h.state.Load()),
		EventsProcessed: h.processed.Load(),
		Errors:          h.errors.Load(),
		LastSequence:    h.last.Load(),
		StartedAt:       unixNano(h.startedAt.Load()),
		LastEventAt:     unixNano(h.lastEventAt.Load()),
		StoppedAt:       unixNano(h.stoppedAt.Load()),
	}
	if herr := h.failure.Load(); herr != nil {
		s.Failure = herr
	}
	s.Throughput = rate(s.EventsProcessed, s.StartedAt, s.StoppedAt)
	return s
}
