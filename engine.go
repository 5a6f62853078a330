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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/pool/goroutine"
	"github.com/marketpulse/disruptor/pkg/ring"
	"github.com/marketpulse/disruptor/pkg/sequence"
)

// EngineState is the lifecycle of an engine. Engines are single use:
// once stopped they cannot be started again.
type EngineState int32

const (
	// StateIdle means processors may still be added.
	StateIdle EngineState = iota
	// StateRunning means the consume loops are running.
	StateRunning
	// StateStopped means every consume loop has exited.
	StateStopped
)

// String implements fmt.Stringer.
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("EngineState(%d)", int32(s))
}

// Engine owns a ring buffer and the handlers consuming it.
type Engine[T any] struct {
	opts   *Options
	logger logging.Logger
	ring   *ring.Buffer[T]

	mu       sync.Mutex   // serializes lifecycle transitions
	hmu      sync.RWMutex // guards handlers and failures, never held while waiting
	handlers []*handler[T]
	state    atomic.Int32
	running  atomic.Bool // read by every consume loop
	wg       sync.WaitGroup
	pool     *goroutine.Pool
	ownPool  bool
	failures chan *HandlerError
	first    atomic.Pointer[HandlerError]

	published atomic.Uint64
	startedAt atomic.Int64
	stoppedAt atomic.Int64
}

// New creates an idle engine.
func New[T any](options ...Option) (*Engine[T], error) {
	opts := loadOptions(options...)
	rb, err := ring.New[T](opts.Capacity, opts.ProducerMode, opts.WaitStrategy)
	if err != nil {
		return nil, err
	}
	return &Engine[T]{opts: opts, logger: opts.Logger, ring: rb}, nil
}

// AddProcessor registers p with a new handler and returns the handler id.
// It must be called before Start.
func (e *Engine[T]) AddProcessor(p Processor[T]) (int, error) {
	return e.AddNamedProcessor("", p)
}

// AddNamedProcessor is AddProcessor with a name used in logs and stats.
func (e *Engine[T]) AddNamedProcessor(name string, p Processor[T]) (int, error) {
	if p == nil {
		return -1, errorx.ErrNilProcessor
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch EngineState(e.state.Load()) {
	case StateRunning:
		return -1, errorx.ErrEngineStarted
	case StateStopped:
		return -1, errorx.ErrEngineStopped
	}

	// A new handler only sees what is published after it was registered.
	cursor := sequence.NewCounter(e.ring.Cursor())
	if err := e.ring.AddGatingSequences(cursor); err != nil {
		return -1, err
	}

	h := &handler[T]{
		id:         len(e.handlers),
		name:       name,
		processor:  p,
		ring:       e.ring,
		cursor:     cursor,
		visibility: e.opts.Visibility,
		idle:       e.opts.IdleStrategy,
		running:    &e.running,
		lockThread: e.opts.LockOSThread,
		logger:     e.logger,
	}
	h.last.Store(cursor.Load())

	e.hmu.Lock()
	defer e.hmu.Unlock()
	for _, peer := range e.handlers {
		peer.peers = append(peer.peers, h.cursor)
		h.peers = append(h.peers, peer.cursor)
	}
	e.handlers = append(e.handlers, h)
	return h.id, nil
}

// Start spawns one consume loop per registered processor.
func (e *Engine[T]) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch EngineState(e.state.Load()) {
	case StateRunning:
		return errorx.ErrEngineRunning
	case StateStopped:
		return errorx.ErrEngineStopped
	}
	if len(e.handlers) == 0 {
		return errorx.ErrNoProcessors
	}

	e.pool = e.opts.WorkerPool
	if e.pool == nil {
		pool, err := goroutine.New(len(e.handlers))
		if err != nil {
			return err
		}
		e.pool, e.ownPool = pool, true
	} else if free := e.pool.Free(); free >= 0 && free < len(e.handlers) {
		// Submit on a blocking pool would wait for a worker forever.
		return fmt.Errorf("%w: %d free, %d handlers", errorx.ErrInsufficientWorkers, free, len(e.handlers))
	}

	e.hmu.Lock()
	e.failures = make(chan *HandlerError, len(e.handlers))
	e.hmu.Unlock()
	e.running.Store(true)
	e.startedAt.Store(time.Now().UnixNano())
	e.state.Store(int32(StateRunning))

	for i, h := range e.handlers {
		// The processor moves into the loop, the handler keeps only its stats.
		p := h.processor
		h.processor = nil

		h := h
		e.wg.Add(1)
		if err := e.pool.Submit(func() {
			defer e.wg.Done()
			e.exited(h, h.run(p))
		}); err != nil {
			e.wg.Done()
			e.logger.Errorf("engine %q failed to start handler %d: %v", e.opts.Name, h.id, err)
			retire(e.handlers[i:])
			e.shutdown()
			return fmt.Errorf("disruptor: start handler %d: %w", h.id, err)
		}
	}

	e.logger.Infof("engine %q started: %d handlers, capacity %d, %s producer, %s visibility",
		e.opts.Name, len(e.handlers), e.ring.Capacity(), e.ring.Mode(), e.opts.Visibility)
	return nil
}

func (e *Engine[T]) exited(h *handler[T], herr *HandlerError) {
	if herr == nil {
		e.logger.Debugf("engine %q handler %d exited after %d events", e.opts.Name, h.id, h.processed.Load())
		return
	}
	e.logger.Errorf("engine %q: %v", e.opts.Name, herr)
	e.first.CompareAndSwap(nil, herr)
	e.failures <- herr
}

// Publish claims the next sequence, fills its slot with data and a fresh
// timestamp, and makes it visible to every processor. It blocks while the
// ring is full relative to the slowest processor.
//
// In SingleProducer mode Publish must not be called concurrently. An engine
// keeps accepting events after Stop, but nothing consumes them.
func (e *Engine[T]) Publish(data T, eventType uint32) int64 {
	return e.PublishWithFlags(data, eventType, 0)
}

// PublishWithFlags is Publish with caller-defined flag bits on the event.
func (e *Engine[T]) PublishWithFlags(data T, eventType, flags uint32) int64 {
	seq := e.ring.Claim()
	e.commit(seq, data, eventType, flags)
	return seq
}

// TryPublish publishes data only if a slot is free right now.
func (e *Engine[T]) TryPublish(data T, eventType uint32) (int64, bool) {
	seq, ok := e.ring.TryClaim()
	if !ok {
		return sequence.Initial, false
	}
	e.commit(seq, data, eventType, 0)
	return seq, true
}

// PublishContext is Publish with a bounded wait for free capacity. It fails
// with ErrClaimTimeout when ctx ends first and with ErrEngineStopped once the
// engine was stopped.
func (e *Engine[T]) PublishContext(ctx context.Context, data T, eventType uint32) (int64, error) {
	if EngineState(e.state.Load()) == StateStopped {
		return sequence.Initial, errorx.ErrEngineStopped
	}
	seq, err := e.ring.ClaimContext(ctx)
	if err != nil {
		return sequence.Initial, err
	}
	e.commit(seq, data, eventType, 0)
	return seq, nil
}

func (e *Engine[T]) commit(seq int64, data T, eventType, flags uint32) {
	ev := e.ring.Slot(seq)
	ev.Sequence = seq
	ev.Timestamp = time.Now()
	ev.Type = eventType
	ev.Flags = flags
	ev.Payload = data
	e.ring.Publish(seq)
	e.published.Add(1)
}

// Stop asks every consume loop to finish what was published so far and
// waits for all of them to exit. It returns the first processor failure, if
// any. Calling Stop again is a no-op.
func (e *Engine[T]) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch EngineState(e.state.Load()) {
	case StateStopped:
		return nil
	case StateIdle:
		retire(e.handlers)
		e.state.Store(int32(StateStopped))
		return nil
	}

	e.shutdown()
	e.logger.Infof("engine %q stopped after publishing %d events", e.opts.Name, e.published.Load())
	if herr := e.first.Load(); herr != nil {
		return herr
	}
	return nil
}

// shutdown clears the running flag and joins every loop, e.mu must be held.
func (e *Engine[T]) shutdown() {
	e.running.Store(false)
	e.wg.Wait()
	e.stoppedAt.Store(time.Now().UnixNano())
	e.state.Store(int32(StateStopped))
	close(e.failures)
	if e.ownPool {
		e.pool.Release()
	}
}

// retire releases the gating cursors of handlers whose loop never ran.
func retire[T any](handlers []*handler[T]) {
	for _, h := range handlers {
		h.processor = nil
		h.cursor.Store(sequence.Retired)
		h.state.Store(int32(HandlerStopped))
	}
}

// Failures delivers every processor failure as it happens. The channel is
// closed by Stop, it is nil before Start.
func (e *Engine[T]) Failures() <-chan *HandlerError {
	e.hmu.RLock()
	defer e.hmu.RUnlock()
	return e.failures
}

// State returns the lifecycle state.
func (e *Engine[T]) State() EngineState {
	return EngineState(e.state.Load())
}

// Capacity returns the ring capacity.
func (e *Engine[T]) Capacity() int64 {
	return e.ring.Capacity()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine[T]) Stats() EngineStats {
	s := EngineStats{
		Name:            e.opts.Name,
		State:           e.State(),
		Capacity:        e.ring.Capacity(),
		Cursor:          e.ring.Cursor(),
		Remaining:       e.ring.Remaining(),
		EventsPublished: e.published.Load(),
		StartedAt:       unixNano(e.startedAt.Load()),
		StoppedAt:       unixNano(e.stoppedAt.Load()),
	}
	e.hmu.RLock()
	s.Handlers = len(e.handlers)
	e.hmu.RUnlock()

	if !s.StartedAt.IsZero() {
		end := s.StoppedAt
		if end.IsZero() {
			end = time.Now()
		}
		s.Uptime = end.Sub(s.StartedAt)
	}
	s.PublishRate = rate(s.EventsPublished, s.StartedAt, s.StoppedAt)
	return s
}

// HandlerStats returns a snapshot of every handler, indexed by handler id.
func (e *Engine[T]) HandlerStats() []ProcessingStats {
	e.hmu.RLock()
	handlers := e.handlers
	e.hmu.RUnlock()

	stats := make([]ProcessingStats, len(handlers))
	for i, h := range handlers {
		stats[i] = h.stats()
	}
	return stats
}
