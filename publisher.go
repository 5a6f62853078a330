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
	"sync/atomic"

	"github.com/marketpulse/disruptor/internal/queue"
	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// Publisher lets any number of goroutines feed a SingleProducer engine: it
// queues submissions on a lock-free queue and a single owner goroutine drains
// them into Engine.Publish, so the engine still sees exactly one writer.
//
// No other goroutine may call Publish on the engine while a Publisher feeds it.
type Publisher[T any] struct {
	engine   *Engine[T]
	queue    *queue.LockFree[submission[T]]
	idle     wait.Strategy
	closed   atomic.Bool
	inflight atomic.Int64
	done     chan struct{}
}

type submission[T any] struct {
	data      T
	eventType uint32
	flags     uint32
}

// NewPublisher starts the owner goroutine. A nil idle strategy selects wait.Default.
func NewPublisher[T any](engine *Engine[T], idle wait.Strategy) *Publisher[T] {
	if idle == nil {
		idle = wait.Default()
	}
	p := &Publisher[T]{
		engine: engine,
		queue:  queue.NewLockFree[submission[T]](),
		idle:   idle,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues data for publication. It never blocks; backpressure is
// applied to the owner goroutine instead.
func (p *Publisher[T]) Submit(data T, eventType uint32) error {
	return p.SubmitWithFlags(data, eventType, 0)
}

// SubmitWithFlags is Submit with caller-defined flag bits.
func (p *Publisher[T]) SubmitWithFlags(data T, eventType, flags uint32) error {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)
	if p.closed.Load() {
		return errorx.ErrPublisherClosed
	}
	p.queue.Enqueue(submission[T]{data: data, eventType: eventType, flags: flags})
	return nil
}

// Pending returns the approximate number of queued submissions.
func (p *Publisher[T]) Pending() int {
	return p.queue.Len()
}

// Close rejects further submissions and waits until everything already
// submitted has been published. Calling Close again only waits.
func (p *Publisher[T]) Close() error {
	p.closed.Store(true)
	<-p.done
	return nil
}

func (p *Publisher[T]) run() {
	defer close(p.done)
	for attempt := 0; ; {
		if s, ok := p.queue.Dequeue(); ok {
			attempt = 0
			p.engine.PublishWithFlags(s.data, s.eventType, s.flags)
			continue
		}
		// A submitter that saw the publisher open has either enqueued already
		// or is still counted in inflight.
		if p.closed.Load() && p.inflight.Load() == 0 && p.queue.IsEmpty() {
			return
		}
		p.idle.Idle(attempt)
		attempt++
	}
}
