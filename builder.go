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

	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/math"
	"github.com/marketpulse/disruptor/pkg/pool/goroutine"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// Builder assembles an Engine and its processors fluently.
type Builder[T any] struct {
	options    []Option
	processors []namedProcessor[T]
	err        error
}

type namedProcessor[T any] struct {
	name string
	p    Processor[T]
}

// NewBuilder returns an empty Builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// WithOptions appends raw options.
func (b *Builder[T]) WithOptions(options ...Option) *Builder[T] {
	b.options = append(b.options, options...)
	return b
}

// WithName sets the engine name.
func (b *Builder[T]) WithName(name string) *Builder[T] {
	return b.WithOptions(WithName(name))
}

// WithCapacity sets the ring capacity, which must be a power of two.
func (b *Builder[T]) WithCapacity(capacity int64) *Builder[T] {
	return b.WithOptions(WithCapacity(capacity))
}

// WithCapacityAtLeast rounds n up to the next power of two.
func (b *Builder[T]) WithCapacityAtLeast(n int64) *Builder[T] {
	if n > math.MaxCapacity {
		b.err = fmt.Errorf("disruptor: capacity %d is too large", n)
		return b
	}
	return b.WithCapacity(math.CeilToPowerOfTwo(n))
}

// WithProducerMode sets the claim protocol.
func (b *Builder[T]) WithProducerMode(mode ProducerMode) *Builder[T] {
	return b.WithOptions(WithProducerMode(mode))
}

// WithVisibility sets the visibility policy.
func (b *Builder[T]) WithVisibility(visibility Visibility) *Builder[T] {
	return b.WithOptions(WithVisibility(visibility))
}

// WithWaitStrategy sets the producer back-off.
func (b *Builder[T]) WithWaitStrategy(strategy wait.Strategy) *Builder[T] {
	return b.WithOptions(WithWaitStrategy(strategy))
}

// WithIdleStrategy sets the processor polling discipline.
func (b *Builder[T]) WithIdleStrategy(strategy wait.Strategy) *Builder[T] {
	return b.WithOptions(WithIdleStrategy(strategy))
}

// WithLockOSThread pins consume loops to OS threads.
func (b *Builder[T]) WithLockOSThread(lockOSThread bool) *Builder[T] {
	return b.WithOptions(WithLockOSThread(lockOSThread))
}

// WithLogger injects the logger.
func (b *Builder[T]) WithLogger(logger logging.Logger) *Builder[T] {
	return b.WithOptions(WithLogger(logger))
}

// WithWorkerPool injects the pool hosting consume loops.
func (b *Builder[T]) WithWorkerPool(pool *goroutine.Pool) *Builder[T] {
	return b.WithOptions(WithWorkerPool(pool))
}

// WithProcessor adds an unnamed processor.
func (b *Builder[T]) WithProcessor(p Processor[T]) *Builder[T] {
	return b.WithNamedProcessor("", p)
}

// WithNamedProcessor adds a named processor.
func (b *Builder[T]) WithNamedProcessor(name string, p Processor[T]) *Builder[T] {
	b.processors = append(b.processors, namedProcessor[T]{name: name, p: p})
	return b
}

// Build creates the engine and registers the processors in the order they
// were added, so processor i gets handler id i. The engine is not started.
func (b *Builder[T]) Build() (*Engine[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	eng, err := New[T](b.options...)
	if err != nil {
		return nil, err
	}
	for _, np := range b.processors {
		if _, err = eng.AddNamedProcessor(np.name, np.p); err != nil {
			return nil, err
		}
	}
	return eng, nil
}
