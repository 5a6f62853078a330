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
	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/pool/goroutine"
	"github.com/marketpulse/disruptor/pkg/ring"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// DefaultCapacity is the ring capacity used when none is configured, 1M slots.
const DefaultCapacity = 1 << 20

// ProducerMode is the alias of ring.ProducerMode.
type ProducerMode = ring.ProducerMode

const (
	// SingleProducer requires Publish to be called from one goroutine at a time.
	SingleProducer = ring.SingleProducer
	// MultiProducer lets any number of goroutines call Publish concurrently.
	MultiProducer = ring.MultiProducer
)

// Visibility decides how far ahead of its peers a processor may read.
type Visibility int

const (
	// VisibilityIndependent lets every processor read up to the producer's
	// published cursor regardless of the others.
	VisibilityIndependent Visibility = iota

	// VisibilityLockstep keeps every processor at most one event ahead of
	// the slowest of its peers.
	VisibilityLockstep
)

// String implements fmt.Stringer.
func (v Visibility) String() string {
	if v == VisibilityLockstep {
		return "lockstep"
	}
	return "independent"
}

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	if opts.Capacity == 0 && !opts.capacitySet {
		opts.Capacity = DefaultCapacity
	}
	if opts.WaitStrategy == nil {
		opts.WaitStrategy = wait.Default()
	}
	if opts.IdleStrategy == nil {
		opts.IdleStrategy = wait.Yield{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefaultLogger()
	}
	return opts
}

// Options are set when the engine is created.
type Options struct {
	// Name identifies the engine in logs and stats.
	Name string

	// Capacity is the number of ring slots, it must be a power of two.
	// Defaults to DefaultCapacity unless set through WithCapacity.
	Capacity    int64
	capacitySet bool

	// ProducerMode selects single-writer claiming or CAS-arbitrated claiming.
	ProducerMode ProducerMode

	// Visibility selects how far processors may run ahead of each other.
	Visibility Visibility

	// WaitStrategy is applied by a producer waiting for free capacity.
	// Defaults to wait.Backoff.
	WaitStrategy wait.Strategy

	// IdleStrategy is applied by a processor that found no new event.
	// Defaults to wait.Yield.
	IdleStrategy wait.Strategy

	// LockOSThread pins every consume loop to its own OS thread.
	LockOSThread bool

	// Logger is the logger the engine writes to, defaults to logging.GetDefaultLogger.
	Logger logging.Logger

	// WorkerPool hosts the consume loops. It must be able to run one task per
	// processor at once, Start fails with ErrInsufficientWorkers otherwise.
	// When nil the engine creates a pool on Start and
	// releases it on Stop.
	WorkerPool *goroutine.Pool
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithName sets up the engine name.
func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

// WithCapacity sets up the ring capacity.
func WithCapacity(capacity int64) Option {
	return func(opts *Options) {
		opts.Capacity = capacity
		opts.capacitySet = true
	}
}

// WithProducerMode sets up the claim protocol.
func WithProducerMode(mode ProducerMode) Option {
	return func(opts *Options) {
		opts.ProducerMode = mode
	}
}

// WithVisibility sets up the multi-processor visibility policy.
func WithVisibility(visibility Visibility) Option {
	return func(opts *Options) {
		opts.Visibility = visibility
	}
}

// WithWaitStrategy sets up the producer back-off.
func WithWaitStrategy(strategy wait.Strategy) Option {
	return func(opts *Options) {
		opts.WaitStrategy = strategy
	}
}

// WithIdleStrategy sets up the processor polling discipline.
func WithIdleStrategy(strategy wait.Strategy) Option {
	return func(opts *Options) {
		opts.IdleStrategy = strategy
	}
}

// WithLockOSThread sets up LockOSThread mode for consume loops.
func WithLockOSThread(lockOSThread bool) Option {
	return func(opts *Options) {
		opts.LockOSThread = lockOSThread
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithWorkerPool sets up the pool hosting consume loops.
func WithWorkerPool(pool *goroutine.Pool) Option {
	return func(opts *Options) {
		opts.WorkerPool = pool
	}
}
