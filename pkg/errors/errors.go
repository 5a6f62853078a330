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

// Package errors defines common errors for the disruptor engine.
package errors

import "errors"

var (
	// ErrInvalidCapacity occurs when a ring buffer capacity is not a positive power of two.
	ErrInvalidCapacity = errors.New("disruptor: ring capacity must be a positive power of two")
	// ErrRingFull occurs when a non-blocking claim finds no free slot.
	ErrRingFull = errors.New("disruptor: ring buffer is full")
	// ErrClaimTimeout occurs when a bounded claim gives up before a slot was freed.
	ErrClaimTimeout = errors.New("disruptor: timed out waiting for a free slot")
	// ErrInvalidGating occurs when a gating sequence is registered twice or is nil.
	ErrInvalidGating = errors.New("disruptor: invalid gating sequence")
	// ErrEngineRunning occurs when trying to start an engine that is already running.
	ErrEngineRunning = errors.New("disruptor: engine is already running")
	// ErrEngineStarted occurs when registering a processor after the engine was started.
	ErrEngineStarted = errors.New("disruptor: processors must be registered before start")
	// ErrEngineStopped occurs when using an engine after it has been stopped.
	ErrEngineStopped = errors.New("disruptor: engine has been stopped")
	// ErrNoProcessors occurs when starting an engine without any processor.
	ErrNoProcessors = errors.New("disruptor: no processor registered")
	// ErrNilProcessor occurs when trying to register a nil processor.
	ErrNilProcessor = errors.New("disruptor: nil processor is not allowed")
	// ErrProcessorPanic is wrapped by the error reported for a processor that panicked.
	ErrProcessorPanic = errors.New("disruptor: processor panicked")
	// ErrPublisherClosed occurs when submitting to a publisher that has been closed.
	ErrPublisherClosed = errors.New("disruptor: publisher is closed")
	// ErrInsufficientWorkers occurs when an injected worker pool cannot run every handler at once.
	ErrInsufficientWorkers = errors.New("disruptor: worker pool has fewer free workers than handlers")
	// ErrShortFrame occurs when decoding a frame whose header or payload is truncated.
	ErrShortFrame = errors.New("disruptor: short frame")
)
