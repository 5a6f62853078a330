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

import "github.com/marketpulse/disruptor/pkg/ring"

// Event is the alias of ring.Event.
type Event[T any] = ring.Event[T]

// Processor is user-supplied logic invoked once per event, in sequence
// order, from the goroutine of the handler it was registered with.
//
// The event points into the ring and is reused on the next lap: a processor
// must copy whatever it keeps past OnEvent. A returned error stops this
// processor's handler and is never retried.
type Processor[T any] interface {
	OnEvent(ev *Event[T]) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc[T any] func(ev *Event[T]) error

// OnEvent implements Processor.
func (f ProcessorFunc[T]) OnEvent(ev *Event[T]) error {
	return f(ev)
}

// Starter is implemented by processors that prepare per-handler state. OnStart
// runs on the handler goroutine before the first event, an error stops the
// handler before it reads anything.
type Starter interface {
	OnStart(handler int) error
}

// Shutdowner is implemented by processors that release resources when their
// handler exits, whatever the reason.
type Shutdowner interface {
	OnShutdown(handler int)
}
