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

import "fmt"

// HandlerError is the exit result of a consume loop that stopped because its
// processor failed.
type HandlerError struct {
	// Handler is the id AddProcessor returned.
	Handler int
	// Name is the processor name, empty if it was added unnamed.
	Name string
	// Sequence is the event being processed, -1 if the processor failed in OnStart.
	Sequence int64
	// Err is what the processor returned, or a wrapped ErrProcessorPanic.
	Err error
}

// Error implements error.
func (e *HandlerError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Handler)
	}
	return fmt.Sprintf("disruptor: handler %s failed at sequence %d: %v", name, e.Sequence, e.Err)
}

// Unwrap returns the processor error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
