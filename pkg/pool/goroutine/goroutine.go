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

// Package goroutine provides the worker pool that hosts the long-lived
// consume loops of event handlers.
package goroutine

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

// ExpiryDuration is the interval time to clean up idle workers.
const ExpiryDuration = 10 * time.Second

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// New instantiates a blocking pool that can host size concurrent handler
// loops. Handler loops live until the engine stops, so the pool must never
// reject a submission: Nonblocking is off.
func New(size int) (*Pool, error) {
	options := ants.Options{ExpiryDuration: ExpiryDuration, Nonblocking: false}
	return ants.NewPool(size, ants.WithOptions(options))
}
