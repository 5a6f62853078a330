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

import "time"

// EngineStats is a point-in-time snapshot of an engine.
type EngineStats struct {
	Name            string
	State           EngineState
	Capacity        int64
	Cursor          int64
	Remaining       int64
	Handlers        int
	EventsPublished uint64
	StartedAt       time.Time
	StoppedAt       time.Time
	Uptime          time.Duration
	// PublishRate is events published per second of uptime.
	PublishRate float64
}

// ProcessingStats is a point-in-time snapshot of one handler.
type ProcessingStats struct {
	ID              int
	Name            string
	State           HandlerState
	EventsProcessed uint64
	Errors          uint64
	LastSequence    int64
	StartedAt       time.Time
	LastEventAt     time.Time
	StoppedAt       time.Time
	// Throughput is events processed per second since the handler started.
	Throughput float64
	// Failure is the exit result of a handler whose processor failed.
	Failure *HandlerError
}

func unixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// rate returns n per second between start and end, or now if end is zero.
func rate(n uint64, start, end time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	if end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed
}
