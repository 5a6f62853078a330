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

package wait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffEscalates(t *testing.T) {
	b := Backoff{SpinTries: 2, YieldTries: 2, MaxSleep: 2 * time.Millisecond}

	start := time.Now()
	for attempt := 0; attempt < 4; attempt++ {
		b.Idle(attempt)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond, "spin and yield phases must not sleep")

	start = time.Now()
	b.Idle(100)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond, "sleep phase is capped at MaxSleep, not below it")
}

func TestSleeping(t *testing.T) {
	start := time.Now()
	Sleeping{Duration: time.Millisecond}.Idle(0)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestParse(t *testing.T) {
	for name, want := range map[string]Strategy{
		"":          Backoff{},
		"backoff":   Backoff{},
		"yield":     Yield{},
		"busy-spin": BusySpin{},
	} {
		got, ok := Parse(name)
		require.Truef(t, ok, "strategy %q", name)
		assert.Equal(t, want, got)
	}

	s, ok := Parse("sleeping")
	require.True(t, ok)
	assert.IsType(t, Sleeping{}, s)

	_, ok = Parse("blocking")
	assert.False(t, ok)
}
