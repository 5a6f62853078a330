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

package goroutine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolHostsLongLivedLoops(t *testing.T) {
	const loops = 4
	p, err := New(loops)
	require.NoError(t, err)
	defer p.Release()

	release := make(chan struct{})
	var started, finished atomic.Int32
	var wg sync.WaitGroup
	wg.Add(loops)
	for i := 0; i < loops; i++ {
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			started.Add(1)
			<-release
			finished.Add(1)
		}))
	}
	assert.Equal(t, loops, p.Cap())

	close(release)
	wg.Wait()
	assert.EqualValues(t, loops, started.Load())
	assert.EqualValues(t, loops, finished.Load())
}
