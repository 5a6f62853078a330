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

package ring

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/sequence"
	"github.com/marketpulse/disruptor/pkg/wait"
)

func TestNewRejectsInvalidCapacity(t *testing.T) {
	for _, capacity := range []int64{-8, 0, 3, 12, 1000} {
		_, err := New[int](capacity, SingleProducer, nil)
		assert.ErrorIsf(t, err, errorx.ErrInvalidCapacity, "capacity %d", capacity)
	}

	rb, err := New[int](1<<10, SingleProducer, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1<<10, rb.Capacity())
	assert.EqualValues(t, 1<<10-1, rb.Mask())
	assert.EqualValues(t, sequence.Initial, rb.Cursor())
}

func TestClaimPublishRead(t *testing.T) {
	rb, err := New[string](4, SingleProducer, wait.Yield{})
	require.NoError(t, err)
	reader := sequence.NewCounter(sequence.Initial)
	require.NoError(t, rb.AddGatingSequences(reader))

	for i, payload := range []string{"a", "b", "c"} {
		seq := rb.Claim()
		require.EqualValues(t, i, seq)
		ev := rb.Slot(seq)
		ev.Sequence, ev.Payload = seq, payload
		rb.Publish(seq)
	}
	assert.EqualValues(t, 2, rb.Cursor())
	assert.EqualValues(t, 1, rb.Remaining())

	next := reader.Load() + 1
	highest := rb.HighestPublished(next, rb.Cursor())
	var got []string
	for ; next <= highest; next++ {
		got = append(got, rb.Slot(next).Payload)
	}
	reader.Store(highest)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.EqualValues(t, 4, rb.Remaining())
}

func TestClaimBlocksUntilSlowestConsumerAdvances(t *testing.T) {
	const capacity = 8
	rb, err := New[int](capacity, SingleProducer, wait.Yield{})
	require.NoError(t, err)
	reader := sequence.NewCounter(sequence.Initial)
	require.NoError(t, rb.AddGatingSequences(reader))

	for i := 0; i < capacity; i++ {
		seq := rb.Claim()
		rb.Slot(seq).Payload = i
		rb.Publish(seq)
	}

	_, ok := rb.TryClaim()
	require.False(t, ok, "the ninth claim must not succeed while slot 0 is unread")

	var claimed atomic.Int64
	claimed.Store(sequence.Initial)
	done := make(chan struct{})
	go func() {
		defer close(done)
		claimed.Store(rb.Claim())
	}()

	select {
	case <-done:
		t.Fatal("Claim returned while the consumer had not read anything")
	case <-time.After(50 * time.Millisecond):
	}
	assert.EqualValues(t, sequence.Initial, claimed.Load())
	assert.Equal(t, 0, rb.Slot(0).Payload, "unread slot must not be overwritten")

	reader.Store(0)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Claim did not return after the consumer released slot 0")
	}
	assert.EqualValues(t, capacity, claimed.Load())
}

func TestClaimContextTimesOut(t *testing.T) {
	rb, err := New[int](2, SingleProducer, wait.Yield{})
	require.NoError(t, err)
	require.NoError(t, rb.AddGatingSequences(sequence.NewCounter(sequence.Initial)))

	for i := 0; i < 2; i++ {
		rb.Publish(rb.Claim())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	seq, err := rb.ClaimContext(ctx)
	assert.ErrorIs(t, err, errorx.ErrClaimTimeout)
	assert.EqualValues(t, sequence.Initial, seq)

	// A failed bounded claim must not consume a sequence.
	rb.RemoveGatingSequence(rb.GatingSequences()[0])
	seq, err = rb.ClaimContext(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, seq)
}

func TestGatingRegistration(t *testing.T) {
	rb, err := New[int](8, SingleProducer, nil)
	require.NoError(t, err)

	c := sequence.NewCounter(sequence.Initial)
	require.NoError(t, rb.AddGatingSequences(c))
	assert.ErrorIs(t, rb.AddGatingSequences(c), errorx.ErrInvalidGating)
	assert.ErrorIs(t, rb.AddGatingSequences(nil), errorx.ErrInvalidGating)
	assert.Len(t, rb.GatingSequences(), 1)

	assert.True(t, rb.RemoveGatingSequence(c))
	assert.False(t, rb.RemoveGatingSequence(c))
	assert.Empty(t, rb.GatingSequences())
}

func TestRetiredConsumerDoesNotGate(t *testing.T) {
	rb, err := New[int](4, SingleProducer, wait.Yield{})
	require.NoError(t, err)
	c := sequence.NewCounter(sequence.Initial)
	require.NoError(t, rb.AddGatingSequences(c))
	c.Store(sequence.Retired)

	for i := 0; i < 16; i++ {
		seq, ok := rb.TryClaim()
		require.Truef(t, ok, "claim %d", i)
		rb.Publish(seq)
	}
	assert.EqualValues(t, 15, rb.Cursor())
}

func TestMultiProducerClaimsAreUniqueAndContiguous(t *testing.T) {
	const (
		producers = 4
		perWorker = 5000
		capacity  = 1 << 8
	)
	rb, err := New[int64](capacity, MultiProducer, wait.Yield{})
	require.NoError(t, err)
	assert.Equal(t, MultiProducer, rb.Mode())
	reader := sequence.NewCounter(sequence.Initial)
	require.NoError(t, rb.AddGatingSequences(reader))

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				seq := rb.Claim()
				rb.Slot(seq).Payload = seq
				rb.Publish(seq)
			}
		}()
	}

	total := int64(producers * perWorker)
	next := int64(0)
	for next < total {
		highest := rb.HighestPublished(next, rb.Cursor())
		for ; next <= highest; next++ {
			require.EqualValues(t, next, rb.Slot(next).Payload, "slot read out of order or before it was written")
		}
		reader.Store(highest)
	}
	wg.Wait()
	assert.EqualValues(t, total-1, rb.Cursor())
}

func TestHighestPublishedStopsAtGap(t *testing.T) {
	rb, err := New[int](8, MultiProducer, nil)
	require.NoError(t, err)

	s0, s1, s2 := rb.Claim(), rb.Claim(), rb.Claim()
	rb.Publish(s0)
	rb.Publish(s2)
	assert.EqualValues(t, s0, rb.HighestPublished(0, rb.Cursor()))

	rb.Publish(s1)
	assert.EqualValues(t, s2, rb.HighestPublished(0, rb.Cursor()))
	assert.EqualValues(t, s2, rb.HighestPublished(s1, rb.Cursor()))
}
