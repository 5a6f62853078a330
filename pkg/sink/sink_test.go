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

package sink_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpulse/disruptor"
	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/ring"
	"github.com/marketpulse/disruptor/pkg/sink"
)

type closeBuffer struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return b.closeErr
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestFrameRoundTrip(t *testing.T) {
	ts := time.Unix(1700000000, 123456789)
	ev := &ring.Event[[]byte]{Sequence: 42, Timestamp: ts, Type: 7, Flags: 3, Payload: []byte("EURUSD 1.0842")}

	buf, err := sink.AppendFrame(nil, ev)
	require.NoError(t, err)
	assert.Len(t, buf, sink.HeaderSize+len(ev.Payload))

	f, err := sink.DecodeFrame(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.EqualValues(t, 7, f.Type)
	assert.EqualValues(t, 3, f.Flags)
	assert.EqualValues(t, 42, f.Sequence)
	assert.True(t, ts.Equal(f.Timestamp))
	assert.Equal(t, ev.Payload, f.Payload)
}

func TestDecodeFrameTruncated(t *testing.T) {
	buf, err := sink.AppendFrame(nil, &ring.Event[[]byte]{Payload: []byte("payload")})
	require.NoError(t, err)

	_, err = sink.DecodeFrame(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)

	_, err = sink.DecodeFrame(bytes.NewReader(buf[:sink.HeaderSize-1]))
	assert.ErrorIs(t, err, errorx.ErrShortFrame)

	_, err = sink.DecodeFrame(bytes.NewReader(buf[:len(buf)-1]))
	assert.ErrorIs(t, err, errorx.ErrShortFrame)
}

func TestDecodeFrameUntrustedLength(t *testing.T) {
	buf, err := sink.AppendFrame(nil, &ring.Event[[]byte]{Payload: []byte("abc")})
	require.NoError(t, err)
	// Claim a payload close to 4 GiB while only three bytes follow.
	buf[24], buf[25], buf[26], buf[27] = 0xff, 0xff, 0xff, 0xf0

	_, err = sink.DecodeFrame(bytes.NewReader(buf))
	assert.ErrorIs(t, err, errorx.ErrShortFrame)
}

func TestWriterSinkThroughEngine(t *testing.T) {
	const events = 500

	out := &closeBuffer{}
	s := sink.NewWriterSink(out)

	eng, err := disruptor.NewBuilder[[]byte]().
		WithCapacity(64).
		WithLogger(logging.Nop()).
		WithNamedProcessor("sink", s).
		Build()
	require.NoError(t, err)
	require.NoError(t, eng.Start())

	for i := 0; i < events; i++ {
		eng.Publish([]byte{byte(i), byte(i >> 8)}, uint32(i%4))
	}
	require.NoError(t, eng.Stop())
	require.NoError(t, s.Close())
	assert.True(t, out.closed)
	assert.EqualValues(t, events, s.Frames())
	assert.EqualValues(t, events*(sink.HeaderSize+2), s.Bytes())

	r := bytes.NewReader(out.Bytes())
	for i := 0; i < events; i++ {
		f, err := sink.DecodeFrame(r)
		require.NoError(t, err)
		assert.EqualValues(t, i, f.Sequence)
		assert.EqualValues(t, i%4, f.Type)
		assert.Equal(t, []byte{byte(i), byte(i >> 8)}, f.Payload)
	}
	_, err = sink.DecodeFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterSinkCloseCombinesErrors(t *testing.T) {
	out := &closeBuffer{closeErr: errors.New("close failed")}
	s := sink.NewWriterSink(out)
	require.NoError(t, s.OnEvent(&ring.Event[[]byte]{Payload: []byte("x")}))
	err := s.Close()
	assert.EqualError(t, err, "close failed")
	assert.Equal(t, sink.HeaderSize+1, out.Len())
}

func TestWriterSinkWriteFailureStopsHandler(t *testing.T) {
	s := sink.NewWriterSink(failWriter{})
	payload := bytes.Repeat([]byte{'x'}, 8192)
	err := s.OnEvent(&ring.Event[[]byte]{Payload: payload})
	assert.EqualError(t, err, "broken pipe")
	assert.Zero(t, s.Frames())
}
