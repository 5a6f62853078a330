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

// Package sink provides processors that hand events to a transport.
//
// WriterSink encodes each []byte event into a self-describing frame and writes
// it to an io.Writer. A frame is laid out big-endian as
//
//	type u32 | flags u32 | sequence u64 | timestamp i64 | length u32 | payload
//
// where timestamp is the publish time in Unix nanoseconds.
package sink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	errorx "github.com/marketpulse/disruptor/pkg/errors"
	"github.com/marketpulse/disruptor/pkg/pool/bytebuffer"
	"github.com/marketpulse/disruptor/pkg/ring"
)

// HeaderSize is the fixed frame header length.
const HeaderSize = 4 + 4 + 8 + 8 + 4

// MaxPayload is the largest payload a frame can carry.
const MaxPayload uint64 = 1<<32 - 1

// Frame is a decoded frame.
type Frame struct {
	Type      uint32
	Flags     uint32
	Sequence  int64
	Timestamp time.Time
	Payload   []byte
}

// AppendFrame appends the encoding of ev to dst.
func AppendFrame(dst []byte, ev *ring.Event[[]byte]) ([]byte, error) {
	if uint64(len(ev.Payload)) > MaxPayload {
		return dst, fmt.Errorf("sink: payload of %d bytes exceeds %d", len(ev.Payload), MaxPayload)
	}
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:], ev.Type)
	binary.BigEndian.PutUint32(header[4:], ev.Flags)
	binary.BigEndian.PutUint64(header[8:], uint64(ev.Sequence))
	binary.BigEndian.PutUint64(header[16:], uint64(ev.Timestamp.UnixNano()))
	binary.BigEndian.PutUint32(header[24:], uint32(len(ev.Payload)))
	dst = append(dst, header[:]...)
	return append(dst, ev.Payload...), nil
}

// DecodeFrame reads one frame from r. It returns io.EOF when r is exhausted at
// a frame boundary and ErrShortFrame when a frame is truncated.
func DecodeFrame(r io.Reader) (Frame, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Frame{}, errorx.ErrShortFrame
		}
		return Frame{}, err
	}
	f := Frame{
		Type:      binary.BigEndian.Uint32(header[0:]),
		Flags:     binary.BigEndian.Uint32(header[4:]),
		Sequence:  int64(binary.BigEndian.Uint64(header[8:])),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(header[16:]))),
	}
	length := int64(binary.BigEndian.Uint32(header[24:]))

	// The length field is untrusted, the buffer only grows with what is read.
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	n, err := buf.ReadFrom(io.LimitReader(r, length))
	if err != nil {
		return Frame{}, err
	}
	if n < length {
		return Frame{}, errorx.ErrShortFrame
	}
	f.Payload = make([]byte, n)
	copy(f.Payload, buf.B)
	return f, nil
}

// WriterSink is a processor writing every event as a frame. It is driven by
// a single handler; its counters may be read from any goroutine.
type WriterSink struct {
	w      *bufio.Writer
	closer io.Closer

	frames atomic.Uint64
	bytes  atomic.Uint64
}

// NewWriterSink returns a sink buffering writes to w. If w is an io.Closer it
// is closed by Close.
func NewWriterSink(w io.Writer) *WriterSink {
	s := &WriterSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OnEvent implements disruptor.Processor.
func (s *WriterSink) OnEvent(ev *ring.Event[[]byte]) error {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	var err error
	if buf.B, err = AppendFrame(buf.B, ev); err != nil {
		return err
	}
	n, err := s.w.Write(buf.B)
	s.bytes.Add(uint64(n))
	if err != nil {
		return err
	}
	s.frames.Add(1)
	return nil
}

// OnShutdown flushes whatever is buffered when the handler exits.
func (s *WriterSink) OnShutdown(int) {
	_ = s.w.Flush()
}

// Flush writes buffered frames to the underlying writer.
func (s *WriterSink) Flush() error {
	return s.w.Flush()
}

// Close flushes and closes the underlying writer. It must not run while the
// handler driving the sink is still running.
func (s *WriterSink) Close() (err error) {
	err = s.w.Flush()
	if s.closer != nil {
		err = multierr.Append(err, s.closer.Close())
	}
	return
}

// Frames returns the number of frames written.
func (s *WriterSink) Frames() uint64 {
	return s.frames.Load()
}

// Bytes returns the number of bytes handed to the buffer.
func (s *WriterSink) Bytes() uint64 {
	return s.bytes.Load()
}
