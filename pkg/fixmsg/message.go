// Copyright (c) 2026 The Tinyfix Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fixmsg builds outbound tag/value messages in place.
//
// A Message owns one contiguous region and a write cursor. Fields are
// appended as `tag=value` followed by the 0x01 separator, either through the
// copying SetField family or by writing straight into the region obtained
// from WriteHead/ReserveBlock and committing it with Advance. The region
// doubles whenever a write would not fit; offsets survive the move, slices
// handed out earlier do not.
package fixmsg

import (
	"io"
	"strconv"

	"github.com/tinyfix/tinyfix/internal/math"
	"github.com/tinyfix/tinyfix/pkg/errors"
	bbPool "github.com/tinyfix/tinyfix/pkg/pool/bytebuffer"
	bsPool "github.com/tinyfix/tinyfix/pkg/pool/byteslice"
)

const (
	// DefaultAllocSize is the capacity of a Message created by New.
	DefaultAllocSize = 128
	// Separator terminates every field.
	Separator byte = 0x01
)

// TrailerFunc appends the trailer of a finished message, see Message.GenTail.
type TrailerFunc func(m *Message)

// Options are the knobs of a Message.
type Options struct {
	// Trailer is run by GenTail, nil means no trailer is generated.
	Trailer TrailerFunc
}

// Option sets up an Options field.
type Option func(opts *Options)

// WithTrailer sets the trailer generator run by GenTail.
func WithTrailer(fn TrailerFunc) Option {
	return func(opts *Options) {
		opts.Trailer = fn
	}
}

// Block locates committed bytes by offset, so that it keeps pointing at the
// same content after the region grows.
type Block struct {
	Off int
	Len int
}

// Message is a growable outbound message. It is not safe for concurrent use.
type Message struct {
	buf     []byte // len(buf) is the capacity, bytes past tail are scratch space
	tail    int    // first uncommitted byte
	grows   int
	trailer TrailerFunc
}

// New returns an empty message with DefaultAllocSize bytes of capacity.
func New(opts ...Option) *Message {
	return NewSize(DefaultAllocSize, opts...)
}

// NewSize returns an empty message with size bytes of capacity,
// a non-positive size falls back to DefaultAllocSize.
func NewSize(size int, opts ...Option) *Message {
	if size <= 0 {
		size = DefaultAllocSize
	}
	options := new(Options)
	for _, opt := range opts {
		opt(options)
	}
	buf := bsPool.Get(size)
	clear(buf)
	return &Message{buf: buf, trailer: options.Trailer}
}

// WriteHead returns the cursor offset and the uncommitted window behind it.
// Nothing written into the window is part of the message until Advance.
//
// The window aliases the current region: any call that may grow the message
// (Advance, ReserveBlock, SetField...) invalidates it, the offset stays valid.
func (m *Message) WriteHead() (off int, window []byte) {
	return m.tail, m.buf[m.tail:]
}

// Advance commits n bytes starting at the previous write head. When n
// exceeds the free space the region grows first and the extra bytes are zero.
func (m *Message) Advance(n int) {
	if n < 0 {
		panic(errors.ErrNegativeSize)
	}
	m.ensure(n)
	m.tail += n
}

// ReserveBlock commits n bytes at the cursor and returns where they are,
// the caller is expected to fill them through At before anything else
// touches the message.
func (m *Message) ReserveBlock(n int) Block {
	if n < 0 {
		panic(errors.ErrNegativeSize)
	}
	m.ensure(n)
	b := Block{Off: m.tail, Len: n}
	m.tail += n
	return b
}

// At resolves b against the current region.
func (m *Message) At(b Block) []byte {
	return m.buf[b.Off : b.Off+b.Len : b.Off+b.Len]
}

// SetField appends tag=value and the separator.
//
// It is the copying path kept for field-oriented callers, WriteHead/Advance
// and ReserveBlock avoid the copy.
func (m *Message) SetField(tag int, value string) {
	n := math.DecimalLen(tag) + len(value) + 2
	m.ensure(n)
	p := strconv.AppendInt(m.buf[:m.tail], int64(tag), 10)
	p = append(p, '=')
	p = append(p, value...)
	p = append(p, Separator)
	m.commitFormatted(p, n)
}

// SetFieldBytes is SetField for a byte slice value.
func (m *Message) SetFieldBytes(tag int, value []byte) {
	n := math.DecimalLen(tag) + len(value) + 2
	m.ensure(n)
	p := strconv.AppendInt(m.buf[:m.tail], int64(tag), 10)
	p = append(p, '=')
	p = append(p, value...)
	p = append(p, Separator)
	m.commitFormatted(p, n)
}

// SetFieldInt appends tag=v with v in decimal.
func (m *Message) SetFieldInt(tag, v int) {
	n := math.DecimalLen(tag) + math.DecimalLen(v) + 2
	m.ensure(n)
	p := strconv.AppendInt(m.buf[:m.tail], int64(tag), 10)
	p = append(p, '=')
	p = strconv.AppendInt(p, int64(v), 10)
	p = append(p, Separator)
	m.commitFormatted(p, n)
}

// commitFormatted moves the cursor past a field formatted in place.
// The region was grown to fit n bytes, so appending must not have moved it.
func (m *Message) commitFormatted(p []byte, n int) {
	if len(p) != m.tail+n || &p[0] != &m.buf[0] {
		panic("fixmsg: formatted field length disagrees with its predicted length")
	}
	m.tail += n
}

// GenTail runs the trailer generator configured with WithTrailer, it does
// nothing by default.
func (m *Message) GenTail() {
	if m.trailer != nil {
		m.trailer(m)
	}
}

// Len returns the number of committed bytes.
func (m *Message) Len() int {
	return m.tail
}

// Cap returns the capacity of the current region.
func (m *Message) Cap() int {
	return len(m.buf)
}

// Available returns how many bytes fit before the region has to grow.
func (m *Message) Available() int {
	return len(m.buf) - m.tail
}

// Grows tells how many times the region has been reallocated.
func (m *Message) Grows() int {
	return m.grows
}

// Bytes returns the committed bytes, valid until the message grows or is released.
func (m *Message) Bytes() []byte {
	return m.buf[:m.tail:m.tail]
}

// WriteTo implements io.WriterTo.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.buf[:m.tail])
	if err == nil && n < m.tail {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// ByteBuffer returns a pooled copy of the committed bytes, release it with bytebuffer.Put.
func (m *Message) ByteBuffer() *bbPool.ByteBuffer {
	return bbPool.From(m.buf[:m.tail])
}

// Reset empties the message and keeps its region.
func (m *Message) Reset() {
	clear(m.buf[:m.tail])
	m.tail = 0
}

// Release hands the region back to the pool, the message must not be used afterwards.
func (m *Message) Release() {
	bsPool.Put(m.buf)
	m.buf = nil
	m.tail = 0
}

// ensure makes room for n more bytes past the cursor.
func (m *Message) ensure(n int) {
	if n <= len(m.buf)-m.tail {
		return
	}
	m.grow(m.tail + n)
}

// grow moves the region into one of the smallest doubled capacity holding
// need bytes. The whole old region is carried over, so bytes written into the
// window before an Advance that grows survive at the same offsets.
// The old region is not recycled: windows returned by WriteHead may still
// point into it.
func (m *Message) grow(need int) {
	newBuf := bsPool.Get(math.DoubleUntil(len(m.buf), need))
	n := copy(newBuf, m.buf)
	clear(newBuf[n:])
	m.buf = newBuf
	m.grows++
}
