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

// Package byteslice pools the contiguous regions backing socket receive
// buffers and outbound messages, bucketed by power-of-two capacity.
package byteslice

import (
	"math"
	"math/bits"
	"sync"
	"unsafe"
)

var builtinPool Pool

// Pool holds one sync.Pool per power-of-two capacity class, from 1 up to 2^31 bytes.
type Pool struct {
	classes [32]sync.Pool
}

// Get returns a region of length size from the built-in pool.
func Get(size int) []byte {
	return builtinPool.Get(size)
}

// Put hands the region back to the built-in pool.
func Put(buf []byte) {
	builtinPool.Put(buf)
}

// Get returns a region of length size whose capacity is size rounded up to
// a power of two. The content of a recycled region is not cleared.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	if size > math.MaxInt32 {
		return make([]byte, size)
	}
	class := classOf(uint32(size))
	ptr, _ := p.classes[class].Get().(unsafe.Pointer)
	if ptr == nil {
		return make([]byte, 1<<class)[:size]
	}
	return unsafe.Slice((*byte)(ptr), 1<<class)[:size]
}

// Put stores buf for reuse. Regions that did not come from Get are filed
// under the largest class they can fully serve.
func (p *Pool) Put(buf []byte) {
	size := cap(buf)
	if size == 0 || size > math.MaxInt32 {
		return
	}
	class := classOf(uint32(size))
	if size != 1<<class {
		class--
	}
	p.classes[class].Put(unsafe.Pointer(unsafe.SliceData(buf[:1])))
}

func classOf(n uint32) uint32 {
	return uint32(bits.Len32(n - 1))
}
