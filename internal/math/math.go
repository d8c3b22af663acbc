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

package math

const (
	bitSize = 32 << (^uint(0) >> 63)
	maxInt  = 1<<(bitSize-1) - 1
)

// DecimalLen returns the number of bytes strconv.AppendInt(dst, int64(n), 10)
// appends, the leading '-' of a negative number included.
func DecimalLen(n int) int {
	l := 1
	if n < 0 {
		l++
		// -minInt overflows, count on the unsigned magnitude instead.
		u := uint(-(n + 1)) + 1
		for ; u >= 10; u /= 10 {
			l++
		}
		return l
	}
	for ; n >= 10; n /= 10 {
		l++
	}
	return l
}

// DoubleUntil returns the smallest cur*2^k (k >= 1) that is not less than need.
// A non-positive cur is treated as 1, and the result saturates at the maximum int.
func DoubleUntil(cur, need int) int {
	if cur <= 0 {
		cur = 1
	}
	n := cur
	for {
		if n > maxInt/2 {
			return maxInt
		}
		n <<= 1
		if n >= need {
			return n
		}
	}
}
