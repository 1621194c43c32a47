// Copyright (C) 2024 OblivKV Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build amd64
// +build amd64

package wordxor

import "golang.org/x/sys/cpu"

// xorInto is resolved once at init time to the widest lane-unrolled
// kernel the running CPU supports. Every variant below is word-for-word
// equivalent to the scalar loop; unrolling only changes how many words
// are live between loop-condition checks, mirroring the SSE2/AVX2/AVX512
// register widths the vectorized forms stand in for.
var xorInto func(dst, src []uint64)

func init() {
	switch {
	case cpu.X86.HasAVX512F:
		xorInto = xorInto8
	case cpu.X86.HasAVX2:
		xorInto = xorInto4
	case cpu.X86.HasSSE2:
		xorInto = xorInto2
	default:
		xorInto = xorIntoScalar
	}
}

func xorIntoScalar(dst, src []uint64) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// xorInto2 XORs two words per iteration, standing in for an SSE2 128-bit lane.
func xorInto2(dst, src []uint64) {
	n := len(dst)
	i := 0
	for ; i+2 <= n; i += 2 {
		dst[i+0] ^= src[i+0]
		dst[i+1] ^= src[i+1]
	}
	for ; i < n; i++ {
		dst[i] ^= src[i]
	}
}

// xorInto4 XORs four words per iteration, standing in for an AVX2 256-bit lane.
func xorInto4(dst, src []uint64) {
	n := len(dst)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i+0] ^= src[i+0]
		dst[i+1] ^= src[i+1]
		dst[i+2] ^= src[i+2]
		dst[i+3] ^= src[i+3]
	}
	for ; i < n; i++ {
		dst[i] ^= src[i]
	}
}

// xorInto8 XORs eight words per iteration, standing in for an AVX512 512-bit lane.
func xorInto8(dst, src []uint64) {
	n := len(dst)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i+0] ^= src[i+0]
		dst[i+1] ^= src[i+1]
		dst[i+2] ^= src[i+2]
		dst[i+3] ^= src[i+3]
		dst[i+4] ^= src[i+4]
		dst[i+5] ^= src[i+5]
		dst[i+6] ^= src[i+6]
		dst[i+7] ^= src[i+7]
	}
	for ; i < n; i++ {
		dst[i] ^= src[i]
	}
}
