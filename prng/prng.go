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

// Package prng implements a counter-mode AES-128 pseudo-random
// generator. It exists purely to generate test and benchmark input
// (random keys, random values, random encoding order); nothing in the
// encode/decode hot path depends on it.
package prng

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/dchest/siphash"
	"github.com/oblivkv/okvs/block"
	"github.com/oblivkv/okvs/ints"
)

const bufferBlocks = 512
const bufferWords = 2 * bufferBlocks

// Generator is a counter-mode AES PRNG: the output stream is
// AES_key(0), AES_key(1), AES_key(2), ... with each 128-bit cipher
// block split into two 64-bit words. 512 blocks are generated per
// refill and consumed word by word before the next refill.
type Generator struct {
	cipher  cipherBlock
	counter block.Block
	buf     [bufferWords]uint64
	pos     int
}

type cipherBlock interface {
	Encrypt(dst, src []byte)
}

// NewFromSeed builds a generator whose AES-128 key is the seed
// itself. Two generators built from equal seeds produce identical
// streams.
func NewFromSeed(seed block.Block) *Generator {
	var keyBytes [16]byte
	seed.PutBytes(keyBytes[:])
	c, err := aes.NewCipher(keyBytes[:])
	if err != nil {
		panic("prng: AES-128 requires a 16-byte key: " + err.Error())
	}
	g := &Generator{cipher: c, pos: bufferWords}
	return g
}

// NewFromEntropy builds a generator seeded from the OS entropy
// source. Every call produces a generator with an independent stream.
func NewFromEntropy() (*Generator, error) {
	var seedWords [2]uint64
	if err := ints.RandomFillSlice(seedWords[:]); err != nil {
		return nil, err
	}
	return NewFromSeed(block.Block{Lo: seedWords[0], Hi: seedWords[1]}), nil
}

// SeedFromBytes derives a deterministic 128-bit seed from arbitrary
// input bytes under a fixed SipHash key, letting callers turn e.g. a
// test name or fuzz corpus entry into a reproducible PRNG seed without
// hand-rolling a hash.
func SeedFromBytes(data []byte) block.Block {
	lo, hi := siphash.Hash128(0x6f6b7673, 0x6865616c, data)
	return block.Block{Lo: lo, Hi: hi}
}

func (g *Generator) refill() {
	var ctrBytes, cipherBytes [16]byte
	for i := 0; i < bufferBlocks; i++ {
		g.counter.PutBytes(ctrBytes[:])
		g.cipher.Encrypt(cipherBytes[:], ctrBytes[:])
		g.buf[2*i] = binary.LittleEndian.Uint64(cipherBytes[0:8])
		g.buf[2*i+1] = binary.LittleEndian.Uint64(cipherBytes[8:16])
		g.counter = g.counter.Add(1)
	}
	g.pos = 0
}

// Uint64 returns the next 64-bit word of the stream.
func (g *Generator) Uint64() uint64 {
	if g.pos == bufferWords {
		g.refill()
	}
	v := g.buf[g.pos]
	g.pos++
	return v
}

// Block returns the next whole AES cipher block of the stream as a
// 128-bit value. If pos is odd (an intervening Uint64 call consumed
// only the low word of a cipher block), pos is rounded up to the next
// even index first, so Block always reads a block's two words
// together rather than splicing the tail of one cipher block with the
// head of the next.
func (g *Generator) Block() block.Block {
	if g.pos%2 != 0 {
		g.pos++
	}
	if g.pos == bufferWords {
		g.refill()
	}
	lo := g.buf[g.pos]
	hi := g.buf[g.pos+1]
	g.pos += 2
	return block.Block{Lo: lo, Hi: hi}
}

// Bytes fills dst with pseudo-random bytes, drawn eight at a time from
// Uint64 and truncated on the final partial word.
func (g *Generator) Bytes(dst []byte) {
	for len(dst) >= 8 {
		binary.LittleEndian.PutUint64(dst, g.Uint64())
		dst = dst[8:]
	}
	if len(dst) > 0 {
		var tail [8]byte
		binary.LittleEndian.PutUint64(tail[:], g.Uint64())
		copy(dst, tail[:])
	}
}

// Float64 returns a pseudo-random value in [0, 1), using the top 53
// bits of a draw for full double-precision mantissa coverage.
func (g *Generator) Float64() float64 {
	return float64(g.Uint64()>>11) / (1 << 53)
}

// Bool returns a pseudo-random boolean, consuming the low bit of one
// word of the stream.
func (g *Generator) Bool() bool {
	return g.Uint64()&1 == 1
}
