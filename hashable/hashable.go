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

// Package hashable defines the key contract the OKVS needs and derives
// a key's row in the band matrix from it. A key only has to know how
// to append its canonical byte representation to a hasher; everything
// else — row derivation, the Block fast path, convenience wrappers —
// is built once on top of that single method.
package hashable

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/oblivkv/okvs/block"
	"github.com/oblivkv/okvs/internal/aeshash"
)

// Hashable is the contract a key type must satisfy. AppendToHasher
// writes the key's canonical byte encoding to w; it must be injective
// (no two distinct keys may ever write the same bytes) and must write
// the identical bytes every time for the same key value, since encode
// and decode each call it once per key.
type Hashable interface {
	AppendToHasher(w io.Writer)
}

// Uint64Key is a Hashable wrapper around a plain uint64, for OKVS
// instances keyed by small integers (array indices, row numbers)
// rather than by Block.
type Uint64Key uint64

func (k Uint64Key) AppendToHasher(w io.Writer) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	w.Write(buf[:])
}

// BytesKey is a Hashable wrapper around an arbitrary byte slice.
type BytesKey []byte

func (k BytesKey) AppendToHasher(w io.Writer) {
	w.Write(k)
}

// StringKey is a Hashable wrapper around a string.
type StringKey string

func (k StringKey) AppendToHasher(w io.Writer) {
	io.WriteString(w, string(k))
}

// HashTo squeezes n pseudo-random bytes out of key's hasher stream.
// It is a convenience built on the same generic XOF path row
// derivation uses, for callers that want a key-derived byte string
// without going through a full row derivation.
func HashTo[K Hashable](key K, n int) []byte {
	xof := sha3.NewShake256()
	key.AppendToHasher(xof)
	out := make([]byte, n)
	io.ReadFull(xof, out)
	return out
}

// HashToBool derives a single pseudo-random bit from a key.
func HashToBool[K Hashable](key K) bool {
	return HashTo(key, 1)[0]&1 == 1
}

// RowK derives the (start_index, offsets) pair that defines key's row
// in an m-bit-wide band matrix with band width width. Block keys take
// a fast path through fixed-key AES; every other key type goes
// through a SHAKE256 XOF keyed only by the bytes AppendToHasher
// writes.
//
// The two sequential reductions below (count*64, then m-width) are
// preserved exactly as derived, including the fast path's omission of
// the first one: it is a no-op there regardless, since the subsequent
// mod (m-width) does not depend on it.
func RowK[K Hashable](key K, m, width int) (int, []uint64) {
	count := (width-2+64)/64 + 1
	offsets := make([]uint64, count)
	// The raw start index is reduced as an unsigned value, so a raw
	// value with its top bit set never becomes a negative index.
	var rawStart uint64

	if bk, ok := any(key).(block.Block); ok {
		nBlocks := (8 + 8*count + 15) / 16
		buf := make([]byte, 0, nBlocks*16)
		for i := 0; i < nBlocks; i++ {
			b := aeshash.Hash(bk.Add(uint64(i)))
			var bb [16]byte
			b.PutBytes(bb[:])
			buf = append(buf, bb[:]...)
		}
		rawStart = binary.LittleEndian.Uint64(buf[0:8])
		for i := 0; i < count; i++ {
			offsets[i] = binary.LittleEndian.Uint64(buf[8+8*i : 16+8*i])
		}
	} else {
		xof := sha3.NewShake256()
		key.AppendToHasher(xof)

		var startBytes [8]byte
		io.ReadFull(xof, startBytes[:])
		rawStart = binary.LittleEndian.Uint64(startBytes[:])

		offsetBytes := make([]byte, 8*count)
		io.ReadFull(xof, offsetBytes)
		for i := 0; i < count; i++ {
			offsets[i] = binary.LittleEndian.Uint64(offsetBytes[8*i : 8*i+8])
		}

		rawStart = rawStart % uint64(count*64)
	}

	startIndex := int(rawStart % uint64(m-width))
	maskBand(startIndex, width, count, offsets)
	return startIndex, offsets
}

func maskBand(startIndex, width, count int, offsets []uint64) {
	sub := startIndex % 64
	if sub > 0 {
		clearPackedBits(offsets, 0, sub)
	}

	last := (sub + width) / 64
	if last < count-2 {
		panic("hashable: row derivation invariant violated: last < count-2")
	}
	if last < count {
		hi := (startIndex + width) % 64
		clearPackedBits(offsets, last*64+hi, (last+1)*64)
	}
	if last == count-2 {
		clearPackedBits(offsets, (last+1)*64, (last+2)*64)
	}
}

// clearPackedBits clears bits [first, last) of offsets, treating the
// slice as one contiguous bit string with bit 0 at the low bit of
// offsets[0]. Every call site here has first < last by construction, so
// that precondition isn't re-checked.
func clearPackedBits(offsets []uint64, first, last int) {
	firstIdx := first / 64
	lastIdx := (last - 1) / 64
	firstMask := ^uint64(0) << uint(first%64)
	lastMask := ^uint64(0) >> uint(63-(last-1)%64)

	if firstIdx == lastIdx {
		offsets[firstIdx] &^= firstMask & lastMask
		return
	}
	offsets[firstIdx] &^= firstMask
	for i := firstIdx + 1; i < lastIdx; i++ {
		offsets[i] = 0
	}
	offsets[lastIdx] &^= lastMask
}
