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

// Package rowset gives tests an independent representation of a row's
// band to cross-check the hand-rolled word-packed masking logic in
// hashable.RowK against: it reinterprets a packed offsets[] word
// sequence as a bitset.BitSet and builds the "should be set" reference
// mask the same way, so a test can compare the two structures directly
// rather than re-deriving the same bit arithmetic a second time by
// hand.
package rowset

import "github.com/bits-and-blooms/bitset"

// BandMask returns the reference bitset for a row: bits
// [startIndex, startIndex+width) set within an m-bit universe.
func BandMask(m, startIndex, width int) *bitset.BitSet {
	b := bitset.New(uint(m))
	for i := startIndex; i < startIndex+width; i++ {
		b.Set(uint(i))
	}
	return b
}

// FromOffsets reinterprets a row's packed offsets[] words as a
// bitset.BitSet over the same m-bit universe BandMask uses, so the two
// can be compared with a plain bitset equality/subset check.
func FromOffsets(m, startIndex int, offsets []uint64) *bitset.BitSet {
	b := bitset.New(uint(m))
	base := 64 * (startIndex / 64)
	for w, word := range offsets {
		for bit := 0; bit < 64; bit++ {
			if word&(uint64(1)<<uint(bit)) == 0 {
				continue
			}
			pos := base + 64*w + bit
			if pos >= 0 && pos < m {
				b.Set(uint(pos))
			}
		}
	}
	return b
}

// IsSubsetOf reports whether every bit set in a is also set in b,
// i.e. whether a's band support lies entirely within b's.
func IsSubsetOf(a, b *bitset.BitSet) bool {
	for i, ok := a.NextSet(0); ok; i, ok = a.NextSet(i + 1) {
		if !b.Test(i) {
			return false
		}
	}
	return true
}
