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

package bitdot

import (
	"math/rand"
	"testing"
)

// word8 is a tiny GF(2) vector used only to exercise Dot without
// depending on the block package.
type word8 uint8

func (w word8) Xor(other word8) word8        { return w ^ other }
func (w word8) MulBucket(bucket uint64) word8 { return word8(uint64(w) * (bucket & 1)) }

func reference(a uint64, b []word8) word8 {
	var out word8
	n := len(b)
	if n > 64 {
		n = 64
	}
	for i := 0; i < n; i++ {
		if (a>>uint(i))&1 == 1 {
			out = out.Xor(b[i])
		}
	}
	return out
}

func TestDotMatchesReferenceAllLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n <= 130; n++ {
		b := make([]word8, n)
		for i := range b {
			b[i] = word8(rng.Intn(256))
		}
		for trial := 0; trial < 5; trial++ {
			a := rng.Uint64()
			got := Dot(a, b)
			want := reference(a, b)
			if got != want {
				t.Fatalf("n=%d a=%x: got %v want %v", n, a, got, want)
			}
		}
	}
}

func TestDotZeroWordIsZero(t *testing.T) {
	b := []word8{1, 2, 3, 4, 5}
	if got := Dot(uint64(0), b); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestDotEmptySliceIsZero(t *testing.T) {
	if got := Dot[word8](^uint64(0), nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestDotIgnoresBitsBeyondSliceLength(t *testing.T) {
	b := []word8{7, 9}
	// Only bits 0 and 1 can matter; higher bits must be ignored.
	got := Dot(^uint64(0), b)
	want := word8(7 ^ 9)
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDotFullWidthUnrolledPath(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	b := make([]word8, 64)
	for i := range b {
		b[i] = word8(rng.Intn(256))
	}
	for trial := 0; trial < 20; trial++ {
		a := rng.Uint64()
		got := Dot(a, b)
		want := reference(a, b)
		if got != want {
			t.Fatalf("a=%x: got %v want %v", a, got, want)
		}
	}
}
