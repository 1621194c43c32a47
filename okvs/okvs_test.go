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

package okvs

import (
	"math"
	"testing"

	"github.com/oblivkv/okvs/block"
	"github.com/oblivkv/okvs/hashable"
	"github.com/oblivkv/okvs/prng"
)

// TestTinyDeterministicScenario is the spec's canonical worked
// example: 1024 sequential integer keys, values Block(i*i).
func TestTinyDeterministicScenario(t *testing.T) {
	const n = 1024
	const eps = 0.01
	const width = 87

	pairs := make([]Pair[hashable.Uint64Key, block.Block], n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair[hashable.Uint64Key, block.Block]{
			Key:   hashable.Uint64Key(i),
			Value: block.FromUint64(uint64(i * i)),
		}
	}

	s, err := Encode(pairs, eps, width)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(s) != 1035 {
		t.Fatalf("len(S) = %d, want 1035", len(s))
	}
	for i := 0; i < n; i++ {
		got := Decode(s, hashable.Uint64Key(i), len(s), width)
		want := block.FromUint64(uint64(i * i))
		if !got.Equal(want) {
			t.Fatalf("decode(%d) = %v, want %v", i, got, want)
		}
	}
}

// TestBlockKeyedRandomScenario mirrors the spec's second worked
// example at reduced scale so the test suite stays fast; the
// properties it checks (successful encode, decode_many round-trips)
// do not depend on n.
func TestBlockKeyedRandomScenario(t *testing.T) {
	const n = 1 << 12
	const eps = 0.03
	const width = 256

	gen := prng.NewFromSeed(block.FromUint64(1))
	keys := make([]block.Block, n)
	values := make([]block.Block, n)
	pairs := make([]Pair[block.Block, block.Block], n)
	seen := make(map[block.Block]bool, n)
	for i := 0; i < n; i++ {
		var k block.Block
		for {
			k = gen.Block()
			if !seen[k] {
				seen[k] = true
				break
			}
		}
		v := gen.Block()
		keys[i] = k
		values[i] = v
		pairs[i] = Pair[block.Block, block.Block]{Key: k, Value: v}
	}

	s, err := Encode(pairs, eps, width)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got := DecodeMany(s, keys, len(s), width)
	for i := range got {
		if !got[i].Equal(values[i]) {
			t.Fatalf("decode_many[%d] = %v, want %v", i, got[i], values[i])
		}
	}
}

// TestSingularDetection constructs duplicate keys (the same row
// repeated), which must make the matrix singular.
func TestSingularDetection(t *testing.T) {
	const eps = 0.5
	const width = 8

	key := hashable.Uint64Key(7)
	pairs := []Pair[hashable.Uint64Key, block.Block]{
		{Key: key, Value: block.FromUint64(1)},
		{Key: key, Value: block.FromUint64(2)},
		{Key: key, Value: block.FromUint64(3)},
		{Key: key, Value: block.FromUint64(4)},
	}
	_, err := Encode(pairs, eps, width)
	if err != ErrSingular {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

// TestParallelDecodeEquivalence checks that DecodeManyParallel agrees
// with DecodeMany exactly.
func TestParallelDecodeEquivalence(t *testing.T) {
	const n = 2000
	const eps = 0.05
	const width = 128

	gen := prng.NewFromSeed(block.FromUint64(9))
	pairs := make([]Pair[block.Block, block.Block], n)
	keys := make([]block.Block, n)
	seen := make(map[block.Block]bool, n)
	for i := 0; i < n; i++ {
		var k block.Block
		for {
			k = gen.Block()
			if !seen[k] {
				seen[k] = true
				break
			}
		}
		v := gen.Block()
		keys[i] = k
		pairs[i] = Pair[block.Block, block.Block]{Key: k, Value: v}
	}

	s, err := Encode(pairs, eps, width)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	sequential := DecodeMany(s, keys, len(s), width)
	parallel := DecodeManyParallel(s, keys, len(s), width)
	for i := range sequential {
		if !sequential[i].Equal(parallel[i]) {
			t.Fatalf("parallel decode diverged at %d: %v != %v", i, parallel[i], sequential[i])
		}
	}
}

// TestNonMemberPseudoRandomness checks the per-bit bias of decoded
// values for keys never encoded, over many samples, stays within a 3
// sigma band of the expected 50% for a fair bit.
func TestNonMemberPseudoRandomness(t *testing.T) {
	const n = 2000
	const eps = 0.1
	const width = 128
	const samples = 10000

	gen := prng.NewFromSeed(block.FromUint64(55))
	pairs := make([]Pair[block.Block, block.Block], n)
	member := make(map[block.Block]bool, n)
	for i := 0; i < n; i++ {
		k := gen.Block()
		member[k] = true
		pairs[i] = Pair[block.Block, block.Block]{Key: k, Value: gen.Block()}
	}
	s, err := Encode(pairs, eps, width)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var ones [64]int
	count := 0
	for count < samples {
		k := gen.Block()
		if member[k] {
			continue
		}
		v := Decode(s, k, len(s), width)
		for b := 0; b < 64; b++ {
			if (v.Lo>>uint(b))&1 == 1 {
				ones[b]++
			}
		}
		count++
	}

	// sigma for a binomial(samples, 0.5) proportion
	sigma := 0.5 / math.Sqrt(float64(samples))
	for b, c := range ones {
		p := float64(c) / float64(samples)
		if p < 0.5-3*sigma || p > 0.5+3*sigma {
			t.Fatalf("bit %d biased: p=%v outside 3-sigma band around 0.5", b, p)
		}
	}
}
