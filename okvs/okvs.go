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

// Package okvs implements an Oblivious Key-Value Store over sparse
// random band matrices in GF(2): Encode packs a set of (key, value)
// pairs into a dense vector S such that Decode recovers each member's
// value with a single XOR-sum over a narrow window of S, and produces
// values indistinguishable from random for non-member keys.
package okvs

import (
	"errors"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/oblivkv/okvs/hashable"
	"github.com/oblivkv/okvs/internal/bitdot"
	"github.com/oblivkv/okvs/internal/wordxor"
)

// Value is the constraint an OKVS's value type must satisfy: GF(2)
// addition (Xor) and conditional selection by a 0/1 scalar
// (MulBucket). block.Block is the typical instantiation; any other
// type with the same algebra works too.
type Value[T any] interface {
	Xor(other T) T
	MulBucket(bucket uint64) T
}

// Pair is one (key, value) input to Encode.
type Pair[K hashable.Hashable, V Value[V]] struct {
	Key   K
	Value V
}

// ErrSingular is returned by Encode when a row's packed band becomes
// entirely zero during triangularization: the matrix this particular
// set of keys produced at this width/epsilon is singular. The caller
// may retry with re-salted keys or a larger width/epsilon.
var ErrSingular = errors.New("okvs: matrix is singular")

type row[V any] struct {
	startIndex int
	offsets    []uint64
	value      V
}

// Size returns the length m of the encoded store Encode would produce
// for n pairs at the given over-provisioning factor.
func Size(n int, eps float64) int {
	return int(math.Ceil(float64(n) * (1 + eps)))
}

// Encode packs pairs into a dense vector S of length Size(len(pairs),
// eps) such that Decode(S, k, m, width) == v for every (k, v) in
// pairs. It panics if m <= width, a programmer error (pick a larger
// eps or smaller width), and returns ErrSingular if the resulting
// matrix cannot be triangularized.
func Encode[K hashable.Hashable, V Value[V]](pairs []Pair[K, V], eps float64, width int) ([]V, error) {
	n := len(pairs)
	m := Size(n, eps)
	if m <= width {
		panic("okvs: m must be greater than width")
	}

	rows := make([]row[V], n)
	for i, p := range pairs {
		start, offsets := hashable.RowK(p.Key, m, width)
		rows[i] = row[V]{startIndex: start, offsets: offsets, value: p.Value}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].startIndex < rows[b].startIndex
	})

	if err := triangularize(rows); err != nil {
		return nil, err
	}
	return backSubstitute(rows, m), nil
}

// triangularize eliminates each row's pivot bit from every later row
// whose band overlaps it, in place. Rows are assumed sorted by
// ascending startIndex.
func triangularize[V Value[V]](rows []row[V]) error {
	for i := range rows {
		j, ok := lowestSetBit(rows[i].offsets)
		if !ok {
			return ErrSingular
		}
		pivotBit := 64*(rows[i].startIndex/64) + j

		baseI := rows[i].startIndex / 64
		for k := i + 1; k < len(rows) && rows[k].startIndex <= pivotBit; k++ {
			idOffset := rows[k].startIndex/64 - baseI
			wordIdx := j/64 - idOffset
			if wordIdx < 0 || wordIdx >= len(rows[k].offsets) {
				continue
			}
			if rows[k].offsets[wordIdx]&(uint64(1)<<uint(j%64)) == 0 {
				continue
			}
			n := len(rows[i].offsets) - idOffset
			wordxor.XorInto(rows[k].offsets[:n], rows[i].offsets[idOffset:idOffset+n])
			rows[k].value = rows[k].value.Xor(rows[i].value)
		}
	}
	return nil
}

// backSubstitute produces S by walking rows in reverse pivot order,
// each time reading only the part of S already filled by
// higher-indexed rows.
func backSubstitute[V Value[V]](rows []row[V], m int) []V {
	s := make([]V, m)
	for i := len(rows) - 1; i >= 0; i-- {
		r := &rows[i]
		j, ok := lowestSetBit(r.offsets)
		if !ok {
			panic("okvs: row lost its pivot after triangularization, internal invariant violated")
		}
		base := r.startIndex / 64
		p := 64*base + j

		sum := r.value
		for k, word := range r.offsets {
			wordStart := (base + k) * 64
			if wordStart >= m {
				break
			}
			end := wordStart + 64
			if end > m {
				end = m
			}
			sum = sum.Xor(bitdot.Dot(word, s[wordStart:end]))
		}
		s[p] = sum
	}
	return s
}

// lowestSetBit returns the lowest set bit position within the packed
// word sequence offsets, measured from bit 0 of offsets[0], and
// whether any bit was set at all.
func lowestSetBit(offsets []uint64) (int, bool) {
	for w, word := range offsets {
		if word == 0 {
			continue
		}
		return 64*w + trailingZeros64(word), true
	}
	return 0, false
}

func trailingZeros64(w uint64) int {
	n := 0
	for w&1 == 0 {
		w >>= 1
		n++
	}
	return n
}

// Decode recovers the value associated with key from the encoded
// store s, or an indistinguishable-from-random value if key was not
// part of the pairs Encode built s from. m and width must match the
// values Encode was called with.
func Decode[K hashable.Hashable, V Value[V]](s []V, key K, m, width int) V {
	startIndex, offsets := hashable.RowK(key, m, width)
	var sum V
	base := startIndex / 64
	for k, word := range offsets {
		wordStart := (base + k) * 64
		if wordStart >= len(s) {
			break
		}
		end := wordStart + 64
		if end > len(s) {
			end = len(s)
		}
		sum = sum.Xor(bitdot.Dot(word, s[wordStart:end]))
	}
	return sum
}

// DecodeMany decodes each key against s, sequentially. It is
// semantically equivalent to mapping Decode over keys.
func DecodeMany[K hashable.Hashable, V Value[V]](s []V, keys []K, m, width int) []V {
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = Decode(s, k, m, width)
	}
	return out
}

// DecodeManyParallel decodes keys against the read-only store s using
// a fixed pool of GOMAXPROCS worker goroutines. Safe to call
// concurrently with other readers of s; Decode never mutates its
// inputs. Results are identical to DecodeMany, just computed with
// more than one core.
func DecodeManyParallel[K hashable.Hashable, V Value[V]](s []V, keys []K, m, width int) []V {
	out := make([]V, len(keys))
	if len(keys) == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(keys) {
		workers = len(keys)
	}
	chunk := (len(keys) + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(keys) {
			hi = len(keys)
		}
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = Decode(s, keys[i], m, width)
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
