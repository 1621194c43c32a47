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

// Package bitdot computes the bitwise dot product of a 64-bit word
// against a slice of values: the XOR-sum of the values whose matching
// bit in the word is set. The OKVS decoder calls this once per band
// word to recover a value from the encoded store.
package bitdot

// Value is the constraint a type must satisfy to be dotted: it must
// support GF(2) addition (Xor) and conditional selection by a 0/1
// scalar (MulBucket), exactly what block.Block and any other OKVS
// value type provide.
type Value[T any] interface {
	Xor(other T) T
	MulBucket(bucket uint64) T
}

// Dot computes XOR_{i: bit i of a is set} b[i], for i ranging over
// [0, min(64, len(b))). Bits of a at or beyond len(b) contribute
// nothing. The loop is unrolled when len(b) >= 64 since every one of
// the 64 bits of a is then guaranteed to have a matching element.
func Dot[T Value[T]](a uint64, b []T) T {
	var out T
	if len(b) >= 64 {
		out = out.Xor(b[0].MulBucket(a >> 0))
		out = out.Xor(b[1].MulBucket(a >> 1))
		out = out.Xor(b[2].MulBucket(a >> 2))
		out = out.Xor(b[3].MulBucket(a >> 3))
		out = out.Xor(b[4].MulBucket(a >> 4))
		out = out.Xor(b[5].MulBucket(a >> 5))
		out = out.Xor(b[6].MulBucket(a >> 6))
		out = out.Xor(b[7].MulBucket(a >> 7))
		out = out.Xor(b[8].MulBucket(a >> 8))
		out = out.Xor(b[9].MulBucket(a >> 9))
		out = out.Xor(b[10].MulBucket(a >> 10))
		out = out.Xor(b[11].MulBucket(a >> 11))
		out = out.Xor(b[12].MulBucket(a >> 12))
		out = out.Xor(b[13].MulBucket(a >> 13))
		out = out.Xor(b[14].MulBucket(a >> 14))
		out = out.Xor(b[15].MulBucket(a >> 15))
		out = out.Xor(b[16].MulBucket(a >> 16))
		out = out.Xor(b[17].MulBucket(a >> 17))
		out = out.Xor(b[18].MulBucket(a >> 18))
		out = out.Xor(b[19].MulBucket(a >> 19))
		out = out.Xor(b[20].MulBucket(a >> 20))
		out = out.Xor(b[21].MulBucket(a >> 21))
		out = out.Xor(b[22].MulBucket(a >> 22))
		out = out.Xor(b[23].MulBucket(a >> 23))
		out = out.Xor(b[24].MulBucket(a >> 24))
		out = out.Xor(b[25].MulBucket(a >> 25))
		out = out.Xor(b[26].MulBucket(a >> 26))
		out = out.Xor(b[27].MulBucket(a >> 27))
		out = out.Xor(b[28].MulBucket(a >> 28))
		out = out.Xor(b[29].MulBucket(a >> 29))
		out = out.Xor(b[30].MulBucket(a >> 30))
		out = out.Xor(b[31].MulBucket(a >> 31))
		out = out.Xor(b[32].MulBucket(a >> 32))
		out = out.Xor(b[33].MulBucket(a >> 33))
		out = out.Xor(b[34].MulBucket(a >> 34))
		out = out.Xor(b[35].MulBucket(a >> 35))
		out = out.Xor(b[36].MulBucket(a >> 36))
		out = out.Xor(b[37].MulBucket(a >> 37))
		out = out.Xor(b[38].MulBucket(a >> 38))
		out = out.Xor(b[39].MulBucket(a >> 39))
		out = out.Xor(b[40].MulBucket(a >> 40))
		out = out.Xor(b[41].MulBucket(a >> 41))
		out = out.Xor(b[42].MulBucket(a >> 42))
		out = out.Xor(b[43].MulBucket(a >> 43))
		out = out.Xor(b[44].MulBucket(a >> 44))
		out = out.Xor(b[45].MulBucket(a >> 45))
		out = out.Xor(b[46].MulBucket(a >> 46))
		out = out.Xor(b[47].MulBucket(a >> 47))
		out = out.Xor(b[48].MulBucket(a >> 48))
		out = out.Xor(b[49].MulBucket(a >> 49))
		out = out.Xor(b[50].MulBucket(a >> 50))
		out = out.Xor(b[51].MulBucket(a >> 51))
		out = out.Xor(b[52].MulBucket(a >> 52))
		out = out.Xor(b[53].MulBucket(a >> 53))
		out = out.Xor(b[54].MulBucket(a >> 54))
		out = out.Xor(b[55].MulBucket(a >> 55))
		out = out.Xor(b[56].MulBucket(a >> 56))
		out = out.Xor(b[57].MulBucket(a >> 57))
		out = out.Xor(b[58].MulBucket(a >> 58))
		out = out.Xor(b[59].MulBucket(a >> 59))
		out = out.Xor(b[60].MulBucket(a >> 60))
		out = out.Xor(b[61].MulBucket(a >> 61))
		out = out.Xor(b[62].MulBucket(a >> 62))
		out = out.Xor(b[63].MulBucket(a >> 63))
		return out
	}
	for i := 0; i < len(b); i++ {
		out = out.Xor(b[i].MulBucket(a >> uint(i)))
	}
	return out
}
