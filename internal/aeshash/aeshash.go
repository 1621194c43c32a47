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

// Package aeshash implements the fixed-key, correlation-robust
// compression function the fast path of row derivation uses to turn a
// block.Block key into pseudo-random bytes. It is a single-block
// Davies-Meyer construction, H(x) = AES_k(x) XOR x, with three
// distinct hard-coded keys: one for that hash and two for the
// branch hashes, so the three roles never share a permutation.
//
// No cryptographic strength is claimed beyond correlation robustness
// in the random-permutation model; the keys are public constants, not
// secrets.
package aeshash

import (
	"crypto/aes"

	"github.com/oblivkv/okvs/block"
)

// The three fixed keys, carried over byte-for-byte from the reference
// implementation this package's behavior must match. Hasher is used by
// row derivation's Block fast path; Branch0 and Branch1 key the
// two-sided "branch" hash exposed through Branch0, Branch1 and
// BranchHash.
var (
	hasherKey = [16]byte{4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
	branch0Key = [16]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	branch1Key = [16]byte{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
)

// Engine wraps the three expanded round-key schedules so callers pay
// the key-expansion cost once rather than on every call.
type Engine struct {
	hasher  cipherBlock
	branch0 cipherBlock
	branch1 cipherBlock
}

type cipherBlock interface {
	Encrypt(dst, src []byte)
}

var global = newEngine()

func newEngine() *Engine {
	e := &Engine{}
	var err error
	if e.hasher, err = aes.NewCipher(hasherKey[:]); err != nil {
		panic("aeshash: fixed-key AES setup failed: " + err.Error())
	}
	if e.branch0, err = aes.NewCipher(branch0Key[:]); err != nil {
		panic("aeshash: fixed-key AES setup failed: " + err.Error())
	}
	if e.branch1, err = aes.NewCipher(branch1Key[:]); err != nil {
		panic("aeshash: fixed-key AES setup failed: " + err.Error())
	}
	return e
}

// Hash computes AES_hasherKey(x) XOR x, the fast-path correlation
// robust hash used whenever the OKVS key type is itself a block.Block.
func Hash(x block.Block) block.Block {
	return global.Hash(x)
}

// Hash is the method form of the package-level Hash, for callers that
// already hold an Engine.
func (e *Engine) Hash(x block.Block) block.Block {
	var in, out [16]byte
	x.PutBytes(in[:])
	e.hasher.Encrypt(out[:], in[:])
	return block.FromBytes(out[:]).Xor(x)
}

// Branch0 computes AES_branch0Key(x) XOR x.
func Branch0(x block.Block) block.Block { return global.Branch0(x) }

func (e *Engine) Branch0(x block.Block) block.Block {
	var in, out [16]byte
	x.PutBytes(in[:])
	e.branch0.Encrypt(out[:], in[:])
	return block.FromBytes(out[:]).Xor(x)
}

// Branch1 computes AES_branch1Key(x) XOR x.
func Branch1(x block.Block) block.Block { return global.Branch1(x) }

func (e *Engine) Branch1(x block.Block) block.Block {
	var in, out [16]byte
	x.PutBytes(in[:])
	e.branch1.Encrypt(out[:], in[:])
	return block.FromBytes(out[:]).Xor(x)
}

// BranchHash batch-hashes xs under the given branch key (0 or 1),
// giving callers two correlated pseudorandom derivations per input —
// a building block protocols layered on top of this OKVS (OPRF-style
// two-choice evaluation) can use, even though such a protocol is
// itself outside this module's scope.
func BranchHash(branch int, xs []block.Block) []block.Block {
	out := make([]block.Block, len(xs))
	for i, x := range xs {
		if branch == 0 {
			out[i] = Branch0(x)
		} else {
			out[i] = Branch1(x)
		}
	}
	return out
}

// RawEncryptHasherKey exposes the unmixed AES_hasherKey(x) encryption
// (no Davies-Meyer XOR), so Hash(x) equals RawEncryptHasherKey(x) XOR x.
func RawEncryptHasherKey(x block.Block) block.Block {
	var in, out [16]byte
	x.PutBytes(in[:])
	global.hasher.Encrypt(out[:], in[:])
	return block.FromBytes(out[:])
}

// NewEngine builds a fresh Engine. All three keys are fixed constants,
// so every Engine is equivalent to the package-level one; the
// constructor exists for callers that want to hold their own.
func NewEngine() *Engine {
	return newEngine()
}
