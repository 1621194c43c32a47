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

// Command okvsbench generates n random (Block, Block) pairs, encodes
// them into an OKVS, and reports encode time, decode throughput, and
// the byte size of the encoded store.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/oblivkv/okvs/block"
	"github.com/oblivkv/okvs/internal/bench"
	"github.com/oblivkv/okvs/ints"
	"github.com/oblivkv/okvs/okvs"
	"github.com/oblivkv/okvs/prng"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	var n int
	var eps float64
	var width int
	var seedFlag uint64
	flag.IntVar(&n, "n", 1<<16, "number of (key, value) pairs")
	flag.Float64Var(&eps, "eps", 0.03, "over-provisioning factor")
	flag.IntVar(&width, "width", 256, "band width")
	flag.Uint64Var(&seedFlag, "seed", 1, "PRNG seed (low 64 bits; high 64 bits are zero)")
	flag.Parse()

	width = ints.Clamp(width, 1, n)

	runID := uuid.New()
	fmt.Printf("run %s: n=%d eps=%g width=%d\n", runID, n, eps, width)

	gen := prng.NewFromSeed(block.FromUint64(seedFlag))
	keys := make([]block.Block, n)
	pairs := make([]okvs.Pair[block.Block, block.Block], n)
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
		pairs[i] = okvs.Pair[block.Block, block.Block]{Key: k, Value: v}
	}

	encodeTimer := bench.NewTimer("encode")
	encodeTimer.Start()
	s, err := okvs.Encode(pairs, eps, width)
	encodeTimer.Stop()
	if err != nil {
		fatalf("run %s: encode failed: %s", runID, err)
	}
	fmt.Println(encodeTimer.String())
	fmt.Printf("|S| = %d values (%d bytes assuming 16-byte values)\n", len(s), len(s)*16)

	var decoded []block.Block
	decodeElapsed := bench.TimerOnce(func() {
		decoded = okvs.DecodeManyParallel(s, keys, len(s), width)
	})
	throughput := float64(n) / decodeElapsed.Seconds()
	fmt.Printf("decode: %s for %d keys (%.0f keys/s)\n", decodeElapsed, n, throughput)

	for i := range decoded {
		if !decoded[i].Equal(pairs[i].Value) {
			fatalf("run %s: decode mismatch at index %d", runID, i)
		}
	}
}
