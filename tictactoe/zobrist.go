package tictactoe

import (
	"math/bits"

	"lukechampine.com/frand"
)

// Zobrist hashing for Position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// One random number per square per side, plus one for noughts to move.
// The tables are filled once per process; hashes are only ever compared
// within a process, so there is no need for a fixed seed.

const bignum = 1<<63 - 2

var zsquares [9][2]uint64
var znoughtsToMove uint64

func init() {
	for i := range zsquares {
		for side := range zsquares[i] {
			zsquares[i][side] = frand.Uint64n(bignum) + 1
		}
	}
	znoughtsToMove = frand.Uint64n(bignum) + 1
}

func zobristHash(planes [2]uint16, turn uint8) uint64 {
	var key uint64
	for side := 0; side < 2; side++ {
		plane := planes[side]
		for plane != 0 {
			i := bits.TrailingZeros16(plane)
			key ^= zsquares[i][side]
			plane &= plane - 1
		}
	}
	if turn == NoughtsSide {
		key ^= znoughtsToMove
	}
	return key
}
