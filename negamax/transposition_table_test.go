package negamax

import (
	"testing"

	"github.com/matryer/is"
)

func TestTableStoreLookup(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0) // clamps to the minimum size

	h := uint64(0x12345)
	tt.store(h, TableEntry{score: 1, flag: TTExact})
	entry := tt.lookup(h)
	is.True(entry.valid())
	is.Equal(entry.score, int8(1))
	is.Equal(entry.flag, uint8(TTExact))
	is.Equal(tt.hits, uint64(1))
}

func TestTableBucketCollision(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0)

	h1 := uint64(0x12345)
	h2 := h1 ^ (1 << 32) // same bucket, different position
	tt.store(h1, TableEntry{score: -1, flag: TTLower})
	entry := tt.lookup(h2)
	is.True(!entry.valid())
	is.Equal(tt.t2collisions, uint64(1))

	// The newcomer overwrites the occupant.
	tt.store(h2, TableEntry{score: 0, flag: TTExact})
	is.True(!tt.lookup(h1).valid())
	is.True(tt.lookup(h2).valid())
}

func TestTableResetClearsEverything(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0)
	tt.store(7, TableEntry{score: 1, flag: TTExact})
	tt.lookup(7)

	tt.Reset(0)
	is.Equal(tt.created, uint64(0))
	is.Equal(tt.lookups, uint64(0))
	is.Equal(tt.hits, uint64(0))
	is.True(!tt.lookup(7).valid())
}
