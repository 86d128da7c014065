package negamax

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

// TableEntry stores the solved value of one position. Unlike chess
// tables there is no depth qualifier: every stored value is a
// full-depth solve of its position, so an entry either applies or it
// does not exist.
type TableEntry struct {
	// The full hash is stored for verification; with tiny entries
	// there is no reason to shave bytes off it.
	fullHash uint64
	score    int8
	flag     uint8
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag != 0
}

// TranspositionTable is a fixed-size, power-of-two-bucketed cache of
// solved positions, replaced on collision. It is owned by a single
// search at a time; nothing here is safe for concurrent use, matching
// the single-threaded engine contract.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created uint64
	lookups uint64
	hits    uint64
	// "type 2" collisions: a different position already lives in the
	// bucket. Type 1 collisions (two positions with the same full
	// hash) are rare enough that we do not try to detect them.
	t2collisions uint64
}

func (t *TranspositionTable) lookup(zval uint64) TableEntry {
	t.lookups++
	idx := zval & t.sizeMask
	entry := t.table[idx]
	if entry.fullHash != zval {
		if entry.valid() {
			t.t2collisions++
		}
		return TableEntry{}
	}
	t.hits++
	return entry
}

func (t *TranspositionTable) store(zval uint64, tentry TableEntry) {
	idx := zval & t.sizeMask
	tentry.fullHash = zval
	// just overwrite whatever is there.
	t.table[idx] = tentry
	t.created++
}

// Reset sizes the table to the largest power of two that fits in the
// given fraction of system memory, reusing the old allocation when the
// size comes out unchanged, and zeroes all statistics.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	// find biggest power of 2 lower than desired, with a small floor so
	// a zero fraction still yields a working table.
	t.sizePowerOf2 = 10
	if desiredNElems > 1<<10 {
		t.sizePowerOf2 = int(math.Log2(desiredNElems))
	}

	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created = 0
	t.lookups = 0
	t.hits = 0
	t.t2collisions = 0
}
