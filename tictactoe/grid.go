package tictactoe

import (
	"fmt"
	"math/bits"

	"github.com/cespare/xxhash"

	"github.com/domino14/morris/game"
)

// Grid is the legacy matrix representation: a 3x3 array of marks. It
// predates the bitboard and is kept as a second implementation of the
// game.State contract, mostly to prove (and test) that the engines do
// not care how a position is stored. Note that Grid enumerates moves
// top left first, the opposite of Position; move ordering is a property
// of the implementation, not of the engines.
type Grid struct {
	cells [3][3]byte // 'X', 'O', or 0 for empty
	turn  uint8
	depth uint8
}

var (
	_ game.State  = Grid{}
	_ game.Hasher = Grid{}
)

// NewGrid returns the empty starting grid, crosses to move.
func NewGrid() Grid {
	return Grid{}
}

// GridFromPosition converts a bitboard Position into the equivalent
// Grid.
func GridFromPosition(p Position) Grid {
	var g Grid
	m := p.marks()
	for i := 0; i < 9; i++ {
		if m[i] != '.' {
			g.cells[i/3][i%3] = m[i]
		}
	}
	g.turn = p.turn
	g.depth = p.depth
	return g
}

// ParseGrid reads the same notation as Parse.
func ParseGrid(s string) (Grid, error) {
	p, err := Parse(s)
	if err != nil {
		return Grid{}, err
	}
	return GridFromPosition(p), nil
}

func (g Grid) hasLine(mark byte) bool {
	for i := 0; i < 3; i++ {
		if g.cells[i][0] == mark && g.cells[i][1] == mark && g.cells[i][2] == mark {
			return true
		}
		if g.cells[0][i] == mark && g.cells[1][i] == mark && g.cells[2][i] == mark {
			return true
		}
	}
	if g.cells[0][0] == mark && g.cells[1][1] == mark && g.cells[2][2] == mark {
		return true
	}
	return g.cells[0][2] == mark && g.cells[1][1] == mark && g.cells[2][0] == mark
}

// score follows the same convention as Position.score: crosses' lines
// are checked before noughts'.
func (g Grid) score() int {
	for side, mark := range [2]byte{'X', 'O'} {
		if g.hasLine(mark) {
			if uint8(side) == g.turn {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Decided reports whether the game is over.
func (g Grid) Decided() bool {
	return g.score() != 0 || g.depth == 9
}

// Outcome returns the result relative to the player to move. It panics
// when the game is not over yet.
func (g Grid) Outcome() int {
	s := g.score()
	if s == 0 && g.depth != 9 {
		panic("outcome queried on an undecided grid")
	}
	return s
}

// Moves enumerates the empty cells in reading order, top left first.
func (g Grid) Moves() []game.Move {
	ms := make([]game.Move, 0, 9-int(g.depth))
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if g.cells[r][c] == 0 {
				ms = append(ms, Sq(r*3+c+1))
			}
		}
	}
	return ms
}

// Apply plays a move for the side to move and returns the resulting
// grid.
func (g Grid) Apply(m game.Move) (game.State, error) {
	sq, ok := m.(Square)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a square", ErrIllegalMove, m)
	}
	mask := uint16(sq)
	if mask == 0 || mask > 1<<8 || bits.OnesCount16(mask) != 1 {
		return nil, fmt.Errorf("%w: bad square mask %#b", ErrIllegalMove, mask)
	}
	i := bits.TrailingZeros16(mask)
	r, c := i/3, i%3
	if g.cells[r][c] != 0 {
		return nil, fmt.Errorf("%w: square %v is occupied", ErrIllegalMove, sq)
	}
	next := g
	if g.turn == CrossesSide {
		next.cells[r][c] = 'X'
	} else {
		next.cells[r][c] = 'O'
	}
	next.turn = 1 - g.turn
	next.depth++
	return next, nil
}

// Hash hashes the cells and the side to move. Unlike Position this is
// not a Zobrist hash; a straight content hash is all the matrix form
// ever needed.
func (g Grid) Hash() uint64 {
	var b [10]byte
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			b[r*3+c] = g.cells[r][c]
		}
	}
	b[9] = g.turn
	return xxhash.Sum64(b[:])
}

// ToMove returns "X" or "O".
func (g Grid) ToMove() string {
	if g.turn == CrossesSide {
		return "X"
	}
	return "O"
}

// Depth returns the number of moves played so far.
func (g Grid) Depth() int {
	return int(g.depth)
}

func (g Grid) marks() [9]byte {
	var m [9]byte
	for i := 0; i < 9; i++ {
		if cell := g.cells[i/3][i%3]; cell != 0 {
			m[i] = cell
		} else {
			m[i] = '.'
		}
	}
	return m
}

func (g Grid) String() string {
	return render(g.marks())
}
