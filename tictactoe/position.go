// Package tictactoe implements the demonstration game for the search
// engines in this repository. It ships two interchangeable
// representations of the 3x3 game: a bitboard Position, which the
// engines use by default, and a legacy matrix Grid. Both satisfy the
// game.State contract, which is the point -- the engines never find out
// which one they are searching.
package tictactoe

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/domino14/morris/game"
)

// ErrIllegalMove is returned by Apply when a move is not currently
// legal. The engines never trigger it; it guards the shell and other
// outside callers.
var ErrIllegalMove = errors.New("illegal move")

// Winning lines encoded as bit patterns. For example, three in a row
// across the top row is 0b000000111 = 7.
var winningPatterns = [8]uint16{
	448, 56, 7, // rows
	292, 146, 73, // columns
	273, 84, // diagonals
}

const (
	// CrossesSide moves first.
	CrossesSide = 0
	NoughtsSide = 1

	fullBoard = 1<<9 - 1
)

// A Square is a move: a bitmask with exactly one of the low nine bits
// set. Squares are numbered 1 through 9 reading from the top left to
// the bottom right.
type Square uint16

// Sq returns the square numbered n, 1 through 9. It panics when n is
// out of range; use ParseSquare for untrusted input.
func Sq(n int) Square {
	if n < 1 || n > 9 {
		panic("square number out of range")
	}
	return Square(1) << (n - 1)
}

// ParseSquare converts a user-entered square number into a Square.
func ParseSquare(s string) (Square, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 9 {
		return 0, fmt.Errorf("squares are numbered 1 through 9, got %q", s)
	}
	return Sq(n), nil
}

func (sq Square) String() string {
	return strconv.Itoa(bits.TrailingZeros16(uint16(sq)) + 1)
}

// Position is the bitboard representation: one 9-bit plane per side,
// where a set bit means that side occupies the square. It is a value
// type; Apply returns a new Position and never touches the receiver.
//
// Example:
//
//	X|O|X
//	-+-+-        crosses      noughts
//	O|X|O  = [ 0b101010101, 0b010101010 ]
//	-+-+-
//	X|O|X
type Position struct {
	planes [2]uint16
	turn   uint8
	depth  uint8
}

var (
	_ game.State  = Position{}
	_ game.Hasher = Position{}
)

// New returns the empty starting position, crosses to move.
func New() Position {
	return Position{}
}

// FromMoves plays the given squares from the starting position,
// alternating sides.
func FromMoves(squares ...Square) (Position, error) {
	p := New()
	for _, sq := range squares {
		next, err := p.Apply(sq)
		if err != nil {
			return Position{}, err
		}
		p = next.(Position)
	}
	return p, nil
}

// score returns +1 if the player to move has a completed line, -1 if
// the opponent does, and 0 otherwise. Crosses' plane is checked first,
// which settles the (unreachable in real play) case of both sides
// holding a line.
func (p Position) score() int {
	for side := 0; side < 2; side++ {
		for _, pattern := range winningPatterns {
			if p.planes[side]&pattern == pattern {
				if uint8(side) == p.turn {
					return 1
				}
				return -1
			}
		}
	}
	return 0
}

// Decided reports whether the game is over, by a completed line or a
// full board.
func (p Position) Decided() bool {
	return p.score() != 0 || p.depth == 9
}

// Outcome returns the result relative to the player to move. It panics
// when the game is not over yet.
func (p Position) Outcome() int {
	s := p.score()
	if s == 0 && p.depth != 9 {
		panic("outcome queried on an undecided position")
	}
	return s
}

// Moves enumerates the empty squares, bottom right first. The order is
// fixed because both engines resolve ties in favor of the move they
// enumerate first.
func (p Position) Moves() []game.Move {
	taken := p.planes[0] | p.planes[1]
	ms := make([]game.Move, 0, 9-int(p.depth))
	for sq := Square(1 << 8); sq > 0; sq >>= 1 {
		if taken&uint16(sq) == 0 {
			ms = append(ms, sq)
		}
	}
	return ms
}

// Apply plays a move for the side to move and returns the resulting
// position. Moves on occupied squares, or that are not a single square
// at all, earn an ErrIllegalMove.
func (p Position) Apply(m game.Move) (game.State, error) {
	sq, ok := m.(Square)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a square", ErrIllegalMove, m)
	}
	mask := uint16(sq)
	if mask == 0 || mask > 1<<8 || bits.OnesCount16(mask) != 1 {
		return nil, fmt.Errorf("%w: bad square mask %#b", ErrIllegalMove, mask)
	}
	if (p.planes[0]|p.planes[1])&mask != 0 {
		return nil, fmt.Errorf("%w: square %v is occupied", ErrIllegalMove, sq)
	}
	next := p
	next.planes[p.turn] |= mask
	next.turn = 1 - p.turn
	next.depth++
	return next, nil
}

// Hash returns the Zobrist hash of the position.
func (p Position) Hash() uint64 {
	return zobristHash(p.planes, p.turn)
}

// ToMove returns "X" or "O".
func (p Position) ToMove() string {
	if p.turn == CrossesSide {
		return "X"
	}
	return "O"
}

// Depth returns the number of moves played so far.
func (p Position) Depth() int {
	return int(p.depth)
}

func (p Position) marks() [9]byte {
	var m [9]byte
	for i := 0; i < 9; i++ {
		switch {
		case p.planes[0]&(1<<i) != 0:
			m[i] = 'X'
		case p.planes[1]&(1<<i) != 0:
			m[i] = 'O'
		default:
			m[i] = '.'
		}
	}
	return m
}

func (p Position) String() string {
	return render(p.marks())
}

// Notation returns the compact one-line form: nine squares in reading
// order followed by the side to move, e.g. "X.O.X.... O".
func (p Position) Notation() string {
	m := p.marks()
	return string(m[:]) + " " + p.ToMove()
}

func render(marks [9]byte) string {
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		sb.WriteByte(marks[i])
		switch {
		case i%3 < 2:
			sb.WriteByte('|')
		case i < 8:
			sb.WriteString("\n-+-+-\n")
		}
	}
	return sb.String()
}

// Parse reads the notation produced by Notation: nine characters of
// 'X', 'O' or '.' in reading order, with optional '/' separators
// between the rows, optionally followed by the side to move ("X" or
// "O"). Without the side suffix the mover is inferred from the piece
// counts.
func Parse(s string) (Position, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Position{}, fmt.Errorf("cannot parse position %q", s)
	}
	board := strings.ReplaceAll(fields[0], "/", "")
	if len(board) != 9 {
		return Position{}, fmt.Errorf("position %q does not have nine squares", s)
	}
	var p Position
	for i := 0; i < 9; i++ {
		switch board[i] {
		case 'X', 'x':
			p.planes[0] |= 1 << i
		case 'O', 'o':
			p.planes[1] |= 1 << i
		case '.':
		default:
			return Position{}, fmt.Errorf("bad square %q in position %q", board[i], s)
		}
	}
	nx := bits.OnesCount16(p.planes[0])
	no := bits.OnesCount16(p.planes[1])
	if no > nx || nx > no+1 {
		return Position{}, fmt.Errorf("impossible piece counts in position %q", s)
	}
	p.depth = uint8(nx + no)
	if nx > no {
		p.turn = NoughtsSide
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "X", "x":
			p.turn = CrossesSide
		case "O", "o":
			p.turn = NoughtsSide
		default:
			return Position{}, fmt.Errorf("bad side to move %q", fields[1])
		}
	}
	return p, nil
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(s string) Position {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}
