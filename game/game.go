// Package game defines the capability contract consumed by the search
// engines in this repository. A game is two-player, zero-sum, and
// perfect-information; implementations provide move enumeration, pure
// move application, and terminal evaluation. The engines never look
// inside a position, they only call through these interfaces.
package game

// Outcome values for a decided state, always relative to the player to
// move in that state.
const (
	Loss = -1
	Draw = 0
	Win  = 1
)

// A Move is an opaque move identifier. Implementations own the concrete
// type; the engines only carry moves between Moves and Apply, and use
// String for display and logging.
type Move interface {
	String() string
}

// State is an immutable game position.
//
// Moves returns the legal moves in a deterministic order. The order is
// significant: both engines break ties by keeping the first best
// candidate they encounter, so a fixed enumeration order makes their
// results reproducible.
//
// Apply never mutates the receiver; it returns an independent successor
// with the turn and ply depth advanced, or an error if the move is not
// currently legal. The engines only ever apply moves they enumerated
// themselves, so they treat an Apply error as fatal.
//
// Outcome is relative to the player to move in the receiver: +1 means
// that player has already won, -1 that they have already lost, 0 a
// draw. It is only meaningful once Decided returns true; implementations
// should panic if it is queried earlier, since the engines guard every
// call with Decided.
type State interface {
	Moves() []Move
	Apply(m Move) (State, error)
	Decided() bool
	Outcome() int
	String() string
}

// Hasher is implemented by states that can produce a 64-bit
// transposition hash of themselves. The exact solver requires it when
// its transposition table is turned on.
type Hasher interface {
	Hash() uint64
}
