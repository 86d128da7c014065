// Package negamax implements the exact solver: a depth-unlimited
// negamax search with alpha-beta pruning over any game.State. Outcomes
// are the three values {-1, 0, +1}, so the search window starts at
// [-1, 1] and most branches collapse as soon as a win or loss is
// proven.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/morris/game"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

// A value strictly below any real outcome, for initializing the
// running maximum.
const hugeNumber = 2

// DefaultTTFraction is the fraction of system memory the transposition
// table claims when the caller does not pick one.
const DefaultTTFraction = 0.001

// ErrNoSolution is returned if an undecided state enumerates no moves,
// which means the game implementation broke its contract.
var ErrNoSolution = errors.New("no solution found")

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []game.Move
}

// Clear the principal variation line.
func (p *PVLine) Clear() {
	p.Moves = p.Moves[:0]
}

// Update the principal variation line to a new best move, followed by
// the line that was best after it.
func (p *PVLine) Update(m game.Move, childPV PVLine) {
	p.Clear()
	p.Moves = append(p.Moves, m)
	p.Moves = append(p.Moves, childPV.Moves...)
}

func (p PVLine) NumMoves() int {
	return len(p.Moves)
}

func (p PVLine) String() string {
	moves := make([]string, len(p.Moves))
	for i, m := range p.Moves {
		moves[i] = m.String()
	}
	return strings.Join(moves, " ")
}

// Solver proves the game-theoretic outcome of a position and the first
// move achieving it. The zero value is ready to use:
//
//	var s negamax.Solver
//	score, move, err := s.Solve(ctx, state)
//
// Results are deterministic for a fixed move enumeration order: among
// equally good moves, the first one enumerated wins. The optional
// transposition table keeps the returned score exact but may return
// early out of inner nodes, so it is off by default.
type Solver struct {
	ttable                  *TranspositionTable
	transpositionTableOptim bool
	ttableMemFraction       float64

	logStream io.Writer

	nodes              uint64
	principalVariation PVLine
}

// SetTranspositionTableOptim turns the transposition table on or off
// for subsequent Solve calls. It requires the solved states to
// implement game.Hasher.
func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

// SetTTFraction overrides DefaultTTFraction.
func (s *Solver) SetTTFraction(f float64) {
	s.ttableMemFraction = f
}

// SetLogStream dumps the searched tree, with alpha-beta bounds, to w.
// Only useful for debugging tiny searches; the output grows with the
// node count.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

// Nodes returns the number of nodes visited by the last Solve.
func (s *Solver) Nodes() uint64 {
	return s.nodes
}

// PrincipalVariation returns the line of best play found by the last
// Solve. With the transposition table on the line may be cut short by
// early returns; its first move and the score are still correct.
func (s *Solver) PrincipalVariation() PVLine {
	return s.principalVariation
}

// Solve returns the exact score of the position, in {-1, 0, +1}
// relative to the player to move, and a move achieving it. The move is
// nil when the position is already decided. The search is exact, not
// heuristic; ctx only bounds how long we are willing to wait for the
// proof.
func (s *Solver) Solve(ctx context.Context, st game.State) (int, game.Move, error) {
	if st.Decided() {
		return st.Outcome(), nil, nil
	}
	if s.transpositionTableOptim {
		if _, ok := st.(game.Hasher); !ok {
			return 0, nil, errors.New("transposition table requires a state that implements game.Hasher")
		}
		if s.ttable == nil {
			s.ttable = &TranspositionTable{}
		}
		fraction := s.ttableMemFraction
		if fraction == 0 {
			fraction = DefaultTTFraction
		}
		s.ttable.Reset(fraction)
	}
	tstart := time.Now()
	s.nodes = 0
	s.principalVariation.Clear()

	α, β := game.Loss, game.Win
	bestScore := -hugeNumber
	var bestMove game.Move
	for _, m := range st.Moves() {
		child, err := st.Apply(m)
		if err != nil {
			return 0, nil, fmt.Errorf("applying enumerated move %v: %w", m, err)
		}
		s.nodes++
		childPV := PVLine{}
		value, err := s.negamax(ctx, child, 1, -β, -α, &childPV)
		if err != nil {
			return 0, nil, err
		}
		if -value > bestScore {
			bestScore = -value
			bestMove = m
			s.principalVariation.Update(m, childPV)
		}
		α = max(α, bestScore)
		if α >= β {
			break // beta cut-off; a proven win needs no second opinion
		}
	}
	if bestMove == nil {
		return 0, nil, ErrNoSolution
	}
	ev := log.Debug().
		Uint64("nodes", s.nodes).
		Int("score", bestScore).
		Str("pv", s.principalVariation.String()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds())
	if s.transpositionTableOptim {
		ev = ev.Uint64("ttable-created", s.ttable.created).
			Uint64("ttable-lookups", s.ttable.lookups).
			Uint64("ttable-hits", s.ttable.hits).
			Uint64("ttable-t2collisions", s.ttable.t2collisions)
	}
	ev.Msg("solve-returning")
	return bestScore, bestMove, nil
}

func (s *Solver) negamax(ctx context.Context, st game.State, ply, α, β int, pv *PVLine) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if st.Decided() {
		return st.Outcome(), nil
	}

	// Note: if we return early here, the PV can come out incomplete
	// (the transposition table is cutting off the iterations). The
	// value is still correct.
	alphaOrig := α
	var nodeKey uint64
	if s.transpositionTableOptim {
		nodeKey = st.(game.Hasher).Hash()
		entry := s.ttable.lookup(nodeKey)
		if entry.valid() {
			score := int(entry.score)
			switch entry.flag {
			case TTExact:
				return score, nil
			case TTLower:
				α = max(α, score)
			case TTUpper:
				β = min(β, score)
			}
			if α >= β {
				return score, nil
			}
		}
	}

	indent := strings.Repeat(" ", 2*ply)
	if s.logStream != nil {
		fmt.Fprintf(s.logStream, "%vplays:\n", indent)
	}
	childPV := PVLine{}
	bestValue := -hugeNumber
	for _, m := range st.Moves() {
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "%v- play: %v\n", indent, m)
		}
		child, err := st.Apply(m)
		if err != nil {
			return 0, fmt.Errorf("applying enumerated move %v: %w", m, err)
		}
		s.nodes++
		value, err := s.negamax(ctx, child, ply+1, -β, -α, &childPV)
		if err != nil {
			return 0, err
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "%v  value: %v\n", indent, value)
		}
		if -value > bestValue {
			bestValue = -value
			pv.Update(m, childPV)
		}
		α = max(α, bestValue)
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "%v  α: %v\n", indent, α)
			fmt.Fprintf(s.logStream, "%v  β: %v\n", indent, β)
		}
		if bestValue >= β {
			break // beta cut-off
		}
		childPV.Clear()
	}

	if s.transpositionTableOptim {
		entry := TableEntry{score: int8(bestValue)}
		if bestValue <= alphaOrig {
			entry.flag = TTUpper
		} else if bestValue >= β {
			entry.flag = TTLower
		} else {
			entry.flag = TTExact
		}
		s.ttable.store(nodeKey, entry)
	}
	return bestValue, nil
}
