package mcts

import (
	"context"
	"fmt"

	"lukechampine.com/frand"

	"github.com/domino14/morris/game"
	"github.com/domino14/morris/negamax"
)

// RolloutPolicy estimates the outcome of a position for the search
// tree. On a decided state the estimate must equal the exact outcome.
type RolloutPolicy interface {
	Evaluate(ctx context.Context, st game.State) (float64, error)
}

// RandomRollout plays uniformly random legal moves until the position
// is decided, then returns that final position's outcome. An already
// decided input plays no moves at all, so there the value is exact.
type RandomRollout struct {
	rng *frand.RNG
}

// NewRandomRollout returns a random playout policy drawing from rng. A
// nil rng gets a fresh nondeterministic source; pass
// frand.NewCustom(seed, 1024, 12) for reproducible playouts.
func NewRandomRollout(rng *frand.RNG) *RandomRollout {
	if rng == nil {
		rng = frand.New()
	}
	return &RandomRollout{rng: rng}
}

func (r *RandomRollout) Evaluate(ctx context.Context, st game.State) (float64, error) {
	for !st.Decided() {
		moves := st.Moves()
		next, err := st.Apply(moves[r.rng.Intn(len(moves))])
		if err != nil {
			return 0, fmt.Errorf("rollout: %w", err)
		}
		st = next
	}
	return float64(st.Outcome()), nil
}

// ExactRollout evaluates positions by solving them outright. The
// returned value is the proven outcome for the player to move in st,
// which turns the surrounding search into a (slow) verifier.
type ExactRollout struct {
	solver negamax.Solver
}

func NewExactRollout() *ExactRollout {
	return &ExactRollout{}
}

// Solver exposes the underlying solver for configuration, such as
// turning on its transposition table.
func (p *ExactRollout) Solver() *negamax.Solver {
	return &p.solver
}

func (p *ExactRollout) Evaluate(ctx context.Context, st game.State) (float64, error) {
	score, _, err := p.solver.Solve(ctx, st)
	if err != nil {
		return 0, err
	}
	return float64(score), nil
}
