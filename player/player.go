// Package player defines the common interface for matching engines
// against each other or against a human driving the shell.
package player

import (
	"context"

	"lukechampine.com/frand"

	"github.com/domino14/morris/game"
	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/negamax"
)

// Player supplies one move at a time.
type Player interface {
	// Name identifies the player in logs and match reports.
	Name() string
	// BestMove picks a move for the player to move in st. It is never
	// called on a decided position.
	BestMove(ctx context.Context, st game.State) (game.Move, error)
}

// Exact plays perfectly by solving every position it is handed.
type Exact struct {
	solver negamax.Solver
}

func NewExact() *Exact {
	return &Exact{}
}

// Solver exposes the underlying solver for configuration.
func (p *Exact) Solver() *negamax.Solver {
	return &p.solver
}

func (p *Exact) Name() string {
	return "exact"
}

func (p *Exact) BestMove(ctx context.Context, st game.State) (game.Move, error) {
	_, m, err := p.solver.Solve(ctx, st)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultMctsIterations bounds a Mcts player's per-move search.
const DefaultMctsIterations = 5000

// Mcts searches a fresh tree for every move it is asked for. Strength
// is adjusted through the iteration bound, the exploration schedule
// and the rollout policy.
type Mcts struct {
	name       string
	policy     mcts.RolloutPolicy
	iterations int
	schedule   mcts.ExplorationSchedule
}

// NewMcts returns an MCTS player using the given rollout policy. The
// default schedule decays the exploration constant by 0.999 every
// iteration, slowly favoring exploitation within a move's search.
func NewMcts(name string, policy mcts.RolloutPolicy) *Mcts {
	return &Mcts{
		name:       name,
		policy:     policy,
		iterations: DefaultMctsIterations,
		schedule:   mcts.DecayingExploration(0.999, 0.999),
	}
}

func (p *Mcts) SetIterations(n int) {
	p.iterations = n
}

func (p *Mcts) SetSchedule(s mcts.ExplorationSchedule) {
	p.schedule = s
}

func (p *Mcts) Name() string {
	return p.name
}

func (p *Mcts) BestMove(ctx context.Context, st game.State) (game.Move, error) {
	engine := mcts.NewEngine(st, p.policy)
	best, err := engine.Search(ctx, 0, p.schedule, mcts.IterationLimit(p.iterations))
	if err != nil {
		return nil, err
	}
	return best.Move(), nil
}

// Random plays uniformly random legal moves.
type Random struct {
	rng *frand.RNG
}

// NewRandom returns a random player drawing from rng; nil gets a
// fresh nondeterministic source.
func NewRandom(rng *frand.RNG) *Random {
	if rng == nil {
		rng = frand.New()
	}
	return &Random{rng: rng}
}

func (p *Random) Name() string {
	return "random"
}

func (p *Random) BestMove(ctx context.Context, st game.State) (game.Move, error) {
	moves := st.Moves()
	return moves[p.rng.Intn(len(moves))], nil
}
