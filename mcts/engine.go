// Package mcts implements Monte Carlo tree search over the generic
// game interfaces, with UCT selection and batched expansion.
package mcts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/morris/game"
	"github.com/domino14/morris/stats"
)

/*
	How a search iterates:

	For iteration in iterations:
		- descend from the root by inverted UCT while the current
		node has children
		- expand the reached node, materializing every child at once
		- evaluate the rollout policy on each new child (or on the
		node itself when it is terminal) and backpropagate each
		outcome to the root, flipping sign every ply

	Batching the evaluation over all new children guarantees every
	child of an expanded node has at least one visit, so selection
	never needs an "unvisited means infinity" special case.
*/

// DefaultExploration is the exploration constant used when no schedule
// is given.
const DefaultExploration = 1.0

// ErrPositionDecided is returned when a search is started from a
// position that is already decided.
var ErrPositionDecided = errors.New("position is already decided")

// ErrAlreadySearching is returned by Search when another Search call on
// the same engine has not finished yet. The tree belongs to one search
// at a time.
var ErrAlreadySearching = errors.New("this engine is already searching")

// ExplorationSchedule produces the exploration constant for one
// iteration; t0 is the search start time and it the 1-based index of
// the iteration about to run.
type ExplorationSchedule func(t0 time.Time, it int) float64

// TerminationPredicate reports whether the search should stop. It is
// consulted after every completed iteration with the index the next
// iteration would have.
type TerminationPredicate func(t0 time.Time, it int) bool

// ConstantExploration keeps the exploration constant fixed at c.
func ConstantExploration(c float64) ExplorationSchedule {
	return func(t0 time.Time, it int) float64 {
		return c
	}
}

// DecayingExploration starts at c0 and multiplies by ratio every
// iteration, shifting the search toward exploitation over time.
func DecayingExploration(c0, ratio float64) ExplorationSchedule {
	return func(t0 time.Time, it int) float64 {
		return c0 * math.Pow(ratio, float64(it-1))
	}
}

// IterationLimit stops the search after exactly n completed
// iterations.
func IterationLimit(n int) TerminationPredicate {
	return func(t0 time.Time, it int) bool {
		return it > n
	}
}

// Never leaves stopping entirely to the time budget.
func Never() TerminationPredicate {
	return func(t0 time.Time, it int) bool {
		return false
	}
}

// Engine owns a search tree rooted at a fixed position and grows it
// with repeated rollouts. It is strictly single-threaded: one Search
// runs at a time and nothing else may touch the tree while it does.
// The tree persists on the engine between calls, so the statistics
// remain inspectable after Search returns (or is canceled).
type Engine struct {
	root   *Node
	policy RolloutPolicy

	stoppingCondition          StoppingCondition
	stopConditionCheckInterval int
	logStream                  io.Writer

	trackers  []*rootTracker
	treeNodes int
	elapsed   time.Duration

	// Observable from other goroutines while a search runs, so a shell
	// can report progress without touching the tree.
	searching      atomic.Bool
	iterationCount atomic.Uint64
}

// NewEngine creates an engine rooted at root. A nil policy defaults to
// unseeded random playouts.
func NewEngine(root game.State, policy RolloutPolicy) *Engine {
	if policy == nil {
		policy = NewRandomRollout(nil)
	}
	return &Engine{
		root:                       newNode(root, nil, nil),
		policy:                     policy,
		stopConditionCheckInterval: defaultStopCheckInterval,
		treeNodes:                  1,
	}
}

// SetStoppingCondition makes the search cut itself off once one root
// move is separated from the rest at the given confidence level.
func (e *Engine) SetStoppingCondition(sc StoppingCondition) {
	e.stoppingCondition = sc
}

func (e *Engine) SetStopConditionCheckInterval(i int) {
	if i < 1 {
		i = 1
	}
	e.stopConditionCheckInterval = i
}

// SetLogStream writes one YAML document per iteration to w, carrying
// the per-move visit counts and means. The stream concatenates into a
// single parseable list.
func (e *Engine) SetLogStream(w io.Writer) {
	e.logStream = w
}

// Root returns the root of the search tree.
func (e *Engine) Root() *Node {
	return e.root
}

// Iterations returns the number of iterations completed so far by the
// current or most recent Search call. It is safe to call while a
// search is running.
func (e *Engine) Iterations() int {
	return int(e.iterationCount.Load())
}

// IsSearching reports whether a Search call is in progress.
func (e *Engine) IsSearching() bool {
	return e.searching.Load()
}

// Elapsed returns the wall-clock duration of the last Search call.
func (e *Engine) Elapsed() time.Duration {
	return e.elapsed
}

// TreeSize returns the number of nodes in the tree, root included.
func (e *Engine) TreeSize() int {
	return e.treeNodes
}

// Search grows the tree until the time budget elapses, the
// termination predicate fires, the stopping condition separates a
// winner, or ctx is canceled, whichever comes first. A timeBudget of
// zero or less means no time bound; stopping is then up to the
// predicate, the stopping condition and ctx. Checks happen only at
// iteration boundaries: an iteration in progress always completes, so
// at least one iteration always runs.
//
// The returned node is the root child with the most visits, ties
// going to the earlier-enumerated move. On cancellation Search
// returns the context's error; the tree grown so far stays available
// through Root and BestNode.
func (e *Engine) Search(ctx context.Context, timeBudget time.Duration, schedule ExplorationSchedule, terminate TerminationPredicate) (*Node, error) {
	if e.root.IsTerminal() {
		return nil, ErrPositionDecided
	}
	if !e.searching.CompareAndSwap(false, true) {
		return nil, ErrAlreadySearching
	}
	defer e.searching.Store(false)
	if schedule == nil {
		schedule = ConstantExploration(DefaultExploration)
	}
	if terminate == nil {
		terminate = Never()
	}
	t0 := time.Now()
	e.iterationCount.Store(0)
	it := 1
	for {
		c := schedule(t0, it)
		node := e.root
		for len(node.children) > 0 {
			node = node.SelectBestChild(c)
		}
		if node.CanExpand() {
			if err := node.Expand(); err != nil {
				return nil, err
			}
			e.treeNodes += len(node.children)
		}
		if e.trackers == nil && len(e.root.children) > 0 {
			e.armTrackers()
		}
		if err := e.simulate(ctx, node); err != nil {
			e.elapsed = time.Since(t0)
			return nil, err
		}
		if e.logStream != nil {
			e.writeLogIteration(it)
		}
		e.iterationCount.Store(uint64(it))
		completed := it
		it++
		if timeBudget > 0 && time.Since(t0) > timeBudget {
			break
		}
		if terminate(t0, it) {
			break
		}
		if err := ctx.Err(); err != nil {
			e.elapsed = time.Since(t0)
			return nil, err
		}
		if e.stoppingCondition != StopNone && completed%e.stopConditionCheckInterval == 0 {
			log.Debug().Int("iterations", completed).Msg("checking-stopping-condition")
			if shouldStop(e.trackers, e.stoppingCondition, completed) {
				log.Info().Int("iterations", completed).Msg("reached stopping condition")
				break
			}
		}
	}
	e.elapsed = time.Since(t0)
	best := e.BestNode()
	log.Debug().
		Int("iterations", e.Iterations()).
		Int("tree-nodes", e.treeNodes).
		Dur("elapsed", e.elapsed).
		Str("best-move", best.move.String()).
		Int("visits", best.visits).
		Msg("search-done")
	return best, nil
}

// BestNode returns the root child with the most visits so far, or nil
// before the root has been expanded. It applies the same
// most-robust-child rule Search uses for its return value.
func (e *Engine) BestNode() *Node {
	if len(e.root.children) == 0 {
		return nil
	}
	best := e.root.children[0]
	for _, child := range e.root.children[1:] {
		if child.visits > best.visits {
			best = child
		}
	}
	return best
}

func (e *Engine) armTrackers() {
	e.trackers = lo.Map(e.root.children, func(child *Node, _ int) *rootTracker {
		child.stat = &stats.Statistic{}
		return &rootTracker{node: child, stat: child.stat}
	})
}

// simulate evaluates the rollout policy after an expansion: on the
// node itself when it is terminal, otherwise once per child, each
// outcome backpropagating independently.
func (e *Engine) simulate(ctx context.Context, node *Node) error {
	if node.IsTerminal() {
		o, err := e.policy.Evaluate(ctx, node.state)
		if err != nil {
			return err
		}
		node.recordOutcome(o)
		return nil
	}
	for _, child := range node.children {
		o, err := e.policy.Evaluate(ctx, child.state)
		if err != nil {
			return err
		}
		child.recordOutcome(o)
	}
	return nil
}

func (e *Engine) writeLogIteration(it int) {
	logIter := LogIteration{Iteration: it, Plays: make([]LogPlay, 0, len(e.root.children))}
	for _, child := range e.root.children {
		logIter.Plays = append(logIter.Plays, LogPlay{
			Play:   child.move.String(),
			Visits: child.visits,
			Mean:   -child.Mean(),
		})
	}
	out, err := yaml.Marshal([]LogIteration{logIter})
	if err != nil {
		log.Err(err).Msg("marshalling log")
		return
	}
	e.logStream.Write(out)
}

// Details renders the per-move statistics of the root, most-visited
// first. Means and confidence intervals are from the root player's
// perspective.
func (e *Engine) Details() string {
	var ss strings.Builder
	children := make([]*Node, len(e.root.children))
	copy(children, e.root.children)
	sort.Slice(children, func(i, j int) bool {
		if children[i].visits == children[j].visits {
			return -children[i].Mean() > -children[j].Mean()
		}
		return children[i].visits > children[j].visits
	})
	ignored := map[*Node]bool{}
	for _, rt := range e.trackers {
		if rt.ignore {
			ignored[rt.node] = true
		}
	}
	fmt.Fprintf(&ss, "%-8s%-10s%-16s\n", "Play", "Visits", "Mean")
	for _, child := range children {
		var meanStats string
		if child.stat != nil {
			meanStats = fmt.Sprintf("%.3f±%.3f", child.stat.Mean(), stats.Z99*child.stat.StandardError())
		} else {
			meanStats = fmt.Sprintf("%.3f", -child.Mean())
		}
		mark := ""
		if ignored[child] {
			mark = "❌"
		}
		fmt.Fprintf(&ss, "%-8s%-10d%-16s%s\n", child.move.String(), child.visits, meanStats, mark)
	}
	fmt.Fprintf(&ss, "Iterations: %d (intervals are 99%% confidence, ❌ marks plays cut off early)\n", e.Iterations())
	return ss.String()
}

// LogIteration is a struct meant for serializing to a log-file, for
// debug and other purposes.
type LogIteration struct {
	Iteration int       `json:"iteration" yaml:"iteration"`
	Plays     []LogPlay `json:"plays" yaml:"plays"`
}

// LogPlay is a single root move's running statistics.
type LogPlay struct {
	Play   string `json:"play" yaml:"play"`
	Visits int    `json:"visits" yaml:"visits"`
	// Mean is from the root player's perspective.
	Mean float64 `json:"mean" yaml:"mean"`
}
