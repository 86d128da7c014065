package mcts

import (
	"fmt"
	"math"

	"github.com/domino14/morris/game"
	"github.com/domino14/morris/stats"
)

// Node is a single position in the search tree. Accumulated statistics
// are always relative to the player to move in the node's own state;
// a parent therefore reads its children's means negated.
type Node struct {
	state  game.State
	move   game.Move // the move that produced state; nil at the root
	parent *Node
	// children is nil until the node is expanded, and is then fully
	// populated in the state's move enumeration order.
	children []*Node

	visits int
	value  float64

	// stat is only armed on root children, for confidence cutoffs and
	// reporting. Samples are pushed from the root player's perspective.
	stat *stats.Statistic
}

func newNode(st game.State, m game.Move, parent *Node) *Node {
	return &Node{state: st, move: m, parent: parent}
}

// State returns the position this node stands for.
func (n *Node) State() game.State {
	return n.state
}

// Move returns the move that led from the parent to this node. It is
// nil at the root.
func (n *Node) Move() game.Move {
	return n.move
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Visits() int {
	return n.visits
}

// Value returns the sum of all outcomes recorded at this node,
// relative to the player to move in its state.
func (n *Node) Value() float64 {
	return n.value
}

// Mean returns Value averaged over visits.
func (n *Node) Mean() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.value / float64(n.visits)
}

// IsTerminal reports whether the node's position is already decided.
func (n *Node) IsTerminal() bool {
	return n.state.Decided()
}

// CanExpand reports whether the node still needs expanding: not
// terminal, and no children materialized yet.
func (n *Node) CanExpand() bool {
	return !n.IsTerminal() && len(n.children) == 0
}

// Expand materializes every child of the node at once, in move
// enumeration order. Calling it on a node that cannot be expanded is a
// programming error and panics.
func (n *Node) Expand() error {
	if !n.CanExpand() {
		panic("expand called on a node that cannot be expanded")
	}
	moves := n.state.Moves()
	children := make([]*Node, 0, len(moves))
	for _, m := range moves {
		st, err := n.state.Apply(m)
		if err != nil {
			return fmt.Errorf("expanding child %v: %w", m, err)
		}
		children = append(children, newNode(st, m, n))
	}
	n.children = children
	return nil
}

// uctInverted scores this node for selection by its parent: the mean
// outcome negated into the parent's perspective, plus the exploration
// bonus. Requires a visited node under a visited parent.
func (n *Node) uctInverted(c float64) float64 {
	if n.visits == 0 || n.parent == nil || n.parent.visits == 0 {
		panic("uct needs a visited node under a visited parent")
	}
	exploit := -n.value / float64(n.visits)
	explore := c * math.Sqrt(math.Log(float64(n.parent.visits))/float64(n.visits))
	return exploit + explore
}

// SelectBestChild returns the child maximizing uctInverted with
// exploration constant c; ties go to the earlier-enumerated child. A
// terminal node returns itself. Calling this on an unexpanded
// non-terminal node is a programming error and panics.
func (n *Node) SelectBestChild(c float64) *Node {
	if n.CanExpand() {
		panic("selection reached an unexpanded node")
	}
	if n.IsTerminal() {
		return n
	}
	best := n.children[0]
	bestUCT := best.uctInverted(c)
	for _, child := range n.children[1:] {
		if u := child.uctInverted(c); u > bestUCT {
			best = child
			bestUCT = u
		}
	}
	return best
}

// recordOutcome adds an outcome observed at this node and
// backpropagates it to the root, flipping sign at every level so each
// ancestor accumulates values in its own mover's perspective.
func (n *Node) recordOutcome(o float64) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.value += o
		cur.visits++
		if cur.stat != nil {
			// the parent of a tracked node is the root
			cur.stat.Push(-o)
		}
		o = -o
	}
}
