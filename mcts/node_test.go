package mcts

import (
	"math"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/morris/stats"
	"github.com/domino14/morris/tictactoe"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestExpandMaterializesEveryChild(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.True(root.CanExpand())
	is.NoErr(root.Expand())
	is.True(!root.CanExpand())
	is.Equal(len(root.Children()), 9)
	// children follow the state's move enumeration order
	is.Equal(root.Children()[0].Move(), tictactoe.Sq(9))
	is.Equal(root.Children()[8].Move(), tictactoe.Sq(1))
	for _, child := range root.Children() {
		is.Equal(child.Parent(), root)
		is.Equal(child.Visits(), 0)
		is.Equal(child.Value(), 0.0)
		is.Equal(len(child.Children()), 0)
	}
}

func TestExpandPanicsOnExpandedNode(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	defer func() {
		is.True(recover() != nil)
	}()
	root.Expand()
}

func TestExpandPanicsOnTerminalNode(t *testing.T) {
	is := is.New(t)
	term := newNode(tictactoe.MustParse("XXX/OO./..."), nil, nil)
	is.True(term.IsTerminal())
	is.True(!term.CanExpand())
	defer func() {
		is.True(recover() != nil)
	}()
	term.Expand()
}

func TestBackpropagationAlternatesSign(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	a := root.Children()[0]
	is.NoErr(a.Expand())
	b := a.Children()[0]

	b.recordOutcome(1)
	is.Equal(b.Value(), 1.0)
	is.Equal(b.Visits(), 1)
	is.Equal(a.Value(), -1.0)
	is.Equal(a.Visits(), 1)
	is.Equal(root.Value(), 1.0)
	is.Equal(root.Visits(), 1)

	b.recordOutcome(-1)
	is.Equal(b.Value(), 0.0)
	is.Equal(a.Value(), 0.0)
	is.Equal(root.Value(), 0.0)
	is.Equal(root.Visits(), 2)
}

func TestTrackedStatSamplesRootPerspective(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	a := root.Children()[0]
	a.stat = &stats.Statistic{}
	is.NoErr(a.Expand())
	b := a.Children()[0]

	// +1 for b's mover is -1 for a's mover and +1 again for the root
	b.recordOutcome(1)
	is.Equal(a.stat.Iterations(), 1)
	is.True(stats.FuzzyEqual(a.stat.Mean(), 1))
	a.recordOutcome(-1)
	is.Equal(a.stat.Iterations(), 2)
	is.True(stats.FuzzyEqual(a.stat.Mean(), 1))
}

func TestUCTScore(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	child := root.Children()[0]
	child.visits = 2
	child.value = -1
	root.visits = 10

	// mean -0.5 for the child is +0.5 from the root, plus the bonus
	want := 0.5 + 1.4*math.Sqrt(math.Log(10)/2)
	is.True(math.Abs(child.uctInverted(1.4)-want) < 1e-12)

	// with no exploration only the inverted mean remains
	is.True(math.Abs(child.uctInverted(0)-0.5) < 1e-12)
}

func TestSelectBestChildPicksHighestScore(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	for _, child := range root.Children() {
		child.visits = 1
	}
	root.visits = 9
	// a child value of -1 is the best outcome from the root's side
	root.Children()[3].value = -1
	is.Equal(root.SelectBestChild(1), root.Children()[3])
}

func TestSelectBestChildTieBreaksFirstEncountered(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	for _, child := range root.Children() {
		child.visits = 1
	}
	root.visits = 9
	is.Equal(root.SelectBestChild(1), root.Children()[0])
}

func TestSelectBestChildOnTerminalReturnsSelf(t *testing.T) {
	is := is.New(t)
	term := newNode(tictactoe.MustParse("XXX/OO./..."), nil, nil)
	is.Equal(term.SelectBestChild(1), term)
}

func TestSelectBestChildPanicsOnUnexpandedNode(t *testing.T) {
	is := is.New(t)
	fresh := newNode(tictactoe.New(), nil, nil)
	defer func() {
		is.True(recover() != nil)
	}()
	fresh.SelectBestChild(1)
}

func TestUCTPanicsOnUnvisitedChild(t *testing.T) {
	is := is.New(t)
	root := newNode(tictactoe.New(), nil, nil)
	is.NoErr(root.Expand())
	root.visits = 1
	defer func() {
		is.True(recover() != nil)
	}()
	root.Children()[0].uctInverted(1)
}
