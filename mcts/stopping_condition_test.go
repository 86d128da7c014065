package mcts

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/morris/stats"
)

func tracker(samples ...float64) *rootTracker {
	rt := &rootTracker{node: &Node{}, stat: &stats.Statistic{}}
	for _, v := range samples {
		rt.stat.Push(v)
	}
	return rt
}

func pushN(rt *rootTracker, v float64, n int) {
	for i := 0; i < n; i++ {
		rt.stat.Push(v)
	}
}

func TestPassTest(t *testing.T) {
	is := is.New(t)
	is.True(passTest(1, 0, -1, 0))
	is.True(!passTest(0.5, 0.2, 0.45, 0.2))
	// touching intervals are not separation
	is.True(!passTest(0.5, 0.1, 0.3, 0.1))
	is.True(passTest(0.5, 0.09, 0.3, 0.1))
}

func TestShouldStopSeparatesARunawayWinner(t *testing.T) {
	is := is.New(t)
	winner := tracker()
	loser := tracker()
	pushN(winner, 1, 30)
	pushN(loser, -1, 30)
	is.True(shouldStop([]*rootTracker{winner, loser}, Stop95, 100))
	is.True(loser.ignore)
	is.True(!winner.ignore)
}

func TestShouldStopKeepsOverlappingContenders(t *testing.T) {
	is := is.New(t)
	a := tracker()
	pushN(a, 1, 15)
	pushN(a, 0, 15)
	b := tracker()
	pushN(b, 0.9, 15)
	pushN(b, 0, 15)
	is.True(!shouldStop([]*rootTracker{a, b}, Stop95, 100))
	is.True(!a.ignore)
	is.True(!b.ignore)
}

func TestShouldStopHonorsTheIterationsCutoff(t *testing.T) {
	is := is.New(t)
	a := tracker()
	pushN(a, 1, 15)
	pushN(a, 0, 15)
	b := tracker()
	pushN(b, 0.9, 15)
	pushN(b, 0, 15)
	is.True(shouldStop([]*rootTracker{a, b}, Stop95, IterationsCutoff+1))
}

func TestShouldStopWithASinglePlay(t *testing.T) {
	is := is.New(t)
	is.True(shouldStop([]*rootTracker{tracker(1, 1, 1)}, Stop95, 100))
}

func TestShouldStopIgnoresStayIgnored(t *testing.T) {
	is := is.New(t)
	winner := tracker()
	pushN(winner, 1, 15)
	pushN(winner, 0.2, 15)
	mid := tracker()
	pushN(mid, 0.9, 15)
	pushN(mid, 0.1, 15)
	loser := tracker()
	pushN(loser, -1, 30)

	trackers := []*rootTracker{winner, mid, loser}
	is.True(!shouldStop(trackers, Stop95, 100))
	is.True(loser.ignore)
	is.True(!mid.ignore)

	// once mid collapses too, only the winner is left standing
	pushN(mid, -1, 100)
	is.True(shouldStop(trackers, Stop95, 200))
	is.True(mid.ignore)
	is.True(loser.ignore)
}
