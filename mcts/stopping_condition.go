package mcts

import (
	"sort"

	"github.com/domino14/morris/stats"
	"github.com/rs/zerolog/log"
)

// StoppingCondition lets a search halt before its time budget or
// termination predicate fires, once one root move is statistically
// separated from the rest.
type StoppingCondition int

const (
	StopNone StoppingCondition = iota
	Stop95
	Stop98
	Stop99
)

// IterationsCutoff stops confidence-based searches unconditionally. By
// then the visit counts have long overwhelmed the confidence test.
const IterationsCutoff = 5000

const defaultStopCheckInterval = 128

// rootTracker follows one root child across the search. Its samples
// are the backpropagated outcomes seen from the root player's
// perspective, so means are directly comparable between moves.
type rootTracker struct {
	node   *Node
	stat   *stats.Statistic
	ignore bool
}

func (rt *rootTracker) Ignore() {
	rt.ignore = true
}

// use stats to figure out when to stop searching.

func shouldStop(trackers []*rootTracker, sc StoppingCondition, iterationCount int) bool {
	// This function runs as the search is ongoing. So we should be
	// careful what we do with memory here.
	if len(trackers) < 2 {
		return true
	}
	if iterationCount > IterationsCutoff {
		return true
	}
	// Otherwise, do some statistics.
	// shallow copy the array so we can sort it/play with it.
	c := make([]*rootTracker, len(trackers))
	// count ignored plays
	ignoredPlays := 0
	for i := range c {
		c[i] = trackers[i]
		if c[i].ignore {
			ignoredPlays++
		}
	}
	if ignoredPlays >= len(c)-1 {
		// if there is only 1 unignored play, exit.
		return true
	}

	// sort copy by mean outcome.
	sort.Slice(c, func(i, j int) bool {
		if c[i].stat.Mean() == c[j].stat.Mean() {
			return c[i].node.visits > c[j].node.visits
		}
		return c[i].stat.Mean() > c[j].stat.Mean()
	})

	// we want to cut off plays that have no chance of winning.
	// assume the very top play is the winner, and then cut off plays that have
	// no chance of catching up.
	// "no chance" is of course defined by the stopping condition :)

	var ci float64
	switch sc {
	case Stop95:
		ci = stats.Z95
	case Stop98:
		ci = stats.Z98
	case Stop99:
		ci = stats.Z99
	}

	tentativeWinner := c[0]
	μ := tentativeWinner.stat.Mean()
	e := ci * tentativeWinner.stat.StandardError()
	newIgnored := 0
	// assume standard normal distribution (?)
	for _, rt := range c[1:] {
		if rt.ignore {
			continue
		}
		μi := rt.stat.Mean()
		ei := ci * rt.stat.StandardError()
		if passTest(μ, e, μi, ei) {
			rt.Ignore()
			newIgnored++
		}
	}
	if newIgnored > 0 {
		log.Debug().Int("newIgnored", newIgnored).Msg("search-cut-off")
	}
	if ignoredPlays+newIgnored >= len(c)-1 {
		// if there is only 1 unignored play, exit.
		return true
	}
	return false
}

// passTest: determine if a random variable X > Y with the given
// confidence level; return true if X > Y.
func passTest(μ, e, μi, ei float64) bool {
	// X > Y if (μ - e) > (μi + ei)
	return (μ - e) > (μi + ei)
}
