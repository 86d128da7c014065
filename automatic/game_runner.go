// Package automatic contains the logic for playing engines against
// each other: single death-match series, batched comp-vs-comp runs,
// and the sinks their results flow into.
package automatic

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/morris/game"
	"github.com/domino14/morris/player"
	"github.com/domino14/morris/stats"
	"github.com/domino14/morris/tictactoe"
)

// GameResult is one finished game, ready for the CSV log or the
// results store.
type GameResult struct {
	GameID      string
	Player1     string
	Player2     string
	Winner      string // empty on a tie
	Loser       string
	Tie         bool
	FirstPlayer string
	Plies       int
}

// CSVRow renders the result as one line of the game log.
func (gr *GameResult) CSVRow() string {
	return fmt.Sprintf("%s,%s,%s,%t,%s,%d\n",
		gr.GameID, gr.Winner, gr.Loser, gr.Tie, gr.FirstPlayer, gr.Plies)
}

// csvHeader matches CSVRow; AnalyzeLogFile keys off the first cell.
const csvHeader = "gameID,winner,loser,tie,firstPlayer,plies\n"

// GameRunner is the master struct here for the automatic game logic.
// A coin flip decides who moves first in every game; wins score one
// point and ties half a point each, accumulated across the series.
type GameRunner struct {
	players [2]player.Player
	names   [2]string
	start   func() game.State
	rng     *frand.RNG
	logchan chan string

	scores      [2]float64
	gamesPlayed int
	pliesStats  stats.Statistic
}

// NewGameRunner instantiates and initializes a game runner. Results
// are written to logchan as CSV rows when it is non-nil.
func NewGameRunner(logchan chan string, p1, p2 player.Player) *GameRunner {
	return &GameRunner{
		players: [2]player.Player{p1, p2},
		names:   [2]string{p1.Name() + "-1", p2.Name() + "-2"},
		start:   func() game.State { return tictactoe.New() },
		rng:     frand.New(),
		logchan: logchan,
	}
}

// SetRNG replaces the runner's random source (the who-starts coin).
// Seed it together with the players' sources for reproducible games.
func (r *GameRunner) SetRNG(rng *frand.RNG) {
	r.rng = rng
}

// SetStartState replaces the factory for each game's initial position.
func (r *GameRunner) SetStartState(f func() game.State) {
	r.start = f
}

func (r *GameRunner) Names() [2]string {
	return r.names
}

func (r *GameRunner) Scores() [2]float64 {
	return r.scores
}

func (r *GameRunner) GamesPlayed() int {
	return r.gamesPlayed
}

func (r *GameRunner) PliesStats() *stats.Statistic {
	return &r.pliesStats
}

// playGame plays a single game to the end and tallies it.
func (r *GameRunner) playGame(ctx context.Context, gameID string) (*GameResult, error) {
	st := r.start()
	i := r.rng.Intn(2)
	firstIdx := i & 1
	plies := 0
	for !st.Decided() {
		p := r.players[i&1]
		m, err := p.BestMove(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("%s choosing a move: %w", r.names[i&1], err)
		}
		next, err := st.Apply(m)
		if err != nil {
			return nil, fmt.Errorf("%s played %v: %w", r.names[i&1], m, err)
		}
		st = next
		i++
		plies++
	}
	res := &GameResult{
		GameID:      gameID,
		Player1:     r.names[0],
		Player2:     r.names[1],
		FirstPlayer: r.names[firstIdx],
		Plies:       plies,
	}
	if st.Outcome() != 0 {
		// the player left to move in the finished position lost
		loserIdx := i & 1
		res.Winner = r.names[1-loserIdx]
		res.Loser = r.names[loserIdx]
		r.scores[1-loserIdx]++
	} else {
		res.Tie = true
		r.scores[0] += 0.5
		r.scores[1] += 0.5
	}
	r.gamesPlayed++
	r.pliesStats.Push(float64(plies))
	if r.logchan != nil {
		r.logchan <- res.CSVRow()
	}
	return res, nil
}

// PlaySeries plays n games back to back on this runner, accumulating
// the tally. It stops early if ctx is canceled.
func (r *GameRunner) PlaySeries(ctx context.Context, n int) error {
	for g := 1; g <= n; g++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.playGame(ctx, strconv.Itoa(g)); err != nil {
			return err
		}
		if g%100 == 0 {
			log.Info().
				Int("games", g).
				Float64(r.names[0], r.scores[0]).
				Float64(r.names[1], r.scores[1]).
				Msg("series-progress")
		}
	}
	return nil
}

// Summary renders the running tally of the series.
func (r *GameRunner) Summary() string {
	if r.gamesPlayed == 0 {
		return "No games played.\n"
	}
	n := float64(r.gamesPlayed)
	s := fmt.Sprintf("Games played: %d\n", r.gamesPlayed)
	s += fmt.Sprintf("%v: %.1f (%.3f%%)\n", r.names[0], r.scores[0], 100.0*r.scores[0]/n)
	s += fmt.Sprintf("%v: %.1f (%.3f%%)\n", r.names[1], r.scores[1], 100.0*r.scores[1]/n)
	s += fmt.Sprintf("Mean plies: %.3f  Stdev: %.3f\n", r.pliesStats.Mean(), r.pliesStats.Stdev())
	return s
}
