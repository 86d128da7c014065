package automatic

import (
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestResultsStoreTally(t *testing.T) {
	is := is.New(t)
	store, err := OpenResultsStore(filepath.Join(t.TempDir(), "games.db"))
	is.NoErr(err)
	defer store.Close()

	games := []*GameResult{
		{GameID: "1", Player1: "mcts-1", Player2: "random-2", Winner: "mcts-1",
			Loser: "random-2", FirstPlayer: "mcts-1", Plies: 5},
		{GameID: "2", Player1: "mcts-1", Player2: "random-2", Winner: "random-2",
			Loser: "mcts-1", FirstPlayer: "random-2", Plies: 7},
		{GameID: "3", Player1: "mcts-1", Player2: "random-2", Tie: true,
			FirstPlayer: "mcts-1", Plies: 9},
	}
	for _, g := range games {
		is.NoErr(store.WriteGame(g))
	}

	n, err := store.GamesRecorded()
	is.NoErr(err)
	is.Equal(n, 3)

	scores, err := store.Tally()
	is.NoErr(err)
	is.Equal(scores["mcts-1"], 1.5)
	is.Equal(scores["random-2"], 1.5)
}

func TestResultsStoreSurvivesReopen(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "games.db")

	store, err := OpenResultsStore(path)
	is.NoErr(err)
	is.NoErr(store.WriteGame(&GameResult{
		GameID: "1", Player1: "a-1", Player2: "b-2", Winner: "a-1",
		Loser: "b-2", FirstPlayer: "a-1", Plies: 6,
	}))
	is.NoErr(store.Close())

	store, err = OpenResultsStore(path)
	is.NoErr(err)
	defer store.Close()
	n, err := store.GamesRecorded()
	is.NoErr(err)
	is.Equal(n, 1)
}
