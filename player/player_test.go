package player

import (
	"context"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/tictactoe"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func seededRNG(b byte) *frand.RNG {
	seed := make([]byte, 32)
	seed[0] = b
	return frand.NewCustom(seed, 1024, 12)
}

func TestExactPlayerCompletesTheRow(t *testing.T) {
	is := is.New(t)
	p := NewExact()
	m, err := p.BestMove(context.Background(), tictactoe.MustParse("XX./OO./... X"))
	is.NoErr(err)
	is.Equal(m, tictactoe.Sq(3))
}

func TestExactPlayerOpensDeterministically(t *testing.T) {
	is := is.New(t)
	p := NewExact()
	m, err := p.BestMove(context.Background(), tictactoe.New())
	is.NoErr(err)
	// first-enumerated among equally good openings
	is.Equal(m, tictactoe.Sq(9))
}

func TestMctsPlayerFindsTheOnlyWin(t *testing.T) {
	is := is.New(t)
	p := NewMcts("mcts-exact", mcts.NewExactRollout())
	p.SetIterations(200)
	m, err := p.BestMove(context.Background(), tictactoe.MustParse("XX./.OO/... X"))
	is.NoErr(err)
	is.Equal(m, tictactoe.Sq(3))
}

func TestRandomPlayerStaysLegal(t *testing.T) {
	is := is.New(t)
	p := NewRandom(seededRNG(1))
	st := tictactoe.MustParse("XOX/OXO/... X")
	legal := map[string]bool{}
	for _, m := range st.Moves() {
		legal[m.String()] = true
	}
	for i := 0; i < 50; i++ {
		m, err := p.BestMove(context.Background(), st)
		is.NoErr(err)
		is.True(legal[m.String()])
	}
}

func TestRandomPlayerIsDeterministicWithASeed(t *testing.T) {
	is := is.New(t)
	run := func() []string {
		p := NewRandom(seededRNG(2))
		moves := make([]string, 0, 30)
		for i := 0; i < 30; i++ {
			m, err := p.BestMove(context.Background(), tictactoe.New())
			is.NoErr(err)
			moves = append(moves, m.String())
		}
		return moves
	}
	is.Equal(run(), run())
}

func TestPlayerNames(t *testing.T) {
	is := is.New(t)
	is.Equal(NewExact().Name(), "exact")
	is.Equal(NewRandom(nil).Name(), "random")
	is.Equal(NewMcts("mcts-random", nil).Name(), "mcts-random")
}
