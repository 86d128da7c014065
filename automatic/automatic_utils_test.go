package automatic

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/morris/player"
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

func randomFactory(rng *frand.RNG) (player.Player, player.Player) {
	return player.NewRandom(rng), player.NewRandom(rng)
}

func TestStartCompVCompGames(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "games.csv")
	dbFile := filepath.Join(dir, "games.db")

	err := StartCompVCompGames(context.Background(), randomFactory, 50, 4, csvFile, "", dbFile)
	is.NoErr(err)
	is.Equal(CVCCounter.Value(), int64(50))

	data, err := os.ReadFile(csvFile)
	is.NoErr(err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	is.Equal(len(lines), 51) // header plus one row per game
	is.Equal(lines[0], strings.TrimRight(csvHeader, "\n"))

	store, err := OpenResultsStore(dbFile)
	is.NoErr(err)
	defer store.Close()
	n, err := store.GamesRecorded()
	is.NoErr(err)
	is.Equal(n, 50)
}

func TestStartCompVCompGamesRefusesToOverlap(t *testing.T) {
	is := is.New(t)
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	err := StartCompVCompGames(context.Background(), randomFactory, 1, 1,
		filepath.Join(t.TempDir(), "games.csv"), "", "")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "already being played"))
}

func TestSeededSeriesIsReproducible(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "seeds.txt")

	seeds, err := GenerateSeeds(10)
	is.NoErr(err)
	is.NoErr(SaveSeeds(seeds, seedFile))

	rowsByID := func(path string) map[string]string {
		data, err := os.ReadFile(path)
		is.NoErr(err)
		rows := map[string]string{}
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n")[1:] {
			id := line[:strings.Index(line, ",")]
			rows[id] = line
		}
		return rows
	}

	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	is.NoErr(StartCompVCompGames(context.Background(), randomFactory, 10, 3, first, seedFile, ""))
	is.NoErr(StartCompVCompGames(context.Background(), randomFactory, 10, 3, second, seedFile, ""))

	a, b := rowsByID(first), rowsByID(second)
	is.Equal(len(a), 10)
	// the thread pool scrambles row order but game i is the same game
	for id, row := range a {
		is.Equal(b[id], row)
	}
}

func TestStartCompVCompGamesNeedsEnoughSeeds(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "seeds.txt")
	seeds, err := GenerateSeeds(3)
	is.NoErr(err)
	is.NoErr(SaveSeeds(seeds, seedFile))

	err = StartCompVCompGames(context.Background(), randomFactory, 5, 2,
		filepath.Join(dir, "games.csv"), seedFile, "")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "need 5"))
}
