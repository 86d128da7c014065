package automatic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestSeedsRoundTrip(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")

	seeds, err := GenerateSeeds(5)
	is.NoErr(err)
	is.Equal(len(seeds), 5)
	is.NoErr(SaveSeeds(seeds, path))

	data, err := os.ReadFile(path)
	is.NoErr(err)
	is.True(strings.HasPrefix(string(data), "#"))

	loaded, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(loaded, seeds)
}

func TestLoadSeedsSkipsCommentsAndBlankLines(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")

	seeds, err := GenerateSeeds(2)
	is.NoErr(err)
	is.NoErr(SaveSeeds(seeds, path))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	is.NoErr(err)
	_, err = f.WriteString("\n# trailing comment\n\n")
	is.NoErr(err)
	is.NoErr(f.Close())

	loaded, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(loaded, seeds)
}

func TestLoadSeedsRejectsShortSeeds(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")
	// base64 of 16 bytes, not 32
	is.NoErr(os.WriteFile(path, []byte("AAAAAAAAAAAAAAAAAAAAAA\n"), 0644))

	_, err := LoadSeeds(path)
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "invalid seed length"))
}

func TestLoadSeedsRejectsGarbage(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")
	is.NoErr(os.WriteFile(path, []byte("not/base64/url!!\n"), 0644))

	_, err := LoadSeeds(path)
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "failed to decode seed at line 1"))
}

func TestRNGFromSeedIsDeterministic(t *testing.T) {
	is := is.New(t)
	var seed [32]byte
	seed[0] = 42

	a := RNGFromSeed(seed)
	b := RNGFromSeed(seed)
	for i := 0; i < 32; i++ {
		is.Equal(a.Uint64n(1000), b.Uint64n(1000))
	}
}
