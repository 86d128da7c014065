package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/morris/automatic"
	"github.com/domino14/morris/config"
	"github.com/domino14/morris/negamax"
	"github.com/domino14/morris/tictactoe"
)

// testController builds a controller without a readline instance; the
// handlers never print, so none of these tests need one.
func testController(t *testing.T) *ShellController {
	t.Helper()
	cfg := &config.Config{}
	err := cfg.Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &ShellController{
		config: cfg,
		cur:    tictactoe.New(),
		solver: &negamax.Solver{},
	}
}

func exec(t *testing.T, sc *ShellController, line string) (*Response, error) {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		t.Fatalf("bad test command %q: %v", line, err)
	}
	return sc.executeCommand(cmd)
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -output /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"output": []string{"/path/to/log.txt"}}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"autoplay exact random -games 500 -output foo.txt",
			&shellcmd{"autoplay",
				[]string{"exact", "random"},
				CmdOptions{"games": []string{"500"}, "output": []string{"foo.txt"}}},
			nil,
		},
		{"sim 1000 -stop 95",
			&shellcmd{"sim", []string{"1000"}, CmdOptions{"stop": []string{"95"}}},
			nil},
		{"autoplay exact random -output",
			nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestMoveAndUndo(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "move 5")
	is.NoErr(err)
	_, err = exec(t, sc, "m 1")
	is.NoErr(err)
	is.Equal(sc.cur.Notation(), "O...X.... X")

	// occupied square
	_, err = exec(t, sc, "move 5")
	is.True(err != nil)
	is.Equal(sc.cur.Depth(), 2)

	_, err = exec(t, sc, "undo")
	is.NoErr(err)
	is.Equal(sc.cur.Notation(), "....X.... O")
	_, err = exec(t, sc, "u")
	is.NoErr(err)
	is.Equal(sc.cur, tictactoe.New())

	_, err = exec(t, sc, "undo")
	is.True(err != nil) // nothing left to undo
}

func TestMoveRefusedWhenOver(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	sc.cur = tictactoe.MustParse("XXXOO.... O")

	_, err := exec(t, sc, "move 9")
	is.True(err != nil)
}

func TestPositionCommand(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "position X.O/.X./O.. O")
	is.NoErr(err)
	is.Equal(sc.cur, tictactoe.MustParse("X.O.X.O.. O"))

	// no argument prints the notation without changing anything
	r, err := exec(t, sc, "position")
	is.NoErr(err)
	is.Equal(r.message, "X.O.X.O.. O")

	_, err = exec(t, sc, "position XXXX.....")
	is.True(err != nil) // impossible piece counts
	is.Equal(sc.cur, tictactoe.MustParse("X.O.X.O.. O"))
}

func TestNewClearsGame(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "move 5")
	is.NoErr(err)
	_, err = exec(t, sc, "new")
	is.NoErr(err)
	is.Equal(sc.cur, tictactoe.New())
	is.Equal(len(sc.history), 0)
}

func TestSolveCommand(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	// X completes the top row.
	sc.cur = tictactoe.MustParse("XX.OO.... X")

	r, err := exec(t, sc, "solve")
	is.NoErr(err)
	is.True(strings.Contains(r.message, "Value: +1"))
	is.True(strings.Contains(r.message, "X wins with best play"))
	is.True(strings.Contains(r.message, "Best move: 3"))
}

func TestSolveRefusedWhenOver(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	sc.cur = tictactoe.MustParse("XXXOO.... O")

	_, err := exec(t, sc, "solve")
	is.True(err != nil)
}

func TestPlayEngineReplies(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	r, err := exec(t, sc, "play exact")
	is.NoErr(err)
	is.True(strings.Contains(r.message, "exact"))

	_, err = exec(t, sc, "move 5")
	is.NoErr(err)
	is.Equal(sc.cur.Depth(), 2) // our move plus the reply
	is.Equal(sc.cur.ToMove(), "X")
	is.Equal(len(sc.history), 2)

	_, err = exec(t, sc, "play off")
	is.NoErr(err)
	_, err = exec(t, sc, "new")
	is.NoErr(err)
	_, err = exec(t, sc, "move 5")
	is.NoErr(err)
	is.Equal(sc.cur.Depth(), 1) // no reply this time
}

func TestPlayUnknownEngine(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "play alphabeta9000")
	is.True(err != nil)
}

func TestSetAndOptions(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "set sim-iterations 123")
	is.NoErr(err)
	is.Equal(sc.config.GetInt(config.SimIterationsKey), 123)

	r, err := exec(t, sc, "set sim-iterations")
	is.NoErr(err)
	is.Equal(r.message, "sim-iterations: 123")

	_, err = exec(t, sc, "set no-such-setting 5")
	is.True(err != nil)

	r, err = exec(t, sc, "options")
	is.NoErr(err)
	is.True(strings.Contains(r.message, "sim-iterations: 123"))
}

func TestSimValidation(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	_, err := exec(t, sc, "sim 100 -stop 90")
	is.True(err != nil) // bad confidence level

	_, err = exec(t, sc, "sim details")
	is.Equal(err, errNoSim)

	sc.cur = tictactoe.MustParse("XXXOO.... O")
	_, err = exec(t, sc, "sim 100")
	is.True(err != nil) // game over
}

func TestSeedsCommand(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")

	_, err := exec(t, sc, "seeds 7 "+path)
	is.NoErr(err)

	seeds, err := automatic.LoadSeeds(path)
	is.NoErr(err)
	is.Equal(len(seeds), 7)
}

func TestHelpTopics(t *testing.T) {
	is := is.New(t)
	// every completable command has an embedded help topic
	for _, name := range commandNames {
		r, err := usageTopic(name)
		is.NoErr(err)
		is.True(len(r.message) > 0)
	}
	_, err := usageTopic("no-such-topic")
	is.True(err != nil)
}

func TestExecuteExit(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	sig := make(chan os.Signal, 1)

	is.True(sc.Execute(sig, "exit"))
	is.True(len(sig) == 1)
}
