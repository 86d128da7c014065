package shell

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"lukechampine.com/frand"

	"github.com/domino14/morris/automatic"
	"github.com/domino14/morris/config"
	"github.com/domino14/morris/game"
	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/player"
	"github.com/domino14/morris/tictactoe"
)

// printer formats counts with thousands separators.
var printer = message.NewPrinter(language.English)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

// squareKey is printed beside the board so users do not have to
// memorize the numbering.
const squareKey = "1|2|3\n-+-+-\n4|5|6\n-+-+-\n7|8|9"

// displayText renders the current position next to the square key,
// with a status line underneath.
func (sc *ShellController) displayText() string {
	board := strings.Split(sc.cur.String(), "\n")
	key := strings.Split(squareKey, "\n")
	var sb strings.Builder
	for i := range board {
		fmt.Fprintf(&sb, "%v   %v\n", board[i], key[i])
	}
	sb.WriteString("\n")
	if sc.cur.Decided() {
		sb.WriteString(resultText(sc.cur))
	} else {
		fmt.Fprintf(&sb, "%v to move (%v)", sc.cur.ToMove(), sc.cur.Notation())
	}
	return sb.String()
}

// resultText describes a decided position. The outcome is relative to
// the player to move, and in normal play the winning move is always
// the previous one, so a Loss here means the other side just won.
func resultText(p tictactoe.Position) string {
	switch p.Outcome() {
	case game.Loss:
		return "Game over: " + otherSide(p.ToMove()) + " wins"
	case game.Win:
		return "Game over: " + p.ToMove() + " wins"
	default:
		return "Game over: draw"
	}
}

func otherSide(side string) string {
	if side == "X" {
		return "O"
	}
	return "X"
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	sc.cur = tictactoe.New()
	sc.history = sc.history[:0]
	sc.simmer = nil
	return msg(sc.displayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.displayText()), nil
}

func (sc *ShellController) playMove(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	if cmd.args == nil {
		return nil, errors.New("need a square, 1 through 9")
	}
	if sc.cur.Decided() {
		return nil, errors.New("the game is over; `new` or `undo` first")
	}
	sq, err := tictactoe.ParseSquare(cmd.args[0])
	if err != nil {
		return nil, err
	}
	next, err := sc.cur.Apply(sq)
	if err != nil {
		return nil, err
	}
	sc.history = append(sc.history, sc.cur)
	sc.cur = next.(tictactoe.Position)

	var sb strings.Builder
	if sc.opponent != nil && !sc.cur.Decided() {
		reply, err := sc.opponent.BestMove(context.Background(), sc.cur)
		if err != nil {
			return nil, err
		}
		applied, err := sc.cur.Apply(reply)
		if err != nil {
			return nil, err
		}
		sc.history = append(sc.history, sc.cur)
		sc.cur = applied.(tictactoe.Position)
		fmt.Fprintf(&sb, "%v plays %v\n\n", sc.opponent.Name(), reply)
	}
	sb.WriteString(sc.displayText())
	return msg(sb.String()), nil
}

func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.cur.Notation()), nil
	}
	if sc.busy() {
		return nil, errSearchRunning
	}
	p, err := tictactoe.Parse(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	sc.cur = p
	sc.history = sc.history[:0]
	return msg(sc.displayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	sc.cur = sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	return msg(sc.displayText()), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	if sc.cur.Decided() {
		return nil, errors.New("the game is already over")
	}
	sc.solver.SetTranspositionTableOptim(true)
	if frac := sc.config.GetFloat64(config.TTableFractionKey); frac > 0 {
		sc.solver.SetTTFraction(frac)
	}
	if logPath := cmd.options.String("log"); logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sc.solver.SetLogStream(f)
		defer sc.solver.SetLogStream(nil)
	}
	timer := time.Now()
	val, best, err := sc.solver.Solve(context.Background(), sc.cur)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(timer)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Value: %+d (%v)\n", val, valueText(val, sc.cur.ToMove()))
	fmt.Fprintf(&sb, "Best move: %v\n", best)
	fmt.Fprintf(&sb, "Principal variation: %v\n", sc.solver.PrincipalVariation())
	sb.WriteString(printer.Sprintf("Nodes: %d in %v", sc.solver.Nodes(), elapsed))
	return msg(sb.String()), nil
}

// valueText spells out a solved value from the mover's point of view.
func valueText(val int, mover string) string {
	switch val {
	case game.Win:
		return mover + " wins with best play"
	case game.Loss:
		return mover + " loses with best play"
	default:
		return "draw with best play"
	}
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	if cmd.args == nil {
		if sc.opponent == nil {
			return msg("not playing against an engine; try `play exact`, `play mcts` or `play random`"), nil
		}
		return msg("playing against " + sc.opponent.Name()), nil
	}
	kind := cmd.args[0]
	if kind == "off" || kind == "stop" {
		sc.opponent = nil
		return msg("no longer playing against an engine"), nil
	}
	build, err := sc.playerBuilder(kind, cmd.options)
	if err != nil {
		return nil, err
	}
	rng, err := sc.rng()
	if err != nil {
		return nil, err
	}
	sc.opponent = build(rng)
	return msg("playing against " + sc.opponent.Name() + "; it answers every move you make"), nil
}

// playerBuilder validates an engine kind and returns a constructor for
// it. The rng parameter seeds the stochastic kinds, so autoplay can
// hand every game its own reproducible source.
func (sc *ShellController) playerBuilder(kind string, options CmdOptions) (func(rng *frand.RNG) player.Player, error) {
	switch kind {
	case "exact":
		frac := sc.config.GetFloat64(config.TTableFractionKey)
		return func(rng *frand.RNG) player.Player {
			p := player.NewExact()
			p.Solver().SetTranspositionTableOptim(true)
			if frac > 0 {
				p.Solver().SetTTFraction(frac)
			}
			return p
		}, nil
	case "mcts":
		iterations, err := options.IntDefault("iterations", sc.config.GetInt(config.SimIterationsKey))
		if err != nil {
			return nil, err
		}
		if iterations < 1 {
			return nil, errors.New("iterations must be positive")
		}
		return func(rng *frand.RNG) player.Player {
			p := player.NewMcts("mcts", mcts.NewRandomRollout(rng))
			p.SetIterations(iterations)
			return p
		}, nil
	case "random":
		return func(rng *frand.RNG) player.Player {
			return player.NewRandom(rng)
		}, nil
	}
	return nil, fmt.Errorf("unknown engine %q; pick exact, mcts or random", kind)
}

// rng returns a random source honoring the seed setting: seeded and
// reproducible when one is set, nondeterministic otherwise.
func (sc *ShellController) rng() (*frand.RNG, error) {
	encoded := sc.config.GetString(config.SeedKey)
	if encoded == "" {
		return frand.New(), nil
	}
	seed, err := decodeSeed(encoded)
	if err != nil {
		return nil, err
	}
	return automatic.RNGFromSeed(seed), nil
}

func decodeSeed(encoded string) ([32]byte, error) {
	var seed [32]byte
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) != 32 {
		return seed, fmt.Errorf("a seed is 32 base64 (url-safe) bytes, got %q", encoded)
	}
	copy(seed[:], raw)
	return seed, nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.configDisplay()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(config.Keys, key) {
		return nil, fmt.Errorf("unknown setting %q; `options` lists them all", key)
	}
	if len(cmd.args) == 1 {
		return msg(key + ": " + sc.config.GetString(key)), nil
	}
	value := strings.Join(cmd.args[1:], " ")
	sc.config.Set(key, value)
	if cmd.options.Bool("save") {
		if err := sc.config.Write(); err != nil {
			return nil, err
		}
	}
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) showOptions(cmd *shellcmd) (*Response, error) {
	return msg(sc.configDisplay()), nil
}

func (sc *ShellController) configDisplay() string {
	settings := sc.config.AllSettings()
	var sb strings.Builder
	for _, key := range config.Keys {
		fmt.Fprintf(&sb, "%18v: %v\n", key, settings[key])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (sc *ShellController) seeds(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("usage: seeds <n> [file]")
	}
	n, err := strconv.Atoi(cmd.args[0])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("need a positive number of seeds, got %q", cmd.args[0])
	}
	path := filepath.Join(sc.config.GetString(config.DataPathKey), "seeds.txt")
	if len(cmd.args) > 1 {
		path = cmd.args[1]
	}
	seeds, err := automatic.GenerateSeeds(n)
	if err != nil {
		return nil, err
	}
	if err := automatic.SaveSeeds(seeds, path); err != nil {
		return nil, err
	}
	return msg(printer.Sprintf("wrote %d seeds to %v", n, path)), nil
}
