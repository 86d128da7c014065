// Package shell implements the interactive analysis console: a
// readline loop over the search engines, with position setup, play
// against an engine, exact solving, Monte Carlo simulation, batch
// autoplay and lua scripting.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/morris/automatic"
	"github.com/domino14/morris/config"
	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/negamax"
	"github.com/domino14/morris/player"
	"github.com/domino14/morris/tictactoe"
)

// SimLog is where `sim log` writes when no file is given.
const SimLog = "/tmp/morris-simlog"

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong option syntax; options need values")
	errSearchRunning     = errors.New("a search or autoplay is already running; stop it first")
)

type ShellController struct {
	l      *readline.Instance
	config *config.Config

	// The position under analysis, with the trail behind it for undo.
	cur     tictactoe.Position
	history []tictactoe.Position

	// Non-nil while playing against an engine; every accepted move
	// gets a reply from it.
	opponent player.Player

	// The solver persists across solve commands so its transposition
	// table carries over between related positions.
	solver *negamax.Solver

	simmer        *mcts.Engine
	simCtx        context.Context
	simCancel     context.CancelFunc
	simTicker     *time.Ticker
	simTickerDone chan struct{}
	simLogFile    *os.File

	autoplayCtx    context.Context
	autoplayCancel context.CancelFunc
	autoplayFile   string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := &ShellController{
		config: cfg,
		cur:    tictactoe.New(),
		solver: &negamax.Solver{},
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmorris>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// busy reports whether a background search or autoplay session holds
// the engines. Commands that touch the position or the trees refuse to
// run alongside one; nothing here is protected by locks.
func (sc *ShellController) busy() bool {
	if sc.simmer != nil && sc.simmer.IsSearching() {
		return true
	}
	return automatic.IsPlaying.Value() > 0
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields tokenizes a command line into the command word, its
// positional arguments, and its -name value option pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for _, field := range fields[1:] {
		if strings.HasPrefix(field, "-") && len(field) > 1 {
			lastWasOption = true
			lastOption = strings.TrimPrefix(field, "-")
			continue
		}
		if lastWasOption {
			options[lastOption] = append(options[lastOption], field)
			lastWasOption = false
		} else {
			args = append(args, field)
		}
	}
	if lastWasOption {
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) executeCommand(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "new":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "move", "m":
		return sc.playMove(cmd)
	case "position":
		return sc.position(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "solve":
		return sc.solve(cmd)
	case "sim":
		return sc.sim(cmd)
	case "play":
		return sc.play(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "set":
		return sc.set(cmd)
	case "options":
		return sc.showOptions(cmd)
	case "seeds":
		return sc.seeds(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	}
	return nil, fmt.Errorf("command %v not found", cmd.cmd)
}

// Execute runs a single command line, as typed at the prompt or passed
// on the binary's command line. It reports whether the shell should
// exit.
func (sc *ShellController) Execute(sig chan os.Signal, line string) bool {
	cmd, err := extractFields(line)
	if err != nil {
		if !errors.Is(err, errNoData) {
			sc.showError(err)
		}
		return false
	}
	switch cmd.cmd {
	case "exit", "quit", "bye":
		sig <- syscall.SIGINT
		return true
	}
	resp, err := sc.executeCommand(cmd)
	if err != nil {
		sc.showError(err)
	} else if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return false
}

// Loop reads and executes commands until EOF, an interrupt on an empty
// line, or an exit command.
func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if sc.Execute(sig, strings.TrimSpace(line)) {
			break
		}
	}
	log.Debug().Msg("exiting readline loop")
}

// Cleanup cancels background work before the process exits.
func (sc *ShellController) Cleanup() {
	if sc.simCancel != nil {
		sc.simCancel()
	}
	if sc.autoplayCancel != nil {
		sc.autoplayCancel()
	}
}
