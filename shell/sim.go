package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/morris/config"
	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/tictactoe"
)

var errNoSim = errors.New("no simulation has been run; try `sim` first")

func (sc *ShellController) sim(cmd *shellcmd) (*Response, error) {
	if cmd.args != nil {
		if _, err := strconv.Atoi(cmd.args[0]); err != nil {
			return sc.simControlArguments(cmd.args)
		}
	}
	return sc.simStart(cmd)
}

// simStart builds a fresh engine over the current position and searches
// it in the background. The prompt stays responsive while a ticker logs
// progress; the search ends at the iteration bound, at the stopping
// condition, or on `sim stop`.
func (sc *ShellController) simStart(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	if sc.cur.Decided() {
		return nil, errors.New("the game is already over")
	}
	iterations := sc.config.GetInt(config.SimIterationsKey)
	if cmd.args != nil {
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("need a positive iteration count, got %q", cmd.args[0])
		}
		iterations = n
	}
	stop, err := cmd.options.IntDefault("stop", sc.config.GetInt(config.SimStopKey))
	if err != nil {
		return nil, err
	}
	stoppingCondition := mcts.StopNone
	switch stop {
	case 0:
	case 95:
		stoppingCondition = mcts.Stop95
	case 98:
		stoppingCondition = mcts.Stop98
	case 99:
		stoppingCondition = mcts.Stop99
	default:
		return nil, errors.New("only allowed values are 95, 98, and 99 for stopping condition")
	}
	rng, err := sc.rng()
	if err != nil {
		return nil, err
	}
	if logPath := cmd.options.String("log"); logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, err
		}
		if sc.simLogFile != nil {
			sc.simLogFile.Close()
		}
		sc.simLogFile = f
	}

	engine := mcts.NewEngine(sc.cur, mcts.NewRandomRollout(rng))
	engine.SetStoppingCondition(stoppingCondition)
	sc.simmer = engine

	log.Debug().Int("iterations", iterations).
		Int("stopping-condition", int(stoppingCondition)).Msg("will start sim")
	sc.startSim(engine, iterations)
	return msg(printer.Sprintf(
		"simulating up to %d iterations; `sim show` and `sim details` for results", iterations)), nil
}

// startSim kicks off the background search and its progress ticker. The
// search goroutine owns the ticker-done channel and the log file: it
// closes both on the way out, no matter how the search ends, so a
// stop can simply cancel and wait on the channel.
func (sc *ShellController) startSim(engine *mcts.Engine, iterations int) {
	sc.simCtx, sc.simCancel = context.WithCancel(context.Background())
	sc.simTicker = time.NewTicker(5 * time.Second)
	sc.simTickerDone = make(chan struct{})

	logFile := sc.simLogFile
	sc.simLogFile = nil
	if logFile != nil {
		engine.SetLogStream(logFile)
	} else {
		// Clear any stream from an earlier run; the search goroutine
		// closed that file on its way out.
		engine.SetLogStream(nil)
	}
	schedule := mcts.ConstantExploration(sc.config.GetFloat64(config.SimExplorationKey))

	ticker := sc.simTicker
	done := sc.simTickerDone
	go func() {
		defer func() {
			if logFile != nil {
				if err := logFile.Close(); err == nil {
					log.Info().Str("log-file", logFile.Name()).Msg("sim log written")
				}
			}
			ticker.Stop()
			close(done)
			log.Debug().Msg("simulation thread exiting...")
		}()
		_, err := engine.Search(sc.simCtx, 0, schedule, mcts.IterationLimit(iterations))
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				sc.showError(err)
			}
			return
		}
		log.Info().Msgf("Simulation ended after %v iterations", engine.Iterations())
	}()

	go func() {
		for {
			select {
			case <-done:
				log.Debug().Msg("ticker thread exiting...")
				return
			case <-ticker.C:
				log.Info().Msgf("Simmer is at %v iterations...", engine.Iterations())
			}
		}
	}()
}

func (sc *ShellController) simControlArguments(args []string) (*Response, error) {
	switch args[0] {
	case "log":
		if sc.simmer != nil && sc.simmer.IsSearching() {
			return nil, errors.New("please stop sim before making any log changes")
		}
		path := SimLog
		if len(args) > 1 {
			path = args[1]
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if sc.simLogFile != nil {
			sc.simLogFile.Close()
		}
		sc.simLogFile = f
		return msg("next sim will log to " + path), nil
	case "stop":
		if sc.simmer == nil || !sc.simmer.IsSearching() {
			return nil, errors.New("no running sim to stop")
		}
		sc.simCancel()
		<-sc.simTickerDone
		return msg(sc.simmer.Details()), nil
	case "details":
		return sc.simDetails()
	case "show":
		return sc.simShow()
	case "continue":
		return sc.simContinue()
	}
	return nil, fmt.Errorf("do not understand sim argument %v", args[0])
}

// simContinue resumes the last simulation, growing the same tree by
// another round of iterations.
func (sc *ShellController) simContinue() (*Response, error) {
	if sc.simmer == nil {
		return nil, errNoSim
	}
	if sc.busy() {
		return nil, errSearchRunning
	}
	if sc.simmer.Root().State().(tictactoe.Position) != sc.cur {
		return nil, errors.New("the position has changed; start a new `sim`")
	}
	sc.startSim(sc.simmer, sc.config.GetInt(config.SimIterationsKey))
	return msg("continuing simulation"), nil
}

func (sc *ShellController) simShow() (*Response, error) {
	if sc.simmer == nil {
		return nil, errNoSim
	}
	if sc.simmer.IsSearching() {
		return nil, errors.New("still searching; `sim stop` it or wait for it to finish")
	}
	best := sc.simmer.BestNode()
	if best == nil {
		return nil, errors.New("no iterations have completed yet")
	}
	return msg(printer.Sprintf("best move %v with %d visits (mean %.3f) after %d iterations in %v",
		best.Move(), best.Visits(), -best.Mean(), sc.simmer.Iterations(), sc.simmer.Elapsed())), nil
}

func (sc *ShellController) simDetails() (*Response, error) {
	if sc.simmer == nil {
		return nil, errNoSim
	}
	if sc.simmer.IsSearching() {
		return nil, errors.New("still searching; `sim stop` it or wait for it to finish")
	}
	return msg(sc.simmer.Details()), nil
}
