// The autoplay command plays a headless engine-vs-engine series: the
// same thing as the shell's autoplay command, but scriptable from a
// terminal or CI. Engines are exact, mcts or random; the series is
// tuned through the usual flags (-autoplay-games, -autoplay-threads,
// -autoplay-seedfile, -autoplay-sqlite, -sim-iterations, -data-path).
//
//	autoplay [flags] [engine1 engine2]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/morris/automatic"
	"github.com/domino14/morris/config"
	"github.com/domino14/morris/mcts"
	"github.com/domino14/morris/player"
)

func buildPlayer(kind string, iterations int) (func(rng *frand.RNG) player.Player, error) {
	switch kind {
	case "exact":
		return func(rng *frand.RNG) player.Player {
			p := player.NewExact()
			p.Solver().SetTranspositionTableOptim(true)
			return p
		}, nil
	case "mcts":
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

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.GetBool(config.DebugKey) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	kinds := []string{"exact", "random"}
	switch args := cfg.Args(); len(args) {
	case 0:
	case 2:
		kinds = args
	default:
		fmt.Fprintln(os.Stderr, "usage: autoplay [flags] [engine1 engine2]")
		os.Exit(2)
	}
	iterations := cfg.GetInt(config.SimIterationsKey)
	b1, err := buildPlayer(kinds[0], iterations)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	b2, err := buildPlayer(kinds[1], iterations)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	outputFilename := filepath.Join(cfg.GetString(config.DataPathKey), "autoplay.txt")
	games := cfg.GetInt(config.AutoplayGamesKey)
	log.Info().Str("log-file", outputFilename).
		Strs("engines", kinds).Int("games", games).Msg("starting series")

	err = automatic.StartCompVCompGames(ctx,
		func(rng *frand.RNG) (player.Player, player.Player) {
			return b1(rng), b2(rng)
		},
		games, cfg.GetInt(config.AutoplayThreadsKey), outputFilename,
		cfg.GetString(config.AutoplaySeedFileKey), cfg.GetString(config.AutoplaySQLiteKey))
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("series interrupted; analyzing the games that finished")
	} else if err != nil {
		log.Fatal().Err(err).Msg("series failed")
	}

	analysis, err := automatic.AnalyzeLogFile(outputFilename)
	if err != nil {
		log.Fatal().Err(err).Msg("analyzing log")
	}
	fmt.Println(analysis)
}
