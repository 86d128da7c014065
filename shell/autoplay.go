package shell

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/morris/automatic"
	"github.com/domino14/morris/config"
	"github.com/domino14/morris/player"
)

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if cmd.args != nil {
		switch cmd.args[0] {
		case "stop":
			return sc.autoplayStop()
		case "status":
			return sc.autoplayStatus()
		case "analyze":
			return sc.autoplayAnalyze(cmd)
		}
	}
	return sc.autoplayStart(cmd)
}

// autoplayStart plays a series of engine-vs-engine games in the
// background. The arguments name the two contestants (default exact vs
// random); -games, -threads, -output, -seedfile and -sqlite tune the
// series. Results land in a CSV log, and optionally a results store.
func (sc *ShellController) autoplayStart(cmd *shellcmd) (*Response, error) {
	if sc.busy() {
		return nil, errSearchRunning
	}
	kinds := []string{"exact", "random"}
	if len(cmd.args) > 0 {
		if len(cmd.args) != 2 {
			return nil, errors.New("autoplay needs two engine names, or none for exact vs random")
		}
		kinds = cmd.args
	}
	b1, err := sc.playerBuilder(kinds[0], cmd.options)
	if err != nil {
		return nil, err
	}
	b2, err := sc.playerBuilder(kinds[1], cmd.options)
	if err != nil {
		return nil, err
	}
	games, err := cmd.options.IntDefault("games", sc.config.GetInt(config.AutoplayGamesKey))
	if err != nil {
		return nil, err
	}
	if games < 1 {
		return nil, errors.New("need at least one game")
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.AutoplayThreadsKey))
	if err != nil {
		return nil, err
	}
	outputFilename := cmd.options.String("output")
	if outputFilename == "" {
		outputFilename = filepath.Join(sc.config.GetString(config.DataPathKey), "autoplay.txt")
	}
	seedFile := cmd.options.String("seedfile")
	if seedFile == "" {
		seedFile = sc.config.GetString(config.AutoplaySeedFileKey)
	}
	sqliteFile := cmd.options.String("sqlite")
	if sqliteFile == "" {
		sqliteFile = sc.config.GetString(config.AutoplaySQLiteKey)
	}

	factory := func(rng *frand.RNG) (player.Player, player.Player) {
		return b1(rng), b2(rng)
	}
	sc.autoplayCtx, sc.autoplayCancel = context.WithCancel(context.Background())
	sc.autoplayFile = outputFilename
	go func() {
		err := automatic.StartCompVCompGames(sc.autoplayCtx, factory, games, threads,
			outputFilename, seedFile, sqliteFile)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				sc.showError(err)
			}
			return
		}
		log.Info().Str("log-file", outputFilename).Msg("autoplay done; `autoplay analyze` for a summary")
	}()
	return msg(printer.Sprintf("playing %d games of %v vs %v, logging to %v",
		games, kinds[0], kinds[1], outputFilename)), nil
}

func (sc *ShellController) autoplayStop() (*Response, error) {
	if automatic.IsPlaying.Value() == 0 {
		return nil, errors.New("no autoplay session to stop")
	}
	sc.autoplayCancel()
	return msg("stopping autoplay..."), nil
}

func (sc *ShellController) autoplayStatus() (*Response, error) {
	if automatic.IsPlaying.Value() == 0 {
		return msg(printer.Sprintf("not playing; last session finished %d games",
			automatic.CVCCounter.Value())), nil
	}
	return msg(printer.Sprintf("%d games played so far, %d workers active",
		automatic.CVCCounter.Value(), automatic.IsPlaying.Value())), nil
}

// autoplayAnalyze summarizes a finished series' CSV log: win rates,
// first-mover advantage and a histogram of game lengths.
func (sc *ShellController) autoplayAnalyze(cmd *shellcmd) (*Response, error) {
	filename := sc.autoplayFile
	if len(cmd.args) > 1 {
		filename = cmd.args[1]
	}
	if filename == "" {
		return nil, errors.New("no autoplay log to analyze; pass a file name")
	}
	if automatic.IsPlaying.Value() > 0 {
		return nil, errors.New("autoplay is still running; stop it or wait for it to finish")
	}
	analysis, err := automatic.AnalyzeLogFile(filename)
	if err != nil {
		return nil, err
	}
	return msg(analysis), nil
}
