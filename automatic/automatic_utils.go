package automatic

// Data collection for automatic games. Allow computer vs computer games, etc.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/morris/player"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// Job is one game to be played by the worker pool.
type Job struct {
	ID   int
	Seed *[32]byte
}

// PlayerFactory builds the two players for one game. Both players and
// the runner's coin share rng, so a seeded job replays identically.
type PlayerFactory func(rng *frand.RNG) (player.Player, player.Player)

// StartCompVCompGames plays numGames games across a pool of worker
// goroutines and writes one CSV row per game to outputFilename. With a
// seed file, game i uses seed i and the results are reproducible (the
// row order across threads is not). A non-empty sqliteFile additionally
// records every game in a results store there. The call blocks until
// the series finishes or ctx is canceled; progress is observable
// through the CVCCounter and IsPlaying expvars.
func StartCompVCompGames(ctx context.Context, factory PlayerFactory, numGames, threads int,
	outputFilename, seedFile, sqliteFile string) error {

	if IsPlaying.Value() > 0 {
		return errors.New("games are already being played, please wait till complete")
	}
	if threads < 1 {
		threads = 1
	}
	var seeds [][32]byte
	if seedFile != "" {
		var err error
		seeds, err = LoadSeeds(seedFile)
		if err != nil {
			return err
		}
		if len(seeds) < numGames {
			return fmt.Errorf("seed file has %d seeds, need %d", len(seeds), numGames)
		}
	}
	var store *ResultsStore
	if sqliteFile != "" {
		var err error
		store, err = OpenResultsStore(sqliteFile)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	logfile, err := os.Create(outputFilename)
	if err != nil {
		return err
	}
	log.Debug().Msgf("Starting %v games, %v threads", numGames, threads)

	CVCCounter.Set(0)
	jobs := make(chan Job, 100)
	logChan := make(chan string, 100)

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for job := range jobs {
				rng := frand.New()
				if job.Seed != nil {
					rng = RNGFromSeed(*job.Seed)
				}
				p1, p2 := factory(rng)
				r := NewGameRunner(logChan, p1, p2)
				r.SetRNG(rng)
				res, err := r.playGame(gctx, strconv.Itoa(job.ID))
				if err != nil {
					return err
				}
				if store != nil {
					if err := store.WriteGame(res); err != nil {
						return err
					}
				}
				CVCCounter.Add(1)
			}
			return nil
		})
	}

	go func() {
	gameLoop:
		for i := 1; i < numGames+1; i++ {
			job := Job{ID: i}
			if seeds != nil {
				s := seeds[i-1]
				job.Seed = &s
			}
			select {
			case jobs <- job:
			case <-gctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				break gameLoop
			}
			if i%1000 == 0 {
				log.Debug().Msgf("Queued %v jobs", i)
			}
		}
		close(jobs)
		log.Debug().Msg("Finished queueing all jobs.")
	}()

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		logfile.WriteString(csvHeader)
		for msg := range logChan {
			logfile.WriteString(msg)
		}
		logfile.Close()
	}()

	err = g.Wait()
	close(logChan)
	<-logDone
	if err != nil {
		return err
	}
	log.Info().Msg("All games finished.")
	return nil
}
