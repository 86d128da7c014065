package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/domino14/morris/stats"
)

// AnalyzeLogFile analyzes the given game CSV file and spits out a bunch of
// statistics.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)

	// Record looks like:
	// gameID,winner,loser,tie,firstPlayer,plies

	var names []string
	seen := map[string]bool{}
	note := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	wins := map[string]float64{}
	firstCount := map[string]float64{}
	ties := 0
	wentFirstWL := float64(0)
	gamesPlayed := 0
	pliesStats := &stats.Statistic{}
	var plies []float64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			// this is the header line
			continue
		}
		tie, err := strconv.ParseBool(record[3])
		if err != nil {
			return "", err
		}
		p, err := strconv.Atoi(record[5])
		if err != nil {
			return "", err
		}
		note(record[4])
		note(record[1])
		note(record[2])
		if tie {
			ties++
			wentFirstWL += 0.5
		} else {
			wins[record[1]] += 1.0
			if record[1] == record[4] {
				wentFirstWL += 1.0
			}
		}
		firstCount[record[4]]++
		pliesStats.Push(float64(p))
		plies = append(plies, float64(p))

		gamesPlayed++
	}
	if gamesPlayed == 0 {
		return "No games played.\n", nil
	}
	// NewGameRunner suffixes seat numbers onto the player names; list the
	// first seat first. Tie-only logs never name the second seat at all.
	if len(names) == 2 && strings.HasSuffix(names[1], "-1") {
		names[0], names[1] = names[1], names[0]
	}

	// build stats string
	n := float64(gamesPlayed)
	out := fmt.Sprintf("Games played: %d\n", gamesPlayed)
	out += fmt.Sprintf("Ties: %d (%.3f%%)\n", ties, 100.0*float64(ties)/n)
	for _, name := range names {
		// every game involves both seats, so each seat's score is its
		// wins plus half a point per tie
		score := wins[name] + 0.5*float64(ties)
		out += fmt.Sprintf("%v wins: %.1f (%.3f%%)\n", name, score, 100.0*score/n)
	}
	first := firstCount[names[0]]
	out += fmt.Sprintf("%v went first: %.1f (%.3f%%)\n", names[0], first, 100.0*first/n)
	out += fmt.Sprintf("Player who went first wins: %.1f (%.3f%%)\n",
		wentFirstWL, 100.0*wentFirstWL/n)
	out += fmt.Sprintf("Mean plies: %.3f  Stdev: %.3f\n", pliesStats.Mean(), pliesStats.Stdev())

	lo, hi := plies[0], plies[0]
	for _, p := range plies {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if lo != hi {
		// every game the same length leaves nothing to plot
		bins := int(hi-lo) + 1
		if bins > 15 {
			bins = 15
		}
		var hb strings.Builder
		if err := histogram.Fprint(&hb, histogram.Hist(bins, plies), histogram.Linear(40)); err != nil {
			return "", err
		}
		out += "Game length (plies):\n" + hb.String()
	}

	return out, nil
}
