package automatic

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// ResultsStore persists game results to a sqlite database, one row per
// game. Unlike the CSV log it records both seat names on every row, so
// ties stay attributable to a player pair.
type ResultsStore struct {
	db *sql.DB
}

// OpenResultsStore opens (creating if needed) the database at path.
func OpenResultsStore(path string) (*ResultsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the sqlite driver does not like concurrent writers
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS games (
		game_id TEXT NOT NULL,
		player1 TEXT NOT NULL,
		player2 TEXT NOT NULL,
		winner TEXT NOT NULL,
		loser TEXT NOT NULL,
		tie INTEGER NOT NULL,
		first_player TEXT NOT NULL,
		plies INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating games table: %w", err)
	}
	return &ResultsStore{db: db}, nil
}

func (s *ResultsStore) Close() error {
	return s.db.Close()
}

// WriteGame inserts one finished game.
func (s *ResultsStore) WriteGame(gr *GameResult) error {
	_, err := s.db.Exec(
		`INSERT INTO games (game_id, player1, player2, winner, loser, tie, first_player, plies)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		gr.GameID, gr.Player1, gr.Player2, gr.Winner, gr.Loser, gr.Tie, gr.FirstPlayer, gr.Plies)
	return err
}

// GamesRecorded counts the stored games.
func (s *ResultsStore) GamesRecorded() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

// Tally computes each player's series score from the stored games: one
// point per win, half a point each for a tie.
func (s *ResultsStore) Tally() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT player1, player2, winner, tie FROM games`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := map[string]float64{}
	for rows.Next() {
		var p1, p2, winner string
		var tie bool
		if err := rows.Scan(&p1, &p2, &winner, &tie); err != nil {
			return nil, err
		}
		if tie {
			scores[p1] += 0.5
			scores[p2] += 0.5
		} else {
			scores[winner] += 1.0
		}
	}
	return scores, rows.Err()
}
