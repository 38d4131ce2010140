package storage

import (
	"database/sql"
	"fmt"
)

// RecordNewGame asynchronously records a new game.
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game record", func(tx *sql.Tx) error {
		query := `INSERT INTO games (
			game_id, initial_fen, setup,
			white_player_id, white_type, white_think_time,
			black_player_id, black_type, black_think_time,
			start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.GameID, record.InitialFEN, record.Setup,
			record.WhitePlayerID, record.WhiteType, record.WhiteThinkTime,
			record.BlackPlayerID, record.BlackType, record.BlackThinkTime,
			record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records an applied ply.
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move record", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			game_id, move_number, move, fen_after_move, player_color, status_after, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.GameID, record.MoveNumber, record.Move,
			record.FENAfterMove, record.PlayerColor, record.StatusAfter, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordGameEnd asynchronously stores the final state of a game.
func (s *Store) RecordGameEnd(gameID, finalState string) {
	s.enqueue("game end", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET final_state = ? WHERE game_id = ?`, finalState, gameID)
		return err
	})
}

// DeleteUndoneMoves asynchronously deletes moves rewound by an undo.
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int) {
	s.enqueue("undo operation", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND move_number > ?`, gameID, afterMoveNumber)
		return err
	})
}

// QueryGames retrieves games with optional filtering.
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT
		game_id, initial_fen, setup,
		white_player_id, white_type, white_think_time,
		black_player_id, black_type, black_think_time,
		final_state, start_time_utc
	FROM games WHERE 1=1`

	var args []interface{}

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if playerID != "" && playerID != "*" {
		query += " AND (white_player_id = ? OR black_player_id = ?)"
		args = append(args, playerID, playerID)
	}

	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		err := rows.Scan(
			&g.GameID, &g.InitialFEN, &g.Setup,
			&g.WhitePlayerID, &g.WhiteType, &g.WhiteThinkTime,
			&g.BlackPlayerID, &g.BlackType, &g.BlackThinkTime,
			&g.FinalState, &g.StartTimeUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// QueryMoves retrieves the recorded plies of one game in order.
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	query := `SELECT move_id, game_id, move_number, move, fen_after_move, player_color, status_after, move_time_utc
		FROM moves WHERE game_id = ? ORDER BY move_number ASC`

	rows, err := s.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber, &m.Move,
			&m.FENAfterMove, &m.PlayerColor, &m.StatusAfter, &m.MoveTimeUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	return moves, rows.Err()
}
