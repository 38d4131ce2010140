package rules

import (
	"fmt"

	"chesskit/internal/board"
	"chesskit/internal/core"
)

// MoveRecord describes the most recent applied ply: which piece moved
// and between which squares. En passant and last-move reporting depend
// on it.
type MoveRecord struct {
	Piece board.Piece
	From  board.Position
	To    board.Position
}

// GameState is an immutable snapshot of a game: the board, the color to
// move, and the previous ply. Transformations return fresh values; a
// state is never modified after construction, so any number of
// hypothetical lines can branch from the same state.
type GameState struct {
	Board    board.Board
	Active   core.Color
	LastMove *MoveRecord
}

// NewGame validates a starting position and wraps it in a GameState.
// A position without exactly one king per color is a setup defect, not
// something move generation recovers from, so it is rejected here.
func NewGame(b board.Board, active core.Color) (GameState, error) {
	for _, color := range []core.Color{core.ColorWhite, core.ColorBlack} {
		kings := 0
		for _, pos := range b.Squares(color) {
			if pc, ok := b.PieceAt(pos); ok && pc.Type == core.King {
				kings++
			}
		}
		if kings != 1 {
			return GameState{}, fmt.Errorf("invalid position: %s has %d kings", color, kings)
		}
	}
	return GameState{Board: b, Active: active}, nil
}

func (g GameState) withBoard(b board.Board) GameState {
	g.Board = b
	return g
}

func (g GameState) withLastMove(rec MoveRecord) GameState {
	g.LastMove = &rec
	return g
}

func (g GameState) withActive(c core.Color) GameState {
	g.Active = c
	return g
}
