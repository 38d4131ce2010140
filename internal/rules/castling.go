package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// castleSide describes one castling combination relative to the back
// rank of the castling color.
type castleSide struct {
	rookCol    int
	kingDest   int
	rookDest   int
	betweenCol []int // must be empty
	transitCol []int // king path incl. start; must be unthreatened
}

var castleSides = []castleSide{
	{rookCol: 7, kingDest: 6, rookDest: 5, betweenCol: []int{5, 6}, transitCol: []int{4, 5, 6}},
	{rookCol: 0, kingDest: 2, rookDest: 3, betweenCol: []int{1, 2, 3}, transitCol: []int{4, 3, 2}},
}

// castlingCommands generates castling transformations for a king on its
// starting square. Combinations failing any precondition are simply not
// yielded; they contribute no command rather than a failing one.
func castlingCommands(g GameState, king board.Piece, pos board.Position) []candidate {
	if king.Type != core.King || king.Moved {
		return nil
	}
	row := 0
	if king.Color == core.ColorBlack {
		row = board.Size - 1
	}
	if pos != board.Pos(row, 4) {
		return nil
	}

	var out []candidate
	for _, side := range castleSides {
		if !canCastle(g, king.Color, row, side) {
			continue
		}
		side := side
		cmd := Command(func(g GameState) (GameState, bool) {
			// Preconditions can lapse between generation and execution
			// when the command runs against a composed state, so they
			// are re-evaluated before the pieces move.
			if !canCastle(g, king.Color, row, side) {
				return GameState{}, false
			}
			b := g.Board.Relocate(board.Pos(row, 4), board.Pos(row, side.kingDest))
			b = b.Relocate(board.Pos(row, side.rookCol), board.Pos(row, side.rookDest))
			return g.withBoard(b), true
		})
		out = append(out, candidate{cmd: cmd, to: board.Pos(row, side.kingDest)})
	}
	return out
}

func canCastle(g GameState, color core.Color, row int, side castleSide) bool {
	king, ok := g.Board.PieceAt(board.Pos(row, 4))
	if !ok || king.Type != core.King || king.Color != color || king.Moved {
		return false
	}
	rook, ok := g.Board.PieceAt(board.Pos(row, side.rookCol))
	if !ok || rook.Type != core.Rook || rook.Color != color || rook.Moved {
		return false
	}
	for _, col := range side.betweenCol {
		if _, occupied := g.Board.PieceAt(board.Pos(row, col)); occupied {
			return false
		}
	}
	opponent := core.OppositeColor(color)
	for _, col := range side.transitCol {
		if IsThreatened(g.Board, board.Pos(row, col), opponent) {
			return false
		}
	}
	return true
}
