package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// enPassantCommands generates the en passant capture for a pawn, when
// available. It applies only in the ply immediately after the opponent
// advanced a pawn two squares into lateral adjacency; one ply later, or
// after a one-square advance, the record no longer matches and nothing
// is generated.
func enPassantCommands(g GameState, pawn board.Piece, pos board.Position) []candidate {
	if pawn.Type != core.Pawn {
		return nil
	}
	last := g.LastMove
	if last == nil || last.Piece.Type != core.Pawn || last.Piece.Color == pawn.Color {
		return nil
	}
	rowDiff := last.To.Row - last.From.Row
	if rowDiff != 2 && rowDiff != -2 {
		return nil
	}
	victim := last.To
	if victim.Row != pos.Row || (victim.Col != pos.Col-1 && victim.Col != pos.Col+1) {
		return nil
	}

	dest := board.Pos(pos.Row+pawn.Forward(), victim.Col)
	cmd := Command(func(g GameState) (GameState, bool) {
		pc, ok := g.Board.PieceAt(pos)
		if !ok || pc.Type != core.Pawn {
			return GameState{}, false
		}
		if _, occupied := g.Board.PieceAt(dest); occupied {
			return GameState{}, false
		}
		// The captured pawn leaves its own square, not the destination.
		b := g.Board.Remove(victim)
		return g.withBoard(b.Relocate(pos, dest)), true
	})
	return []candidate{{cmd: cmd, to: dest}}
}
