package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// candidate is a raw move offer for a single piece: the transformation
// plus the metadata needed to surface it as an Update. Candidates are
// not yet legal; the self-check filter runs one layer up.
type candidate struct {
	cmd       Command
	to        board.Position
	promotion core.PieceType
}

// candidateMoves composes a piece's raw movement capability with the
// special-move rules into its full candidate set: basic moves and
// captures, castling for kings, en passant for pawns, with every pawn
// candidate reaching the back rank expanded into promotion variants.
func candidateMoves(g GameState, pc board.Piece, pos board.Position) []candidate {
	var out []candidate
	for _, raw := range board.RawMoves(g.Board, pos) {
		c := candidate{cmd: moveCommand(pos, raw.To), to: raw.To}
		if pc.Type == core.Pawn {
			out = append(out, expandPromotions(c, pc.Color)...)
		} else {
			out = append(out, c)
		}
	}
	if pc.Type == core.King {
		out = append(out, castlingCommands(g, pc, pos)...)
	}
	if pc.Type == core.Pawn {
		for _, c := range enPassantCommands(g, pc, pos) {
			out = append(out, expandPromotions(c, pc.Color)...)
		}
	}
	return out
}
