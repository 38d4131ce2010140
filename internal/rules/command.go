package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// Command is a pure transformation of a GameState. It either fully
// succeeds, returning the successor state, or reports false to signal
// that it does not apply. Illegality is never an error: an inapplicable
// command simply yields no result, which makes speculative try-and-
// discard exploration free of rollback logic.
type Command func(GameState) (GameState, bool)

// Then sequences two commands: run the receiver, and if it applied, run
// next on its result. Absence short-circuits.
func (c Command) Then(next Command) Command {
	return func(g GameState) (GameState, bool) {
		mid, ok := c(g)
		if !ok {
			return GameState{}, false
		}
		return next(mid)
	}
}

// Update is a legal ply: the state the game moves into and the command
// that produced it, together with the squares involved so callers can
// match player input against it.
type Update struct {
	State     GameState
	Command   Command
	From      board.Position
	To        board.Position
	Promotion core.PieceType // zero unless the ply promotes
}

// moveCommand relocates the piece on from to to, capturing any enemy
// occupant. It refuses to capture a king or a friendly piece.
func moveCommand(from, to board.Position) Command {
	return func(g GameState) (GameState, bool) {
		pc, ok := g.Board.PieceAt(from)
		if !ok {
			return GameState{}, false
		}
		if occupant, occupied := g.Board.PieceAt(to); occupied {
			if occupant.Color == pc.Color || occupant.Type == core.King {
				return GameState{}, false
			}
		}
		return g.withBoard(g.Board.Relocate(from, to)), true
	}
}

// recordMove attaches last-move bookkeeping without altering the board
// effect. It reads the moved piece from the destination square, so it
// composes after the board transformation it describes.
func recordMove(from, to board.Position) Command {
	return func(g GameState) (GameState, bool) {
		pc, ok := g.Board.PieceAt(to)
		if !ok {
			return GameState{}, false
		}
		return g.withLastMove(MoveRecord{Piece: pc, From: from, To: to}), true
	}
}

// endTurn hands the move over to the other player.
func endTurn() Command {
	return func(g GameState) (GameState, bool) {
		return g.withActive(core.OppositeColor(g.Active)), true
	}
}

// replacePiece swaps the piece on a square for the given type, keeping
// its color. Used to realize pawn promotion variants.
func replacePiece(pos board.Position, t core.PieceType) Command {
	return func(g GameState) (GameState, bool) {
		pc, ok := g.Board.PieceAt(pos)
		if !ok {
			return GameState{}, false
		}
		pc.Type = t
		pc.Moved = true
		return g.withBoard(g.Board.Place(pos, pc)), true
	}
}
