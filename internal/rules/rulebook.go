package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// Rulebook is the facade over the legality pipeline. Both queries are
// pure: they never modify the state they are given, and calling them
// twice yields identical results.
type Rulebook struct{}

// New returns a Rulebook.
func New() Rulebook {
	return Rulebook{}
}

// GetUpdates returns every legal ply for the active player's piece on
// the given square. Querying an empty square, or one holding an
// opponent piece, yields an empty result rather than an error.
//
// Each candidate is sequenced with last-move recording and the
// end-turn flip, executed speculatively, and kept only if it applied
// and does not leave the mover's own king threatened. After the flip
// the mover is the passive color, so the self-check filter tests the
// color that was active in the queried state.
func (Rulebook) GetUpdates(g GameState, pos board.Position) []Update {
	pc, ok := g.Board.PieceAt(pos)
	if !ok || pc.Color != g.Active {
		return nil
	}
	mover := g.Active

	var out []Update
	for _, c := range candidateMoves(g, pc, pos) {
		full := c.cmd.Then(recordMove(pos, c.to)).Then(endTurn())
		next, ok := full(g)
		if !ok {
			continue
		}
		if InCheck(next, mover) {
			continue
		}
		out = append(out, Update{
			State:     next,
			Command:   full,
			From:      pos,
			To:        c.to,
			Promotion: c.promotion,
		})
	}
	return out
}

// GetStatus classifies the game for the active player by combining the
// check predicate with exhaustive legal-move enumeration.
func (r Rulebook) GetStatus(g GameState) core.Status {
	inCheck := InCheck(g, g.Active)
	if r.hasLegalUpdate(g) {
		if inCheck {
			return core.StatusCheck
		}
		return core.StatusPlaying
	}
	if inCheck {
		return core.StatusCheckmate
	}
	return core.StatusStalemate
}

func (r Rulebook) hasLegalUpdate(g GameState) bool {
	for _, pos := range g.Board.Squares(g.Active) {
		if len(r.GetUpdates(g, pos)) > 0 {
			return true
		}
	}
	return false
}
