package rules

import "chesskit/internal/core"

// InCheck reports whether the given player's king is threatened by the
// opponent in this state.
func InCheck(g GameState, color core.Color) bool {
	kingPos, ok := g.Board.King(color)
	if !ok {
		// One king per color is guaranteed at construction; a missing
		// king here means the caller bypassed NewGame.
		return false
	}
	return IsThreatened(g.Board, kingPos, core.OppositeColor(color))
}
