package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// expandPromotions turns a pawn move landing on the back rank into one
// variant per promotable type. Moves short of the back rank pass
// through unchanged as a single candidate.
func expandPromotions(c candidate, color core.Color) []candidate {
	if c.to.Row != board.BackRank(color) {
		return []candidate{c}
	}
	out := make([]candidate, 0, len(core.PromotionTypes))
	for _, t := range core.PromotionTypes {
		out = append(out, candidate{
			cmd:       c.cmd.Then(replacePiece(c.to, t)),
			to:        c.to,
			promotion: t,
		})
	}
	return out
}
