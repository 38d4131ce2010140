package rules

import (
	"chesskit/internal/board"
	"chesskit/internal/core"
)

// IsThreatened reports whether any piece of the attacking color attacks
// the target square on this board. Attack geometry is capture-only: a
// pawn threatens diagonally even onto an empty square, and sliding
// pieces reach no further than the first occupied square on each ray.
// The board may be any hypothetical position, not just a reachable one.
func IsThreatened(b board.Board, target board.Position, attacker core.Color) bool {
	for _, from := range b.Squares(attacker) {
		for _, sq := range board.AttackSquares(b, from) {
			if sq == target {
				return true
			}
		}
	}
	return false
}
