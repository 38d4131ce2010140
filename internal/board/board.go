package board

import (
	"fmt"
	"sort"
	"strings"

	"chesskit/internal/core"
)

// Size is the board edge length in squares.
const Size = 8

// Board is an immutable mapping from occupied squares to pieces. All
// modifying operations return a new Board; the receiver is never
// changed, so boards can be shared freely across hypothetical lines.
type Board struct {
	pieces map[Position]Piece
}

// New returns an empty board.
func New() Board {
	return Board{pieces: map[Position]Piece{}}
}

func (b Board) clone() Board {
	next := make(map[Position]Piece, len(b.pieces)+1)
	for pos, pc := range b.pieces {
		next[pos] = pc
	}
	return Board{pieces: next}
}

// PieceAt reports the piece on a square, if any.
func (b Board) PieceAt(pos Position) (Piece, bool) {
	pc, ok := b.pieces[pos]
	return pc, ok
}

// Place returns a board with the piece set on the square, replacing any
// previous occupant.
func (b Board) Place(pos Position, pc Piece) Board {
	next := b.clone()
	next.pieces[pos] = pc
	return next
}

// Remove returns a board with the square vacated.
func (b Board) Remove(pos Position) Board {
	next := b.clone()
	delete(next.pieces, pos)
	return next
}

// Relocate returns a board with the piece moved from one square to
// another. Any occupant of the destination is removed and the moved
// piece is flagged as having moved.
func (b Board) Relocate(from, to Position) Board {
	pc, ok := b.pieces[from]
	if !ok {
		return b
	}
	pc.Moved = true
	next := b.clone()
	delete(next.pieces, from)
	next.pieces[to] = pc
	return next
}

// King locates the king of the given color.
func (b Board) King(color core.Color) (Position, bool) {
	for pos, pc := range b.pieces {
		if pc.Color == color && pc.Type == core.King {
			return pos, true
		}
	}
	return Position{}, false
}

// Squares returns the occupied squares of one color in row-major order,
// so every enumeration over the board is deterministic.
func (b Board) Squares(color core.Color) []Position {
	var out []Position
	for pos, pc := range b.pieces {
		if pc.Color == color {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Count returns the number of pieces on the board.
func (b Board) Count() int {
	return len(b.pieces)
}

// ToASCII renders the board with rank and file legends, rank 8 first.
func (b Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for row := Size - 1; row >= 0; row-- {
		sb.WriteString(fmt.Sprintf("%d ", row+1))
		for col := 0; col < Size; col++ {
			if pc, ok := b.pieces[Pos(row, col)]; ok {
				sb.WriteString(fmt.Sprintf("%c ", pc.Letter()))
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", row+1))
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}
