package board

import "chesskit/internal/core"

// Piece is a colored piece occupying a square. Moved tracks whether the
// piece has left its starting square, which castling relies on.
type Piece struct {
	Color core.Color
	Type  core.PieceType
	Moved bool
}

var typeLetters = map[core.PieceType]byte{
	core.Pawn:   'p',
	core.Knight: 'n',
	core.Bishop: 'b',
	core.Rook:   'r',
	core.Queen:  'q',
	core.King:   'k',
}

// Letter returns the FEN letter for the piece: uppercase for White,
// lowercase for Black.
func (p Piece) Letter() byte {
	ch := typeLetters[p.Type]
	if p.Color == core.ColorWhite {
		return ch - 'a' + 'A'
	}
	return ch
}

// PieceFromLetter converts a FEN letter back into a piece.
func PieceFromLetter(ch byte) (Piece, bool) {
	color := core.ColorBlack
	if ch >= 'A' && ch <= 'Z' {
		color = core.ColorWhite
		ch = ch - 'A' + 'a'
	}
	for t, letter := range typeLetters {
		if letter == ch {
			return Piece{Color: color, Type: t}, true
		}
	}
	return Piece{}, false
}

// Forward is the pawn advance direction for the piece's color.
func (p Piece) Forward() int {
	if p.Color == core.ColorWhite {
		return 1
	}
	return -1
}

// BackRank returns the promotion rank for the given color.
func BackRank(color core.Color) int {
	if color == core.ColorWhite {
		return Size - 1
	}
	return 0
}

type offset struct{ dr, dc int }

var (
	knightOffsets = []offset{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
	kingOffsets = []offset{
		{1, -1}, {1, 0}, {1, 1}, {0, -1},
		{0, 1}, {-1, -1}, {-1, 0}, {-1, 1},
	}
	rookDirs   = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// RawMove is a candidate destination produced by a piece's movement
// capability before any game-level legality is considered.
type RawMove struct {
	To        Position
	IsCapture bool
}

// RawMoves generates the movement pattern of the piece on the given
// square: empty destinations become quiet moves, enemy-occupied ones
// become captures, own-occupied ones are excluded. Sliding pieces stop
// at the first occupied square along each ray.
func RawMoves(b Board, from Position) []RawMove {
	pc, ok := b.PieceAt(from)
	if !ok {
		return nil
	}
	switch pc.Type {
	case core.Pawn:
		return pawnMoves(b, from, pc)
	case core.Knight:
		return stepMoves(b, from, pc, knightOffsets)
	case core.King:
		return stepMoves(b, from, pc, kingOffsets)
	case core.Bishop:
		return slideMoves(b, from, pc, bishopDirs)
	case core.Rook:
		return slideMoves(b, from, pc, rookDirs)
	case core.Queen:
		moves := slideMoves(b, from, pc, rookDirs)
		return append(moves, slideMoves(b, from, pc, bishopDirs)...)
	default:
		return nil
	}
}

// AttackSquares generates the capture geometry of the piece: the
// squares it threatens on this board. For pawns this differs from
// RawMoves, since a pawn attacks diagonally even onto empty squares and
// never attacks straight ahead.
func AttackSquares(b Board, from Position) []Position {
	pc, ok := b.PieceAt(from)
	if !ok {
		return nil
	}
	if pc.Type == core.Pawn {
		var out []Position
		for _, dc := range []int{-1, 1} {
			if to := from.Offset(pc.Forward(), dc); to.Valid() {
				out = append(out, to)
			}
		}
		return out
	}
	moves := RawMoves(b, from)
	out := make([]Position, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To)
	}
	return out
}

func stepMoves(b Board, from Position, pc Piece, offsets []offset) []RawMove {
	var out []RawMove
	for _, o := range offsets {
		to := from.Offset(o.dr, o.dc)
		if !to.Valid() {
			continue
		}
		occupant, occupied := b.PieceAt(to)
		if occupied && occupant.Color == pc.Color {
			continue
		}
		out = append(out, RawMove{To: to, IsCapture: occupied})
	}
	return out
}

func slideMoves(b Board, from Position, pc Piece, dirs []offset) []RawMove {
	var out []RawMove
	for _, d := range dirs {
		for to := from.Offset(d.dr, d.dc); to.Valid(); to = to.Offset(d.dr, d.dc) {
			occupant, occupied := b.PieceAt(to)
			if !occupied {
				out = append(out, RawMove{To: to})
				continue
			}
			if occupant.Color != pc.Color {
				out = append(out, RawMove{To: to, IsCapture: true})
			}
			break
		}
	}
	return out
}

func pawnMoves(b Board, from Position, pc Piece) []RawMove {
	var out []RawMove
	dir := pc.Forward()

	one := from.Offset(dir, 0)
	if one.Valid() {
		if _, occupied := b.PieceAt(one); !occupied {
			out = append(out, RawMove{To: one})
			two := from.Offset(2*dir, 0)
			if !pc.Moved && two.Valid() {
				if _, occupied := b.PieceAt(two); !occupied {
					out = append(out, RawMove{To: two})
				}
			}
		}
	}

	for _, dc := range []int{-1, 1} {
		to := from.Offset(dir, dc)
		if !to.Valid() {
			continue
		}
		if occupant, occupied := b.PieceAt(to); occupied && occupant.Color != pc.Color {
			out = append(out, RawMove{To: to, IsCapture: true})
		}
	}
	return out
}
