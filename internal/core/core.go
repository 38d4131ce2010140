package core

// Color identifies a side. The byte values match FEN notation.
type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func (c Color) String() string {
	if c == ColorWhite {
		return "white"
	}
	return "black"
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// PieceType enumerates the chess piece kinds.
type PieceType int

const (
	Pawn PieceType = iota + 1
	Knight
	Bishop
	Rook
	Queen
	King
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "unknown"
	}
}

// PromotionTypes lists the piece kinds a pawn may promote to, in the
// order promotion variants are generated.
var PromotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}

// Status classifies a position from the active player's perspective.
type Status int

const (
	StatusPlaying Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "playing"
	}
}
