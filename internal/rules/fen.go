package rules

import (
	"fmt"
	"strings"

	"chesskit/internal/board"
	"chesskit/internal/core"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// EncodeFEN serializes a state into FEN. The halfmove clock is not
// tracked by the rules core and is always written as 0; the caller
// supplies the fullmove number.
func EncodeFEN(g GameState, fullmove int) string {
	var sb strings.Builder

	for row := board.Size - 1; row >= 0; row-- {
		empty := 0
		for col := 0; col < board.Size; col++ {
			pc, ok := g.Board.PieceAt(board.Pos(row, col))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(byte(g.Active))

	sb.WriteByte(' ')
	sb.WriteString(castlingField(g.Board))

	sb.WriteByte(' ')
	sb.WriteString(enPassantField(g))

	if fullmove < 1 {
		fullmove = 1
	}
	sb.WriteString(fmt.Sprintf(" 0 %d", fullmove))
	return sb.String()
}

func castlingField(b board.Board) string {
	var sb strings.Builder
	appendRights := func(color core.Color, kingCh, queenCh byte) {
		row := 0
		if color == core.ColorBlack {
			row = board.Size - 1
		}
		king, ok := b.PieceAt(board.Pos(row, 4))
		if !ok || king.Type != core.King || king.Color != color || king.Moved {
			return
		}
		if rook, ok := b.PieceAt(board.Pos(row, 7)); ok && rook.Type == core.Rook && rook.Color == color && !rook.Moved {
			sb.WriteByte(kingCh)
		}
		if rook, ok := b.PieceAt(board.Pos(row, 0)); ok && rook.Type == core.Rook && rook.Color == color && !rook.Moved {
			sb.WriteByte(queenCh)
		}
	}
	appendRights(core.ColorWhite, 'K', 'Q')
	appendRights(core.ColorBlack, 'k', 'q')
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func enPassantField(g GameState) string {
	last := g.LastMove
	if last == nil || last.Piece.Type != core.Pawn {
		return "-"
	}
	rowDiff := last.To.Row - last.From.Row
	if rowDiff != 2 && rowDiff != -2 {
		return "-"
	}
	return board.Pos((last.From.Row+last.To.Row)/2, last.From.Col).String()
}

// FullmoveNumber reads the fullmove counter of a FEN string. Malformed
// or missing counters default to 1; GameState does not carry the
// counter, so callers that need it extract it alongside ParseFEN.
func FullmoveNumber(fen string) int {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return 1
	}
	var fullmove int
	if _, err := fmt.Sscanf(parts[5], "%d", &fullmove); err != nil || fullmove < 1 {
		return 1
	}
	return fullmove
}

// ParseFEN builds a GameState from FEN. Moved flags are reconstructed
// from what the notation can express: castling rights pin down king and
// rook flags, and a pawn off its base rank has necessarily moved.
func ParseFEN(fen string) (GameState, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return GameState{}, fmt.Errorf("invalid FEN: expected 6 parts, got %d", len(parts))
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != board.Size {
		return GameState{}, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	b := board.New()
	for i, rank := range ranks {
		row := board.Size - 1 - i
		col := 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			pc, ok := board.PieceFromLetter(ch)
			if !ok {
				return GameState{}, fmt.Errorf("invalid FEN: piece %q", ch)
			}
			if col >= board.Size {
				return GameState{}, fmt.Errorf("invalid FEN: rank %d overflows", row+1)
			}
			pc.Moved = hasMovedDefault(pc, row)
			b = b.Place(board.Pos(row, col), pc)
			col++
		}
		if col != board.Size {
			return GameState{}, fmt.Errorf("invalid FEN: rank %d has %d files", row+1, col)
		}
	}

	var active core.Color
	switch parts[1] {
	case "w":
		active = core.ColorWhite
	case "b":
		active = core.ColorBlack
	default:
		return GameState{}, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}

	b, err := applyCastlingRights(b, parts[2])
	if err != nil {
		return GameState{}, err
	}

	g, err := NewGame(b, active)
	if err != nil {
		return GameState{}, err
	}

	if parts[3] != "-" {
		target, err := board.ParsePosition(parts[3])
		if err != nil {
			return GameState{}, fmt.Errorf("invalid FEN: en passant %q", parts[3])
		}
		rec, err := enPassantRecord(b, target)
		if err != nil {
			return GameState{}, err
		}
		g = g.withLastMove(rec)
	}

	var halfmove, fullmove int
	if _, err := fmt.Sscanf(parts[4], "%d", &halfmove); err != nil {
		return GameState{}, fmt.Errorf("invalid FEN: halfmove counter")
	}
	if _, err := fmt.Sscanf(parts[5], "%d", &fullmove); err != nil {
		return GameState{}, fmt.Errorf("invalid FEN: fullmove counter")
	}

	return g, nil
}

// hasMovedDefault is the Moved flag before castling rights are applied.
// Kings and rooks start as moved and are cleared per rights; a pawn off
// its base rank has moved; other pieces never consult the flag.
func hasMovedDefault(pc board.Piece, row int) bool {
	switch pc.Type {
	case core.King, core.Rook:
		return true
	case core.Pawn:
		base := 1
		if pc.Color == core.ColorBlack {
			base = board.Size - 2
		}
		return row != base
	default:
		return false
	}
}

func applyCastlingRights(b board.Board, rights string) (board.Board, error) {
	if rights == "-" {
		return b, nil
	}
	clear := func(b board.Board, pos board.Position, t core.PieceType, color core.Color) board.Board {
		pc, ok := b.PieceAt(pos)
		if !ok || pc.Type != t || pc.Color != color {
			return b
		}
		pc.Moved = false
		return b.Place(pos, pc)
	}
	for i := 0; i < len(rights); i++ {
		switch rights[i] {
		case 'K':
			b = clear(b, board.Pos(0, 4), core.King, core.ColorWhite)
			b = clear(b, board.Pos(0, 7), core.Rook, core.ColorWhite)
		case 'Q':
			b = clear(b, board.Pos(0, 4), core.King, core.ColorWhite)
			b = clear(b, board.Pos(0, 0), core.Rook, core.ColorWhite)
		case 'k':
			b = clear(b, board.Pos(board.Size-1, 4), core.King, core.ColorBlack)
			b = clear(b, board.Pos(board.Size-1, 7), core.Rook, core.ColorBlack)
		case 'q':
			b = clear(b, board.Pos(board.Size-1, 4), core.King, core.ColorBlack)
			b = clear(b, board.Pos(board.Size-1, 0), core.Rook, core.ColorBlack)
		default:
			return b, fmt.Errorf("invalid FEN: castling rights %q", rights)
		}
	}
	return b, nil
}

// enPassantRecord reconstructs the two-square pawn advance implied by
// an en passant target square.
func enPassantRecord(b board.Board, target board.Position) (MoveRecord, error) {
	var from, to board.Position
	switch target.Row {
	case 2: // white pawn advanced
		from, to = board.Pos(1, target.Col), board.Pos(3, target.Col)
	case 5: // black pawn advanced
		from, to = board.Pos(6, target.Col), board.Pos(4, target.Col)
	default:
		return MoveRecord{}, fmt.Errorf("invalid FEN: en passant target %s", target)
	}
	pc, ok := b.PieceAt(to)
	if !ok || pc.Type != core.Pawn {
		return MoveRecord{}, fmt.Errorf("invalid FEN: no pawn behind en passant target %s", target)
	}
	return MoveRecord{Piece: pc, From: from, To: to}, nil
}
