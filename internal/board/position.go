package board

import "fmt"

// Position addresses a square. Row 0 is White's base rank (rank 1),
// row 7 is Black's base rank (rank 8). Both axes range 0..7.
type Position struct {
	Row int
	Col int
}

func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Offset returns the position shifted by the given deltas. The result
// may be off the board; callers check Valid.
func (p Position) Offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// Less orders positions row-major for deterministic iteration.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// String renders the position in algebraic notation, e.g. "e2".
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%c", byte('a'+p.Col), byte('1'+p.Row))
}

// ParsePosition converts algebraic notation ("e2") to a Position.
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: int(s[1] - '1'), Col: int(s[0] - 'a')}, nil
}
