package rules

import (
	"testing"

	"chesskit/internal/core"
)

func TestStartingFENRoundTrip(t *testing.T) {
	g := mustParse(t, StartingFEN)

	if g.Active != core.ColorWhite {
		t.Errorf("active = %s, want white", g.Active)
	}
	if g.Board.Count() != 32 {
		t.Errorf("piece count = %d, want 32", g.Board.Count())
	}
	if got := EncodeFEN(g, 1); got != StartingFEN {
		t.Errorf("round trip:\n got %s\nwant %s", got, StartingFEN)
	}
}

func TestEncodeFENAfterFirstMove(t *testing.T) {
	g := startingGame(t)
	rb := New()

	var next GameState
	for _, u := range rb.GetUpdates(g, mustSquare(t, "e2")) {
		if u.To == mustSquare(t, "e4") {
			next = u.State
			break
		}
	}
	if next.Active != core.ColorBlack {
		t.Fatal("e2e4 not found")
	}

	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq e3 0 1"
	if got := EncodeFEN(next, 1); got != want {
		t.Errorf("after e2e4:\n got %s\nwant %s", got, want)
	}
}

func TestEnPassantFieldRoundTrip(t *testing.T) {
	fen := "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 2"
	g := mustParse(t, fen)

	if g.LastMove == nil {
		t.Fatal("en passant target did not reconstruct a last move")
	}
	if g.LastMove.From != mustSquare(t, "e2") || g.LastMove.To != mustSquare(t, "e4") {
		t.Errorf("reconstructed advance %s-%s, want e2-e4", g.LastMove.From, g.LastMove.To)
	}

	if got := EncodeFEN(g, 2); got != fen {
		t.Errorf("round trip:\n got %s\nwant %s", got, fen)
	}
}

func TestCastlingRightsReconstruction(t *testing.T) {
	g := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")

	checks := []struct {
		square    string
		wantMoved bool
	}{
		{"h1", false}, // K right
		{"a1", true},  // no Q right
		{"a8", false}, // q right
		{"h8", true},  // no k right
		{"e1", false},
		{"e8", false},
	}
	for _, c := range checks {
		pc, ok := g.Board.PieceAt(mustSquare(t, c.square))
		if !ok {
			t.Errorf("%s: no piece", c.square)
			continue
		}
		if pc.Moved != c.wantMoved {
			t.Errorf("%s: Moved = %v, want %v", c.square, pc.Moved, c.wantMoved)
		}
	}

	want := "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1"
	if got := EncodeFEN(g, 1); got != want {
		t.Errorf("round trip:\n got %s\nwant %s", got, want)
	}
}

func TestPawnMovedReconstruction(t *testing.T) {
	g := mustParse(t, "4k3/8/8/8/4P3/8/3P4/4K3 w - - 0 1")

	e4, _ := g.Board.PieceAt(mustSquare(t, "e4"))
	if !e4.Moved {
		t.Error("pawn off its base rank should count as moved")
	}
	d2, _ := g.Board.PieceAt(mustSquare(t, "d2"))
	if d2.Moved {
		t.Error("pawn on its base rank should not count as moved")
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq"},
		{"seven ranks", "pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece letter", "rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank overflow", "rnbqkbnrr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad turn", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KXkq - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5 0 1"},
		{"en passant without pawn", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e6 0 1"},
		{"missing king", "rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"},
		{"bad halfmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFEN(tt.fen); err == nil {
				t.Errorf("ParseFEN(%q): expected error", tt.fen)
			}
		})
	}
}

func TestEncodeFENNoCastlingRights(t *testing.T) {
	g := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	want := "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
	if got := EncodeFEN(g, 1); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
