package rules

import (
	"testing"

	"chesskit/internal/board"
	"chesskit/internal/core"
)

func mustParse(t *testing.T, fen string) GameState {
	t.Helper()
	g, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return g
}

func mustSquare(t *testing.T, s string) board.Position {
	t.Helper()
	pos, err := board.ParsePosition(s)
	if err != nil {
		t.Fatalf("ParsePosition(%q): %v", s, err)
	}
	return pos
}

func startingGame(t *testing.T) GameState {
	t.Helper()
	g, err := NewGame(board.StandardSetup(), core.ColorWhite)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func updateDests(updates []Update) map[string]bool {
	out := make(map[string]bool, len(updates))
	for _, u := range updates {
		out[u.To.String()] = true
	}
	return out
}

func TestNewGameRequiresOneKingPerColor(t *testing.T) {
	b := board.New().
		Place(mustSquare(t, "e1"), board.Piece{Color: core.ColorWhite, Type: core.King})
	if _, err := NewGame(b, core.ColorWhite); err == nil {
		t.Error("expected error for position without a black king")
	}

	b = b.Place(mustSquare(t, "e8"), board.Piece{Color: core.ColorBlack, Type: core.King}).
		Place(mustSquare(t, "a8"), board.Piece{Color: core.ColorBlack, Type: core.King})
	if _, err := NewGame(b, core.ColorWhite); err == nil {
		t.Error("expected error for position with two black kings")
	}
}

func TestGetUpdatesInitialPawn(t *testing.T) {
	g := startingGame(t)
	rb := New()

	updates := rb.GetUpdates(g, mustSquare(t, "e2"))
	if len(updates) != 2 {
		t.Fatalf("e2 pawn: expected 2 updates, got %d", len(updates))
	}

	dests := updateDests(updates)
	if !dests["e3"] || !dests["e4"] {
		t.Errorf("e2 pawn destinations = %v, want e3 e4", dests)
	}

	for _, u := range updates {
		if u.State.Active != core.ColorBlack {
			t.Errorf("update to %s: active color not flipped", u.To)
		}
		if u.State.LastMove == nil {
			t.Errorf("update to %s: last move not recorded", u.To)
		} else if u.State.LastMove.From != mustSquare(t, "e2") {
			t.Errorf("update to %s: last move from %s", u.To, u.State.LastMove.From)
		}
		if u.State.Board.Count() != 32 {
			t.Errorf("update to %s: piece count changed to %d", u.To, u.State.Board.Count())
		}
		if u.From != mustSquare(t, "e2") {
			t.Errorf("update carries From = %s", u.From)
		}
	}
}

func TestGetUpdatesEmptyAndOpponentSquares(t *testing.T) {
	g := startingGame(t)
	rb := New()

	if got := rb.GetUpdates(g, mustSquare(t, "e4")); len(got) != 0 {
		t.Errorf("empty square yielded %d updates", len(got))
	}
	if got := rb.GetUpdates(g, mustSquare(t, "e7")); len(got) != 0 {
		t.Errorf("opponent pawn yielded %d updates", len(got))
	}
}

func TestGetUpdatesDoesNotMutateState(t *testing.T) {
	g := startingGame(t)
	rb := New()
	e2 := mustSquare(t, "e2")

	first := rb.GetUpdates(g, e2)
	second := rb.GetUpdates(g, e2)
	if len(first) != len(second) {
		t.Fatalf("repeated query changed the result: %d vs %d", len(first), len(second))
	}

	if g.Active != core.ColorWhite {
		t.Error("query flipped the active color of the input state")
	}
	if g.LastMove != nil {
		t.Error("query attached a last move to the input state")
	}
	if pc, ok := g.Board.PieceAt(e2); !ok || pc.Moved {
		t.Error("query disturbed the board of the input state")
	}
}

func TestPinnedPieceHasNoUpdates(t *testing.T) {
	// Bishop on e2 shields the king from the rook on e4; every bishop
	// move exposes the king.
	g := mustParse(t, "4k3/8/8/8/4r3/8/4B3/4K3 w - - 0 1")
	rb := New()

	if updates := rb.GetUpdates(g, mustSquare(t, "e2")); len(updates) != 0 {
		t.Errorf("pinned bishop yielded %d updates", len(updates))
	}
	if status := rb.GetStatus(g); status != core.StatusPlaying {
		t.Errorf("status = %s, want playing", status)
	}
}

func TestKingCaptureNeverOffered(t *testing.T) {
	g := mustParse(t, "4k3/4R3/8/8/8/8/8/4K3 w - - 0 1")
	rb := New()

	updates := rb.GetUpdates(g, mustSquare(t, "e7"))
	if len(updates) == 0 {
		t.Fatal("rook on e7 should have moves")
	}
	if updateDests(updates)["e8"] {
		t.Error("rook was offered a king capture")
	}
}

func TestCastlingBothSides(t *testing.T) {
	g := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	rb := New()

	updates := rb.GetUpdates(g, mustSquare(t, "e1"))
	dests := updateDests(updates)
	if !dests["g1"] {
		t.Fatal("kingside castling missing")
	}
	if !dests["c1"] {
		t.Fatal("queenside castling missing")
	}

	for _, u := range updates {
		switch u.To.String() {
		case "g1":
			king, _ := u.State.Board.PieceAt(mustSquare(t, "g1"))
			rook, ok := u.State.Board.PieceAt(mustSquare(t, "f1"))
			if king.Type != core.King || !ok || rook.Type != core.Rook {
				t.Error("kingside castling did not move both pieces")
			}
			if _, occupied := u.State.Board.PieceAt(mustSquare(t, "h1")); occupied {
				t.Error("kingside rook still on h1")
			}
		case "c1":
			king, _ := u.State.Board.PieceAt(mustSquare(t, "c1"))
			rook, ok := u.State.Board.PieceAt(mustSquare(t, "d1"))
			if king.Type != core.King || !ok || rook.Type != core.Rook {
				t.Error("queenside castling did not move both pieces")
			}
		}
	}
}

func TestCastlingBlockedByThreatenedTransit(t *testing.T) {
	// Rook on f3 covers f1, so the kingside transit is unsafe;
	// queenside stays available.
	g := mustParse(t, "r3k2r/8/8/8/8/5r2/8/R3K2R w KQkq - 0 1")
	rb := New()

	dests := updateDests(rb.GetUpdates(g, mustSquare(t, "e1")))
	if dests["g1"] {
		t.Error("kingside castling offered through a threatened square")
	}
	if !dests["c1"] {
		t.Error("queenside castling missing")
	}
}

func TestCastlingRespectsMovedRooks(t *testing.T) {
	// Rights grant only white kingside and black queenside, so the
	// other rooks count as moved.
	g := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")
	rb := New()

	dests := updateDests(rb.GetUpdates(g, mustSquare(t, "e1")))
	if !dests["g1"] {
		t.Error("kingside castling missing despite K right")
	}
	if dests["c1"] {
		t.Error("queenside castling offered without Q right")
	}
}

func TestCastlingGoneAfterKingMoves(t *testing.T) {
	g := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	rb := New()
	e1 := mustSquare(t, "e1")

	// King steps out and back; rights are spent even though the board
	// looks identical.
	var mid GameState
	for _, u := range rb.GetUpdates(g, e1) {
		if u.To.String() == "d1" {
			mid = u.State
			break
		}
	}
	if mid.Active != core.ColorBlack {
		t.Fatal("king move to d1 not found")
	}

	// Pass the move back to White by letting Black shuffle a rook
	var back GameState
	for _, u := range rb.GetUpdates(mid, mustSquare(t, "h8")) {
		if u.To.String() == "h7" {
			back = u.State
			break
		}
	}
	if back.Active != core.ColorWhite {
		t.Fatal("black rook move not found")
	}

	var again GameState
	for _, u := range rb.GetUpdates(back, mustSquare(t, "d1")) {
		if u.To.String() == "e1" {
			again = u.State
			break
		}
	}
	if again.Active != core.ColorBlack {
		t.Fatal("king return to e1 not found")
	}

	var afterBlack GameState
	for _, u := range rb.GetUpdates(again, mustSquare(t, "h7")) {
		if u.To.String() == "h8" {
			afterBlack = u.State
			break
		}
	}
	if afterBlack.Active != core.ColorWhite {
		t.Fatal("black rook return not found")
	}

	dests := updateDests(rb.GetUpdates(afterBlack, e1))
	if dests["g1"] || dests["c1"] {
		t.Error("castling offered after the king already moved")
	}
}

func TestEnPassantWindow(t *testing.T) {
	// White just advanced e2e4; the black d4 pawn may capture en
	// passant this ply only.
	g := mustParse(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 2")
	rb := New()
	d4 := mustSquare(t, "d4")

	updates := rb.GetUpdates(g, d4)
	dests := updateDests(updates)
	if !dests["e3"] {
		t.Fatalf("en passant capture missing, got %v", dests)
	}
	if !dests["d3"] {
		t.Errorf("plain advance missing, got %v", dests)
	}

	for _, u := range updates {
		if u.To.String() != "e3" {
			continue
		}
		if _, occupied := u.State.Board.PieceAt(mustSquare(t, "e4")); occupied {
			t.Error("captured pawn still on e4")
		}
		pc, ok := u.State.Board.PieceAt(mustSquare(t, "e3"))
		if !ok || pc.Type != core.Pawn || pc.Color != core.ColorBlack {
			t.Error("capturing pawn not on e3")
		}
	}
}

func TestEnPassantExpires(t *testing.T) {
	// Same material, but no en passant target: the window has closed.
	g := mustParse(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 2")
	rb := New()

	dests := updateDests(rb.GetUpdates(g, mustSquare(t, "d4")))
	if dests["e3"] {
		t.Error("en passant offered outside its window")
	}
}

func TestPromotionVariants(t *testing.T) {
	g := mustParse(t, "7k/P7/8/8/8/8/8/7K w - - 0 1")
	rb := New()

	updates := rb.GetUpdates(g, mustSquare(t, "a7"))
	if len(updates) != 4 {
		t.Fatalf("expected 4 promotion variants, got %d", len(updates))
	}

	seen := map[core.PieceType]bool{}
	for _, u := range updates {
		if u.To.String() != "a8" {
			t.Errorf("promotion destination %s, want a8", u.To)
		}
		if u.Promotion == 0 {
			t.Error("promotion variant missing its piece type")
			continue
		}
		seen[u.Promotion] = true

		pc, ok := u.State.Board.PieceAt(mustSquare(t, "a8"))
		if !ok {
			t.Errorf("no piece on a8 after promoting to %s", u.Promotion)
			continue
		}
		if pc.Type != u.Promotion || pc.Color != core.ColorWhite {
			t.Errorf("promoted piece is %s %s, want white %s", pc.Color, pc.Type, u.Promotion)
		}
	}

	for _, want := range core.PromotionTypes {
		if !seen[want] {
			t.Errorf("missing promotion to %s", want)
		}
	}
}

func TestPawnShortOfBackRankDoesNotPromote(t *testing.T) {
	g := mustParse(t, "7k/8/P7/8/8/8/8/7K w - - 0 1")
	rb := New()

	updates := rb.GetUpdates(g, mustSquare(t, "a6"))
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Promotion != 0 {
		t.Error("non-promoting advance carries a promotion type")
	}
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want core.Status
	}{
		{
			name: "starting position",
			fen:  StartingFEN,
			want: core.StatusPlaying,
		},
		{
			name: "check with escapes",
			fen:  "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1",
			want: core.StatusCheck,
		},
		{
			name: "fools mate",
			fen:  "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 0 3",
			want: core.StatusCheckmate,
		},
		{
			name: "quiet endgame",
			fen:  "6k1/5ppp/8/8/8/8/8/4K2R b - - 0 1",
			want: core.StatusPlaying,
		},
		{
			name: "back rank mate",
			fen:  "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1",
			want: core.StatusCheckmate,
		},
		{
			name: "cornered king stalemate",
			fen:  "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			want: core.StatusStalemate,
		},
		{
			name: "smothered corner mate",
			fen:  "6rk/5Npp/8/8/8/8/8/6K1 b - - 0 1",
			want: core.StatusCheckmate,
		},
	}

	rb := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.fen)
			if got := rb.GetStatus(g); got != tt.want {
				t.Errorf("GetStatus = %s, want %s", got, tt.want)
			}
			// The query is pure: asking twice yields the same answer
			if got := rb.GetStatus(g); got != tt.want {
				t.Errorf("repeated GetStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsThreatened(t *testing.T) {
	b := board.New().
		Place(mustSquare(t, "e4"), board.Piece{Color: core.ColorWhite, Type: core.Pawn, Moved: true}).
		Place(mustSquare(t, "a1"), board.Piece{Color: core.ColorWhite, Type: core.Rook}).
		Place(mustSquare(t, "a4"), board.Piece{Color: core.ColorBlack, Type: core.Knight})

	tests := []struct {
		square   string
		attacker core.Color
		want     bool
	}{
		{"d5", core.ColorWhite, true},   // pawn diagonal onto empty square
		{"f5", core.ColorWhite, true},   // pawn diagonal
		{"e5", core.ColorWhite, false},  // pawns do not attack straight ahead
		{"a4", core.ColorWhite, true},   // rook up the open file
		{"a5", core.ColorWhite, false},  // blocked by the knight on a4
		{"h1", core.ColorWhite, true},   // rook along the rank
		{"b2", core.ColorBlack, true},   // knight hop
		{"a5", core.ColorBlack, false},  // knights do not move one step
	}

	for _, tt := range tests {
		got := IsThreatened(b, mustSquare(t, tt.square), tt.attacker)
		if got != tt.want {
			t.Errorf("IsThreatened(%s by %s) = %v, want %v", tt.square, tt.attacker, got, tt.want)
		}
	}
}

func TestInCheck(t *testing.T) {
	g := mustParse(t, "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1")
	if !InCheck(g, core.ColorWhite) {
		t.Error("white should be in check")
	}
	if InCheck(g, core.ColorBlack) {
		t.Error("black should not be in check")
	}
}

func TestCommandThenShortCircuits(t *testing.T) {
	g := startingGame(t)

	fail := Command(func(GameState) (GameState, bool) {
		return GameState{}, false
	})
	ran := false
	probe := Command(func(g GameState) (GameState, bool) {
		ran = true
		return g, true
	})

	if _, ok := fail.Then(probe)(g); ok {
		t.Error("sequenced command applied after a failing step")
	}
	if ran {
		t.Error("second command ran after the first failed")
	}
}
