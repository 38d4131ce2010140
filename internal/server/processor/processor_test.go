package processor

import (
	"strings"
	"testing"
	"time"

	"chesskit/internal/server/core"
	"chesskit/internal/server/service"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	svc := service.New(nil, []byte("test-secret-minimum-32-characters"))
	p := New(svc)
	t.Cleanup(func() {
		_ = p.Close()
		_ = svc.Shutdown(time.Second)
	})
	return p
}

func humanPlayers() (core.PlayerConfig, core.PlayerConfig) {
	return core.PlayerConfig{Type: core.PlayerHuman}, core.PlayerConfig{Type: core.PlayerHuman}
}

func createGame(t *testing.T, p *Processor, req core.CreateGameRequest) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewCreateGameCommand(req))
	if !resp.Success {
		t.Fatalf("create game failed: %+v", resp.Error)
	}
	game, ok := resp.Data.(core.GameResponse)
	if !ok {
		t.Fatalf("create game returned %T", resp.Data)
	}
	return game
}

func makeMove(t *testing.T, p *Processor, gameID, move string) ProcessorResponse {
	t.Helper()
	return p.Execute(NewMakeMoveCommand(gameID, core.MoveRequest{Move: move}))
}

func TestCreateGameStandard(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()

	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	if game.GameID == "" {
		t.Error("missing game ID")
	}
	if game.Turn != "w" {
		t.Errorf("turn = %q, want w", game.Turn)
	}
	if game.State != "ongoing" {
		t.Errorf("state = %q, want ongoing", game.State)
	}
	if game.Status != "playing" {
		t.Errorf("status = %q, want playing", game.Status)
	}
	if len(game.Moves) != 0 {
		t.Errorf("new game has %d moves", len(game.Moves))
	}
}

func TestCreateGameFromFEN(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()

	fen := "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1"
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black, FEN: fen})

	if game.FEN != fen {
		t.Errorf("fen = %q, want %q", game.FEN, fen)
	}
	if game.Status != "check" {
		t.Errorf("status = %q, want check", game.Status)
	}
}

func TestCreateGameRejectsBadFEN(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()

	resp := p.Execute(NewCreateGameCommand(core.CreateGameRequest{
		White: white, Black: black, FEN: "not a position",
	}))
	if resp.Success {
		t.Fatal("expected failure for invalid FEN")
	}
	if resp.Error.Code != core.ErrInvalidFEN {
		t.Errorf("error code = %s, want %s", resp.Error.Code, core.ErrInvalidFEN)
	}
}

func TestCreateGameSettlesDecidedPosition(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()

	// Black is already checkmated, so White has won before any move
	game := createGame(t, p, core.CreateGameRequest{
		White: white, Black: black,
		FEN: "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1",
	})

	if game.State != "white wins" {
		t.Errorf("state = %q, want white wins", game.State)
	}
	if game.Status != "checkmate" {
		t.Errorf("status = %q, want checkmate", game.Status)
	}

	resp := makeMove(t, p, game.GameID, "g8f8")
	if resp.Success {
		t.Error("move accepted in a finished game")
	}
}

func TestMakeMoveLegal(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	resp := makeMove(t, p, game.GameID, "e2e4")
	if !resp.Success {
		t.Fatalf("e2e4 rejected: %+v", resp.Error)
	}

	after := resp.Data.(core.GameResponse)
	if after.Turn != "b" {
		t.Errorf("turn = %q, want b", after.Turn)
	}
	if len(after.Moves) != 1 || after.Moves[0] != "e2e4" {
		t.Errorf("moves = %v, want [e2e4]", after.Moves)
	}
	if after.LastMove == nil || after.LastMove.Move != "e2e4" || after.LastMove.PlayerColor != "w" {
		t.Errorf("last move = %+v", after.LastMove)
	}
}

func TestFullmoveCounterInFEN(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	// The counter advances only after Black completes a move
	steps := []struct {
		move    string
		wantFEN string
	}{
		{"e2e4", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"},
		{"e7e5", "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"},
		{"g1f3", "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 0 2"},
	}
	for _, step := range steps {
		resp := makeMove(t, p, game.GameID, step.move)
		if !resp.Success {
			t.Fatalf("%s rejected: %+v", step.move, resp.Error)
		}
		if got := resp.Data.(core.GameResponse).FEN; got != step.wantFEN {
			t.Errorf("after %s: fen = %q, want %q", step.move, got, step.wantFEN)
		}
	}
}

func TestFullmoveCounterCarriedFromFEN(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{
		White: white, Black: black,
		FEN: "4k3/8/8/8/8/8/4P3/4K3 w - - 0 21",
	})

	if game.FEN != "4k3/8/8/8/8/8/4P3/4K3 w - - 0 21" {
		t.Fatalf("initial fen = %q", game.FEN)
	}

	resp := makeMove(t, p, game.GameID, "e2e4")
	if !resp.Success {
		t.Fatalf("e2e4 rejected: %+v", resp.Error)
	}
	if got := resp.Data.(core.GameResponse).FEN; !strings.HasSuffix(got, " b - e3 0 21") {
		t.Errorf("fen after White's move = %q, want fullmove still 21", got)
	}

	resp = makeMove(t, p, game.GameID, "e8d8")
	if !resp.Success {
		t.Fatalf("e8d8 rejected: %+v", resp.Error)
	}
	if got := resp.Data.(core.GameResponse).FEN; !strings.HasSuffix(got, " 22") {
		t.Errorf("fen after Black's move = %q, want fullmove 22", got)
	}
}

func TestMakeMoveIllegal(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	tests := []struct {
		move     string
		wantCode string
	}{
		{"e2e5", core.ErrIllegalMove}, // pawns advance at most two squares
		{"e7e5", core.ErrIllegalMove}, // not black's turn, no white piece on e7
		{"e1g1", core.ErrIllegalMove}, // castling through occupied squares
		{"e2", core.ErrInvalidMove},
		{"z9z8", core.ErrInvalidMove},
		{"e2e4x", core.ErrInvalidMove},
	}
	for _, tt := range tests {
		resp := makeMove(t, p, game.GameID, tt.move)
		if resp.Success {
			t.Errorf("%q accepted", tt.move)
			continue
		}
		if resp.Error.Code != tt.wantCode {
			t.Errorf("%q: code = %s, want %s", tt.move, resp.Error.Code, tt.wantCode)
		}
	}

	// Nothing was applied
	resp := p.Execute(NewGetGameCommand(game.GameID))
	if got := resp.Data.(core.GameResponse); len(got.Moves) != 0 {
		t.Errorf("illegal attempts left %d moves", len(got.Moves))
	}
}

func TestMakeMoveUnknownGame(t *testing.T) {
	p := newTestProcessor(t)
	resp := makeMove(t, p, "b3b618c8-0000-4e5f-9e25-000000000000", "e2e4")
	if resp.Success || resp.Error.Code != core.ErrGameNotFound {
		t.Errorf("expected %s, got %+v", core.ErrGameNotFound, resp.Error)
	}
}

func TestFoolsMateEndsGame(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	moves := []string{"f2f3", "e7e5", "g2g4", "d8h4"}
	var last core.GameResponse
	for _, move := range moves {
		resp := makeMove(t, p, game.GameID, move)
		if !resp.Success {
			t.Fatalf("%s rejected: %+v", move, resp.Error)
		}
		last = resp.Data.(core.GameResponse)
	}

	if last.Status != "checkmate" {
		t.Errorf("status = %q, want checkmate", last.Status)
	}
	if last.State != "black wins" {
		t.Errorf("state = %q, want black wins", last.State)
	}

	resp := makeMove(t, p, game.GameID, "e2e4")
	if resp.Success {
		t.Error("move accepted after checkmate")
	}
	if resp.Error.Code != core.ErrGameOver {
		t.Errorf("code = %s, want %s", resp.Error.Code, core.ErrGameOver)
	}
}

func TestPromotionMove(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{
		White: white, Black: black,
		FEN: "7k/P7/8/8/8/8/8/7K w - - 0 1",
	})

	// Promotion without a piece suffix does not match any legal update
	resp := makeMove(t, p, game.GameID, "a7a8")
	if resp.Success {
		t.Error("bare promotion move accepted")
	}

	resp = makeMove(t, p, game.GameID, "a7a8q")
	if !resp.Success {
		t.Fatalf("a7a8q rejected: %+v", resp.Error)
	}
	after := resp.Data.(core.GameResponse)
	if after.Moves[len(after.Moves)-1] != "a7a8q" {
		t.Errorf("recorded move = %v", after.Moves)
	}
}

func TestLegalMovesQuery(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	resp := p.Execute(NewLegalMovesCommand(game.GameID, "e2"))
	if !resp.Success {
		t.Fatalf("legal moves failed: %+v", resp.Error)
	}
	legal := resp.Data.(core.LegalMovesResponse)
	if legal.Count != 2 || len(legal.Moves) != 2 {
		t.Errorf("e2: %d moves (%v), want 2", legal.Count, legal.Moves)
	}

	// Empty square yields an empty list, not an error
	resp = p.Execute(NewLegalMovesCommand(game.GameID, "e4"))
	if !resp.Success {
		t.Fatalf("legal moves for empty square failed: %+v", resp.Error)
	}
	if legal := resp.Data.(core.LegalMovesResponse); legal.Count != 0 {
		t.Errorf("empty square reports %d moves", legal.Count)
	}

	resp = p.Execute(NewLegalMovesCommand(game.GameID, "zz"))
	if resp.Success {
		t.Error("invalid square accepted")
	}
}

func TestUndoMove(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	for _, move := range []string{"e2e4", "e7e5"} {
		if resp := makeMove(t, p, game.GameID, move); !resp.Success {
			t.Fatalf("%s rejected: %+v", move, resp.Error)
		}
	}

	resp := p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 1}))
	if !resp.Success {
		t.Fatalf("undo failed: %+v", resp.Error)
	}
	after := resp.Data.(core.GameResponse)
	if len(after.Moves) != 1 || after.Moves[0] != "e2e4" {
		t.Errorf("moves after undo = %v, want [e2e4]", after.Moves)
	}
	if after.Turn != "b" {
		t.Errorf("turn after undo = %q, want b", after.Turn)
	}

	// Undoing more moves than exist is rejected
	resp = p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 5}))
	if resp.Success {
		t.Error("oversized undo accepted")
	}
}

func TestUndoRevivesFinishedGame(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	for _, move := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		if resp := makeMove(t, p, game.GameID, move); !resp.Success {
			t.Fatalf("%s rejected: %+v", move, resp.Error)
		}
	}

	resp := p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 1}))
	if !resp.Success {
		t.Fatalf("undo failed: %+v", resp.Error)
	}
	after := resp.Data.(core.GameResponse)
	if after.State != "ongoing" {
		t.Errorf("state after undo = %q, want ongoing", after.State)
	}

	if resp := makeMove(t, p, game.GameID, "g8f6"); !resp.Success {
		t.Errorf("play after undo rejected: %+v", resp.Error)
	}
}

func TestDeleteGame(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	resp := p.Execute(NewDeleteGameCommand(game.GameID))
	if !resp.Success {
		t.Fatalf("delete failed: %+v", resp.Error)
	}

	resp = p.Execute(NewGetGameCommand(game.GameID))
	if resp.Success {
		t.Error("deleted game still retrievable")
	}

	resp = p.Execute(NewDeleteGameCommand(game.GameID))
	if resp.Success {
		t.Error("double delete succeeded")
	}
}

func TestGetBoard(t *testing.T) {
	p := newTestProcessor(t)
	white, black := humanPlayers()
	game := createGame(t, p, core.CreateGameRequest{White: white, Black: black})

	resp := p.Execute(NewGetBoardCommand(game.GameID))
	if !resp.Success {
		t.Fatalf("get board failed: %+v", resp.Error)
	}
	boardResp := resp.Data.(core.BoardResponse)
	if boardResp.Board == "" {
		t.Error("empty board rendering")
	}
	if boardResp.FEN != game.FEN {
		t.Errorf("board FEN %q differs from game FEN %q", boardResp.FEN, game.FEN)
	}
}

func TestComputerMoveAsync(t *testing.T) {
	p := newTestProcessor(t)
	game := createGame(t, p, core.CreateGameRequest{
		White: core.PlayerConfig{Type: core.PlayerComputer, ThinkTime: 10},
		Black: core.PlayerConfig{Type: core.PlayerHuman},
	})

	// Humans cannot move for the computer
	resp := makeMove(t, p, game.GameID, "e2e4")
	if resp.Success || resp.Error.Code != core.ErrNotHumanTurn {
		t.Fatalf("expected %s, got %+v", core.ErrNotHumanTurn, resp.Error)
	}

	resp = makeMove(t, p, game.GameID, "cccc")
	if !resp.Success {
		t.Fatalf("computer trigger rejected: %+v", resp.Error)
	}
	if !resp.Pending {
		t.Error("computer trigger not marked pending")
	}

	deadline := time.After(3 * time.Second)
	for {
		got := p.Execute(NewGetGameCommand(game.GameID))
		state := got.Data.(core.GameResponse)
		if len(state.Moves) == 1 && state.State == "ongoing" {
			if state.Turn != "b" {
				t.Errorf("turn after computer move = %q, want b", state.Turn)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("computer move never landed, state %+v", state)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestMoveNotation(t *testing.T) {
	tests := []struct {
		move string
		ok   bool
	}{
		{"e2e4", true},
		{"e7e8q", true},
		{"e7e8n", true},
		{"e2", false},
		{"e2e4qq", false},
		{"e9e4", false},
		{"i2e4", false},
		{"e2e4x", false},
	}
	p := newTestProcessor(t)
	for _, tt := range tests {
		if got := p.isMoveSafe(tt.move); got != tt.ok {
			t.Errorf("isMoveSafe(%q) = %v, want %v", tt.move, got, tt.ok)
		}
	}
}
