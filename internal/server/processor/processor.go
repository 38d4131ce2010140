package processor

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"chesskit/internal/board"
	gamecore "chesskit/internal/core"
	"chesskit/internal/rules"
	"chesskit/internal/server/core"
	"chesskit/internal/server/game"
	"chesskit/internal/server/service"
)

const defaultThinkTime = 100 // ms

// Processor executes commands against the service, using the native
// rulebook for every legality and status question.
type Processor struct {
	svc      *service.Service
	rulebook rules.Rulebook
	queue    *MoverQueue
	rng      *rand.Rand
}

// New creates a processor with a worker pool for computer moves.
func New(svc *service.Service) *Processor {
	p := &Processor{
		svc:      svc,
		rulebook: rules.New(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.queue = NewMoverQueue(2, p.rulebook)
	return p
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// isMoveSafe validates coordinate notation before it reaches the
// rulebook: [a-h][1-8][a-h][1-8] with an optional promotion letter.
func (p *Processor) isMoveSafe(move string) bool {
	for _, r := range move {
		if unicode.IsControl(r) {
			return false
		}
	}

	if len(move) < 4 || len(move) > 5 {
		return false
	}

	if move[0] < 'a' || move[0] > 'h' ||
		move[1] < '1' || move[1] > '8' ||
		move[2] < 'a' || move[2] > 'h' ||
		move[3] < '1' || move[3] > '8' {
		return false
	}

	if len(move) == 5 {
		promotion := move[4]
		if promotion != 'q' && promotion != 'r' && promotion != 'b' && promotion != 'n' {
			return false
		}
	}

	return true
}

var promotionLetters = map[byte]gamecore.PieceType{
	'q': gamecore.Queen,
	'r': gamecore.Rook,
	'b': gamecore.Bishop,
	'n': gamecore.Knight,
}

// parseMove splits validated coordinate notation into squares and an
// optional promotion type.
func parseMove(move string) (from, to board.Position, promotion gamecore.PieceType, err error) {
	from, err = board.ParsePosition(move[:2])
	if err != nil {
		return
	}
	to, err = board.ParsePosition(move[2:4])
	if err != nil {
		return
	}
	if len(move) == 5 {
		promotion = promotionLetters[move[4]]
	}
	return
}

// moveNotation renders an Update in coordinate notation.
func moveNotation(u rules.Update) string {
	s := u.From.String() + u.To.String()
	if u.Promotion != 0 {
		for letter, t := range promotionLetters {
			if t == u.Promotion {
				s += string(letter)
			}
		}
	}
	return s
}

// initialState builds the starting position a create request asks for,
// returning the position's FEN fullmove number alongside it.
func (p *Processor) initialState(req core.CreateGameRequest) (rules.GameState, string, int, error) {
	if req.FEN != "" {
		g, err := rules.ParseFEN(req.FEN)
		if err != nil {
			return rules.GameState{}, "", 0, err
		}
		return g, "fen", rules.FullmoveNumber(req.FEN), nil
	}

	var b board.Board
	setup := req.Setup
	switch setup {
	case "shuffled":
		b = board.ShuffledSetup(p.rng)
	case "", "standard":
		setup = "standard"
		b = board.StandardSetup()
	default:
		return rules.GameState{}, "", 0, fmt.Errorf("unknown setup %q", setup)
	}

	g, err := rules.NewGame(b, gamecore.ColorWhite)
	if err != nil {
		return rules.GameState{}, "", 0, err
	}
	return g, setup, 1, nil
}

// handleCreateGame creates a new game and starts the computer if it
// owns the first move.
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if args.White.Type == core.PlayerComputer && args.White.ThinkTime < defaultThinkTime {
		args.White.ThinkTime = defaultThinkTime
	}
	if args.Black.Type == core.PlayerComputer && args.Black.ThinkTime < defaultThinkTime {
		args.Black.ThinkTime = defaultThinkTime
	}

	initial, setup, fullmove, err := p.initialState(args)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("invalid position: %v", err), core.ErrInvalidFEN)
	}

	gameID := p.svc.GenerateGameID()

	whitePlayer := core.NewPlayer(args.White, gamecore.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, gamecore.ColorBlack)

	if args.White.Type == core.PlayerHuman && cmd.UserID != "" {
		whitePlayer.ID = cmd.UserID
	}
	if args.Black.Type == core.PlayerHuman && cmd.UserID != "" {
		blackPlayer.ID = cmd.UserID
	}

	if err = p.svc.CreateGame(gameID, whitePlayer, blackPlayer, initial, fullmove, setup); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	// The supplied position may already be decided
	p.applyStatus(gameID, initial)

	g, err := p.svc.GetGame(gameID)
	if err != nil {
		return p.errorResponse("game creation failed", core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(gameID, g),
	}
}

// handleConfigurePlayers updates player configuration mid-game.
func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if args.White.Type == core.PlayerComputer && args.White.ThinkTime < defaultThinkTime {
		args.White.ThinkTime = defaultThinkTime
	}
	if args.Black.Type == core.PlayerComputer && args.Black.ThinkTime < defaultThinkTime {
		args.Black.ThinkTime = defaultThinkTime
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	if g.State() == core.StatePending {
		return p.errorResponse("cannot change players while computer is moving", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, gamecore.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, gamecore.ColorBlack)

	if err = p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to update players: %v", err), core.ErrInternalError)
	}

	g, _ = p.svc.GetGame(cmd.GameID)
	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleGetGame retrieves game state.
func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleMakeMove validates and applies a ply through the rulebook.
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	switch {
	case g.State() == core.StatePending:
		return p.errorResponse("computer move in progress", core.ErrInvalidRequest)
	case g.State() == core.StateStuck:
		return p.errorResponse("game is stuck", core.ErrGameOver)
	case g.State().Over():
		return p.errorResponse(fmt.Sprintf("game is over: %s", g.State()), core.ErrGameOver)
	}

	// "cccc" asks the seated computer to take its turn
	if strings.TrimSpace(args.Move) == "cccc" {
		if g.NextPlayer().Type != core.PlayerComputer {
			return p.errorResponse("not computer player's turn", core.ErrNotHumanTurn)
		}

		p.svc.UpdateGameState(cmd.GameID, core.StatePending)
		p.triggerComputerMove(cmd.GameID, g)

		g, _ = p.svc.GetGame(cmd.GameID)
		response := p.buildGameResponse(cmd.GameID, g)
		response.LastMove = &core.MoveInfo{
			PlayerColor: string(g.NextTurnColor()),
		}

		return ProcessorResponse{
			Success: true,
			Pending: true,
			Data:    response,
		}
	}

	if g.NextPlayer().Type != core.PlayerHuman {
		return p.errorResponse("not human player's turn", core.ErrNotHumanTurn)
	}

	move := strings.ToLower(strings.TrimSpace(args.Move))
	if !p.isMoveSafe(move) {
		return p.errorResponse("invalid move format", core.ErrInvalidMove)
	}

	from, to, promotion, err := parseMove(move)
	if err != nil {
		return p.errorResponse("invalid move format", core.ErrInvalidMove)
	}

	current := g.Current()
	mover := current.Active

	update, ok := p.findUpdate(current, from, to, promotion)
	if !ok {
		return p.errorResponse("illegal move", core.ErrIllegalMove)
	}

	status := p.rulebook.GetStatus(update.State)
	if err = p.svc.ApplyMove(cmd.GameID, move, update.State, status); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to apply move: %v", err), core.ErrInternalError)
	}

	p.svc.SetLastMoveResult(cmd.GameID, &game.MoveResult{
		Move:        move,
		PlayerColor: mover,
	})

	p.settleStatus(cmd.GameID, status, mover)

	g, _ = p.svc.GetGame(cmd.GameID)
	response := p.buildGameResponse(cmd.GameID, g)
	response.LastMove = &core.MoveInfo{
		Move:        move,
		PlayerColor: string(mover),
	}

	return ProcessorResponse{
		Success: true,
		Data:    response,
	}
}

// findUpdate matches a requested move against the legal updates of the
// piece on the source square.
func (p *Processor) findUpdate(g rules.GameState, from, to board.Position, promotion gamecore.PieceType) (rules.Update, bool) {
	for _, u := range p.rulebook.GetUpdates(g, from) {
		if u.To == to && u.Promotion == promotion {
			return u, true
		}
	}
	return rules.Update{}, false
}

// handleLegalMoves lists the legal plies for the piece on one square.
func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	pos, err := board.ParsePosition(cmd.Square)
	if err != nil {
		return p.errorResponse("invalid square", core.ErrInvalidRequest)
	}

	updates := p.rulebook.GetUpdates(g.Current(), pos)
	moves := make([]string, 0, len(updates))
	for _, u := range updates {
		moves = append(moves, moveNotation(u))
	}

	return ProcessorResponse{
		Success: true,
		Data: core.LegalMovesResponse{
			GameID: cmd.GameID,
			Square: cmd.Square,
			Moves:  moves,
			Count:  len(moves),
		},
	}
}

// handleUndoMove rewinds game state.
func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	switch g.State() {
	case core.StatePending:
		return p.errorResponse("cannot undo while computer move is in progress", core.ErrInvalidRequest)
	case core.StateStuck:
		return p.errorResponse("cannot undo in stuck game", core.ErrInvalidRequest)
	}

	args := core.UndoRequest{Count: 1}
	if cmd.Args != nil {
		if req, ok := cmd.Args.(core.UndoRequest); ok {
			args = req
		}
	}

	if err = p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return p.errorResponse("game not found", core.ErrGameNotFound)
		}
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	p.svc.UpdateGameState(cmd.GameID, core.StateOngoing)

	g, _ = p.svc.GetGame(cmd.GameID)
	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleDeleteGame removes a game.
func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	if g.State() == core.StatePending {
		return p.errorResponse("cannot delete game while computer move is in progress", core.ErrInvalidRequest)
	}

	if err = p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{Success: true}
}

// handleGetBoard returns the ASCII board.
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   g.CurrentFEN(),
			Board: g.Current().Board.ToASCII(),
		},
	}
}

// triggerComputerMove submits the position to the mover pool.
func (p *Processor) triggerComputerMove(gameID string, g *game.Game) {
	state := g.Current()
	color := state.Active
	player := g.NextPlayer()

	p.queue.SubmitAsync(gameID, state, player, func(result MoverResult) {
		currentGame, err := p.svc.GetGame(gameID)
		if err != nil {
			return // game was deleted while thinking
		}
		if currentGame.State() != core.StatePending {
			return
		}

		if result.Err != nil {
			log.Printf("Computer mover error for game %s: %v", gameID, result.Err)
			p.svc.UpdateGameState(gameID, core.StateStuck)
			return
		}

		move := moveNotation(result.Update)
		status := p.rulebook.GetStatus(result.Update.State)

		if err := p.svc.ApplyMove(gameID, move, result.Update.State, status); err != nil {
			log.Printf("Failed to apply computer move for game %s: %v", gameID, err)
			p.svc.UpdateGameState(gameID, core.StateStuck)
			return
		}

		p.svc.SetLastMoveResult(gameID, &game.MoveResult{
			Move:        move,
			PlayerColor: color,
		})

		p.svc.UpdateGameState(gameID, core.StateOngoing)
		p.settleStatus(gameID, status, color)
	})
}

// settleStatus maps a rules classification after a ply onto the service
// state machine. Checkmate means the side that just moved wins.
func (p *Processor) settleStatus(gameID string, status gamecore.Status, lastMoveBy gamecore.Color) {
	switch status {
	case gamecore.StatusCheckmate:
		if lastMoveBy == gamecore.ColorWhite {
			p.svc.UpdateGameState(gameID, core.StateWhiteWins)
		} else {
			p.svc.UpdateGameState(gameID, core.StateBlackWins)
		}
	case gamecore.StatusStalemate:
		p.svc.UpdateGameState(gameID, core.StateStalemate)
	}
}

// applyStatus settles the service state for a freshly loaded position:
// the color that "just moved" is the one not to move.
func (p *Processor) applyStatus(gameID string, g rules.GameState) {
	status := p.rulebook.GetStatus(g)
	p.settleStatus(gameID, status, gamecore.OppositeColor(g.Active))
}

// buildGameResponse constructs the standard game response.
func (p *Processor) buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	resp := core.GameResponse{
		GameID: gameID,
		FEN:    g.CurrentFEN(),
		Turn:   string(g.NextTurnColor()),
		State:  g.State().String(),
		Status: p.rulebook.GetStatus(g.Current()).String(),
		Moves:  g.Moves(),
		Players: core.PlayersResponse{
			White: g.GetPlayer(gamecore.ColorWhite),
			Black: g.GetPlayer(gamecore.ColorBlack),
		},
	}

	if result := g.LastResult(); result != nil {
		resp.LastMove = &core.MoveInfo{
			Move:        result.Move,
			PlayerColor: string(result.PlayerColor),
		}
	}

	return resp
}

func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close drains the mover pool.
func (p *Processor) Close() error {
	p.queue.Shutdown(5 * time.Second)
	return nil
}
