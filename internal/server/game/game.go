package game

import (
	"fmt"

	gamecore "chesskit/internal/core"
	"chesskit/internal/rules"
	"chesskit/internal/server/core"
)

// Snapshot is one entry of a game's linear history: the position after
// a ply, the ply that produced it, and whose turn it is next.
type Snapshot struct {
	FEN           string         `json:"fen"`
	PreviousMove  string         `json:"previousMove"`
	NextTurnColor gamecore.Color `json:"nextTurnColor"`
	PlayerID      string         `json:"playerId"`
}

// MoveResult tracks the outcome of the most recent move.
type MoveResult struct {
	Move        string         `json:"move"`
	PlayerColor gamecore.Color `json:"playerColor"`
}

// Game aggregates a match: the immutable rules states it has passed
// through, the serialized snapshot history, both seats, and the
// service-level lifecycle.
type Game struct {
	snapshots    []Snapshot
	states       []rules.GameState
	players      map[gamecore.Color]*core.Player
	slots        map[gamecore.Color]string // color -> claiming user ID
	state        core.State
	lastResult   *MoveResult
	baseFullmove int // fullmove number of the initial position
}

func New(initial rules.GameState, fullmove int, whitePlayer, blackPlayer *core.Player) *Game {
	if fullmove < 1 {
		fullmove = 1
	}
	players := map[gamecore.Color]*core.Player{
		gamecore.ColorWhite: whitePlayer,
		gamecore.ColorBlack: blackPlayer,
	}
	return &Game{
		snapshots: []Snapshot{{
			FEN:           rules.EncodeFEN(initial, fullmove),
			NextTurnColor: initial.Active,
			PlayerID:      players[initial.Active].ID,
		}},
		states:       []rules.GameState{initial},
		players:      players,
		slots:        make(map[gamecore.Color]string),
		state:        core.StateOngoing,
		baseFullmove: fullmove,
	}
}

// Current returns the latest rules state.
func (g *Game) Current() rules.GameState {
	return g.states[len(g.states)-1]
}

// CurrentSnapshot returns the latest snapshot.
func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

// CurrentFEN returns the current position in FEN notation.
func (g *Game) CurrentFEN() string {
	return g.CurrentSnapshot().FEN
}

func (g *Game) NextTurnColor() gamecore.Color {
	return g.Current().Active
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurnColor()]
}

func (g *Game) GetPlayer(color gamecore.Color) *core.Player {
	return g.players[color]
}

// fullmove returns the FEN fullmove number of the current position:
// the base counter advanced once per completed Black ply.
func (g *Game) fullmove() int {
	plies := len(g.states) - 1
	if g.states[0].Active == gamecore.ColorBlack {
		plies++
	}
	return g.baseFullmove + plies/2
}

// ApplyUpdate appends the successor state a legal move produced.
func (g *Game) ApplyUpdate(move string, next rules.GameState) {
	g.states = append(g.states, next)
	g.snapshots = append(g.snapshots, Snapshot{
		FEN:           rules.EncodeFEN(next, g.fullmove()),
		PreviousMove:  move,
		NextTurnColor: next.Active,
		PlayerID:      g.players[next.Active].ID,
	})
}

// UpdatePlayers replaces both seats, keeping the current snapshot's
// turn owner consistent.
func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[gamecore.ColorWhite] = whitePlayer
	g.players[gamecore.ColorBlack] = blackPlayer
	if len(g.snapshots) > 0 {
		snap := &g.snapshots[len(g.snapshots)-1]
		snap.PlayerID = g.players[snap.NextTurnColor].ID
	}
}

// ClaimSlot binds a color to an authenticated user. A claimed slot can
// only be re-claimed by the same user.
func (g *Game) ClaimSlot(color gamecore.Color, userID string) error {
	if owner, claimed := g.slots[color]; claimed && owner != userID {
		return fmt.Errorf("%s slot already claimed", color)
	}
	g.slots[color] = userID
	return nil
}

// GetSlotOwner returns the user who claimed a slot, if any.
func (g *Game) GetSlotOwner(color gamecore.Color) string {
	return g.slots[color]
}

// UndoMoves rewinds the history by count plies.
func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}
	available := len(g.snapshots) - 1
	if available < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, available)
	}
	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.states = g.states[:len(g.states)-count]
	g.state = core.StateOngoing
	g.lastResult = nil
	return nil
}

// Moves lists the applied plies in order.
func (g *Game) Moves() []string {
	moves := []string{}
	for i := 1; i < len(g.snapshots); i++ {
		if g.snapshots[i].PreviousMove != "" {
			moves = append(moves, g.snapshots[i].PreviousMove)
		}
	}
	return moves
}

func (g *Game) State() core.State {
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.state = s
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

func (g *Game) InitialFEN() string {
	return g.snapshots[0].FEN
}
