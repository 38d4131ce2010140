package core

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
	Setup string       `json:"setup,omitempty" validate:"omitempty,oneof=standard shuffled"`
	FEN   string       `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type MoveRequest struct {
	// Coordinate notation: "e2e4", "e7e8q" for promotion, king move
	// "e1g1" for castling. "cccc" asks the seated computer to move.
	Move string `json:"move" validate:"required,min=4,max=5"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID   string          `json:"gameId"`
	FEN      string          `json:"fen"`
	Turn     string          `json:"turn"`   // "w" or "b"
	State    string          `json:"state"`  // service lifecycle
	Status   string          `json:"status"` // rules classification
	Moves    []string        `json:"moves"`
	Players  PlayersResponse `json:"players"`
	LastMove *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
}

type LegalMovesResponse struct {
	GameID string   `json:"gameId"`
	Square string   `json:"square"`
	Moves  []string `json:"moves"`
	Count  int      `json:"count"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
