package core

import (
	"github.com/google/uuid"

	gamecore "chesskit/internal/core"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

// Player is a seated participant in a game. Computer players pick a
// uniformly random legal move after ThinkTime milliseconds; there is no
// search or evaluation behind them.
type Player struct {
	ID        string         `json:"id"`
	Color     gamecore.Color `json:"color"`
	Type      PlayerType     `json:"type"`
	ThinkTime int            `json:"thinkTime,omitempty"` // ms, computer only
}

// PlayerConfig is the API-facing player description.
type PlayerConfig struct {
	Type      PlayerType `json:"type" validate:"required,oneof=1 2"`
	ThinkTime int        `json:"thinkTime,omitempty" validate:"omitempty,min=0,max=10000"`
}

// NewPlayer creates a Player from PlayerConfig.
func NewPlayer(config PlayerConfig, color gamecore.Color) *Player {
	player := &Player{
		ID:    uuid.New().String(),
		Color: color,
		Type:  config.Type,
	}
	if config.Type == PlayerComputer {
		player.ThinkTime = config.ThinkTime
	}
	return player
}

// PlayersResponse pairs both seats for API responses.
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}
