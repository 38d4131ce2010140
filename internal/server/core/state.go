package core

// State is the service-level lifecycle of a game, layered over the
// rules engine's position status.
type State int

const (
	StateOngoing State = iota
	StatePending // a computer move is being picked
	StateStuck   // the computer mover failed; game needs intervention
	StateWhiteWins
	StateBlackWins
	StateStalemate
	StateDraw
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStuck:
		return "stuck"
	case StateWhiteWins:
		return "white wins"
	case StateBlackWins:
		return "black wins"
	case StateStalemate:
		return "stalemate"
	case StateDraw:
		return "draw"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// Over reports whether the game has finished.
func (s State) Over() bool {
	switch s {
	case StateWhiteWins, StateBlackWins, StateStalemate, StateDraw:
		return true
	}
	return false
}
