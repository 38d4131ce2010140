package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	gamecore "chesskit/internal/core"
	"chesskit/internal/rules"
	"chesskit/internal/server/core"
	"chesskit/internal/server/game"
	"chesskit/internal/server/storage"

	"github.com/google/uuid"
)

const (
	MaxUsers           = 100
	PermanentSlots     = 10
	TempUserTTL        = 24 * time.Hour
	SessionTTL         = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

// Service coordinates the in-memory game registry, user management, and
// optional persistence.
type Service struct {
	games     map[string]*game.Game
	mu        sync.RWMutex
	store     *storage.Store
	jwtSecret []byte
	waiter    *WaitRegistry
}

// New creates a service instance. store may be nil, which disables
// persistence and account features.
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*game.Game),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth returns the storage component status.
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// GenerateGameID returns a fresh game identifier.
func (s *Service) GenerateGameID() string {
	return uuid.New().String()
}

// CreateGame registers a new game and records it to storage. fullmove
// is the FEN counter of the initial position, 1 for a fresh start.
func (s *Service) CreateGame(gameID string, whitePlayer, blackPlayer *core.Player, initial rules.GameState, fullmove int, setup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[gameID]; exists {
		return fmt.Errorf("game already exists: %s", gameID)
	}

	g := game.New(initial, fullmove, whitePlayer, blackPlayer)
	s.games[gameID] = g

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:         gameID,
			InitialFEN:     g.InitialFEN(),
			Setup:          setup,
			WhitePlayerID:  whitePlayer.ID,
			WhiteType:      int(whitePlayer.Type),
			WhiteThinkTime: whitePlayer.ThinkTime,
			BlackPlayerID:  blackPlayer.ID,
			BlackType:      int(blackPlayer.Type),
			BlackThinkTime: blackPlayer.ThinkTime,
			StartTimeUTC:   time.Now().UTC(),
		})
	}
	return nil
}

// GetGame returns a registered game.
func (s *Service) GetGame(gameID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}
	return g, nil
}

// ApplyMove appends a legal successor state to a game, persists the
// ply, and wakes long-polling clients.
func (s *Service) ApplyMove(gameID, move string, next rules.GameState, status gamecore.Status) error {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("game not found: %s", gameID)
	}

	mover := g.NextTurnColor()
	g.ApplyUpdate(move, next)
	moveCount := len(g.Moves())
	fen := g.CurrentFEN()
	s.mu.Unlock()

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       gameID,
			MoveNumber:   moveCount,
			Move:         move,
			FENAfterMove: fen,
			PlayerColor:  string(mover),
			StatusAfter:  status.String(),
			MoveTimeUTC:  time.Now().UTC(),
		})
	}

	s.waiter.NotifyGame(gameID, moveCount)
	return nil
}

// UpdatePlayers replaces both seats of a game.
func (s *Service) UpdatePlayers(gameID string, whitePlayer, blackPlayer *core.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}
	g.UpdatePlayers(whitePlayer, blackPlayer)
	return nil
}

// UpdateGameState transitions a game's service state, persisting the
// final state when the game ends.
func (s *Service) UpdateGameState(gameID string, state core.State) {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return
	}
	g.SetState(state)
	moveCount := len(g.Moves())
	s.mu.Unlock()

	if state.Over() && s.store != nil {
		s.store.RecordGameEnd(gameID, state.String())
	}

	// State changes matter to pollers even without a new move
	s.waiter.NotifyGame(gameID, moveCount)
}

// SetLastMoveResult stores move metadata for response building.
func (s *Service) SetLastMoveResult(gameID string, result *game.MoveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.games[gameID]; ok {
		g.SetLastResult(result)
	}
}

// UndoMoves rewinds a game's history.
func (s *Service) UndoMoves(gameID string, count int) error {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("game not found: %s", gameID)
	}
	if err := g.UndoMoves(count); err != nil {
		s.mu.Unlock()
		return err
	}
	moveCount := len(g.Moves())
	s.mu.Unlock()

	if s.store != nil {
		s.store.DeleteUndoneMoves(gameID, moveCount)
	}
	s.waiter.NotifyGame(gameID, moveCount)
	return nil
}

// DeleteGame removes a game from the registry.
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	_, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("game not found: %s", gameID)
	}
	delete(s.games, gameID)
	s.mu.Unlock()

	s.waiter.RemoveGame(gameID)
	return nil
}

// ClaimGameSlot claims a player slot for a user.
func (s *Service) ClaimGameSlot(gameID string, color gamecore.Color, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}
	return g.ClaimSlot(color, userID)
}

// GetSlotOwner returns the user who claimed a slot.
func (s *Service) GetSlotOwner(gameID string, color gamecore.Color) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return "", fmt.Errorf("game not found: %s", gameID)
	}
	return g.GetSlotOwner(color), nil
}

// RegisterWait registers a client to wait for game state changes.
func (s *Service) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	return s.waiter.RegisterWait(gameID, moveCount, ctx)
}

// RunCleanupJob periodically removes expired users and sessions.
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	if deleted, err := s.store.DeleteExpiredTempUsers(); err != nil {
		log.Printf("cleanup: failed to delete expired users: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired temp users", deleted)
	}

	if deleted, err := s.store.DeleteExpiredSessions(); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}

// Shutdown gracefully shuts down the service.
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}
