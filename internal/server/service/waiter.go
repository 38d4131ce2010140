package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout caps how long a long-polling client blocks before it
	// is released with whatever state the game is in.
	WaitTimeout = 25 * time.Second

	waitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for game changes.
type WaitRegistry struct {
	mu       sync.RWMutex
	waiters  map[string][]*waitRequest // gameID -> waiting clients
	shutdown chan struct{}
	wg       sync.WaitGroup
}

type waitRequest struct {
	moveCount int
	notify    chan struct{}
	timer     *time.Timer
	gameID    string
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*waitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait registers a client interested in changes to a game. The
// returned channel fires once: on change, timeout, or shutdown.
func (w *WaitRegistry) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &waitRequest{
		moveCount: moveCount,
		notify:    make(chan struct{}, waitChannelBuffer),
		gameID:    gameID,
	}

	req.timer = time.AfterFunc(WaitTimeout, func() {
		select {
		case req.notify <- struct{}{}:
		default:
		}
	})

	w.waiters[gameID] = append(w.waiters[gameID], req)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			w.removeWaiter(gameID, req)
		case <-req.notify:
			req.timer.Stop()
			w.removeWaiter(gameID, req)
		case <-w.shutdown:
			req.timer.Stop()
			close(req.notify)
		}
	}()

	return req.notify
}

// NotifyGame wakes clients waiting on a game whose known move count is
// out of date.
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	w.mu.RLock()
	waitList := w.waiters[gameID]
	w.mu.RUnlock()

	for _, req := range waitList {
		if req.moveCount != currentMoveCount {
			select {
			case req.notify <- struct{}{}:
			default:
				// Slow client, channel already primed
			}
		}
	}
}

// RemoveGame wakes and drops all waiters for a game before deletion.
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		select {
		case req.notify <- struct{}{}:
		default:
		}
	}
}

// Shutdown releases every waiter and waits for their goroutines.
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}

func (w *WaitRegistry) removeWaiter(gameID string, req *waitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[gameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[gameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}

	req.timer.Stop()
}
