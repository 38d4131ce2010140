package processor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"chesskit/internal/rules"
	"chesskit/internal/server/core"
)

// MoverTask asks the pool to pick a computer move for a position.
type MoverTask struct {
	GameID   string
	State    rules.GameState
	Player   *core.Player
	Callback func(MoverResult)
}

// MoverResult is the outcome of a computer move pick.
type MoverResult struct {
	GameID string
	Update rules.Update
	Err    error
}

// MoverQueue runs computer move picks on a small worker pool. The
// computer is a uniform random chooser over the rulebook's legal
// updates; ThinkTime only paces it for the benefit of human opponents.
type MoverQueue struct {
	tasks    chan MoverTask
	rulebook rules.Rulebook
	rng      *rand.Rand
	rngMu    sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMoverQueue creates a queue with the given worker count.
func NewMoverQueue(workerCount int, rulebook rules.Rulebook) *MoverQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &MoverQueue{
		tasks:    make(chan MoverTask, 16),
		rulebook: rulebook,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// SubmitAsync enqueues a pick; the callback runs on a worker goroutine.
func (q *MoverQueue) SubmitAsync(gameID string, state rules.GameState, player *core.Player, callback func(MoverResult)) {
	task := MoverTask{
		GameID:   gameID,
		State:    state,
		Player:   player,
		Callback: callback,
	}

	select {
	case q.tasks <- task:
	case <-q.ctx.Done():
	default:
		go callback(MoverResult{
			GameID: gameID,
			Err:    fmt.Errorf("mover queue full"),
		})
	}
}

func (q *MoverQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			result := q.pickMove(task)

			// Pace the reply so games against humans feel turn-based
			if task.Player != nil && task.Player.ThinkTime > 0 {
				select {
				case <-time.After(time.Duration(task.Player.ThinkTime) * time.Millisecond):
				case <-q.ctx.Done():
					return
				}
			}

			task.Callback(result)
		}
	}
}

// pickMove enumerates every legal update for the active color and picks
// one uniformly at random.
func (q *MoverQueue) pickMove(task MoverTask) MoverResult {
	var updates []rules.Update
	for _, pos := range task.State.Board.Squares(task.State.Active) {
		updates = append(updates, q.rulebook.GetUpdates(task.State, pos)...)
	}

	if len(updates) == 0 {
		return MoverResult{
			GameID: task.GameID,
			Err:    fmt.Errorf("no legal moves for %s", task.State.Active),
		}
	}

	q.rngMu.Lock()
	choice := updates[q.rng.Intn(len(updates))]
	q.rngMu.Unlock()

	return MoverResult{GameID: task.GameID, Update: choice}
}

// Shutdown stops the workers, waiting up to the timeout.
func (q *MoverQueue) Shutdown(timeout time.Duration) {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
